// Package game stores the turn-based game's reference data: characters with
// their moves, maps, conditions and achievements, plus per-guild admin roles.
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("game: not found")
	ErrInvalidInput = errors.New("game: invalid input")
)

// Move is one action a character can take.
type Move struct {
	Name         string         `json:"name"`
	Cost         int            `json:"cost"`
	DType        string         `json:"dtype"`
	DiceMin      int            `json:"dice_min"`
	DiceMax      int            `json:"dice_max"`
	Text         string         `json:"text,omitempty"`
	IsRecovery   bool           `json:"is_recovery,omitempty"`
	RecoveryType string         `json:"recovery_type,omitempty"`
	Effects      map[string]any `json:"effects,omitempty"`
}

// Character is a playable unit and its move list.
type Character struct {
	Name              string             `json:"name"`
	OwnerID           string             `json:"owner_id,omitempty"`
	MaxHP             int                `json:"max_hp"`
	MaxHexa           int                `json:"max_hexa"`
	SpeedMin          int                `json:"speed_min"`
	SpeedMax          int                `json:"speed_max"`
	Resistances       map[string]float64 `json:"resistances,omitempty"`
	LeaderEffect      string             `json:"leader_effect,omitempty"`
	Passive           string             `json:"passive,omitempty"`
	UltimateCondition string             `json:"ultimate_condition,omitempty"`
	Moves             []Move             `json:"moves"`
}

// MoveFromMap builds a Move from a loosely typed document, filling the
// defaults used by hand-written move sheets.
func MoveFromMap(d map[string]any) Move {
	m := Move{
		Name:    stringField(d, "name", ""),
		Cost:    intField(d, "cost", 0),
		DType:   stringField(d, "dtype", "U"),
		DiceMin: intField(d, "dice_min", 1),
		DiceMax: intField(d, "dice_max", 1),
		Text:    stringField(d, "text", ""),
		Effects: map[string]any{},
	}
	if v, ok := d["is_recovery"].(bool); ok {
		m.IsRecovery = v
	}
	m.RecoveryType = stringField(d, "recovery_type", "")
	if eff, ok := d["effects"].(map[string]any); ok && eff != nil {
		m.Effects = eff
	}
	return m
}

// ParseCharacter decodes a character sheet submitted as JSON.
func ParseCharacter(raw []byte) (Character, error) {
	var doc struct {
		Character
		Moves []map[string]any `json:"moves"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Character{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	c := doc.Character
	c.Name = strings.TrimSpace(c.Name)
	c.Moves = make([]Move, 0, len(doc.Moves))
	for _, m := range doc.Moves {
		c.Moves = append(c.Moves, MoveFromMap(m))
	}
	if err := c.Validate(); err != nil {
		return Character{}, err
	}
	return c, nil
}

// Validate checks the invariants a stored character must satisfy.
func (c Character) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: character name is required", ErrInvalidInput)
	case c.MaxHP <= 0:
		return fmt.Errorf("%w: max_hp must be positive", ErrInvalidInput)
	case c.SpeedMin > c.SpeedMax:
		return fmt.Errorf("%w: speed_min exceeds speed_max", ErrInvalidInput)
	}
	for _, m := range c.Moves {
		if m.Name == "" {
			return fmt.Errorf("%w: move without a name", ErrInvalidInput)
		}
		if m.DiceMin > m.DiceMax {
			return fmt.Errorf("%w: move %s dice_min exceeds dice_max", ErrInvalidInput, m.Name)
		}
	}
	return nil
}

func stringField(d map[string]any, key, def string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return def
}

func intField(d map[string]any, key string, def int) int {
	switch v := d[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}
