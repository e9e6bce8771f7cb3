package game

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CharacterRow stores a character sheet as a JSON document keyed by name.
type CharacterRow struct {
	ID      uint      `gorm:"primaryKey"`
	Name    string    `gorm:"size:128;uniqueIndex;not null"`
	OwnerID string    `gorm:"size:32"`
	Data    Character `gorm:"serializer:json;type:json;not null"`
}

func (CharacterRow) TableName() string { return "characters" }

// MapRow stores a battle map document keyed by name.
type MapRow struct {
	ID   uint           `gorm:"primaryKey"`
	Name string         `gorm:"size:128;uniqueIndex;not null"`
	Data map[string]any `gorm:"serializer:json;type:json;not null"`
}

func (MapRow) TableName() string { return "maps" }

// ConditionRow stores a status condition definition.
type ConditionRow struct {
	ID   uint           `gorm:"primaryKey"`
	Key  string         `gorm:"size:128;uniqueIndex;not null"`
	Data map[string]any `gorm:"serializer:json;type:json;not null"`
}

func (ConditionRow) TableName() string { return "conditions" }

// AchievementRow stores an achievement definition.
type AchievementRow struct {
	ID   uint           `gorm:"primaryKey"`
	Key  string         `gorm:"size:128;uniqueIndex;not null"`
	Data map[string]any `gorm:"serializer:json;type:json;not null"`
}

func (AchievementRow) TableName() string { return "achievements" }

// GuildSettings holds the game admin role of a guild.
type GuildSettings struct {
	GuildID     string `gorm:"primaryKey;size:32"`
	AdminRoleID string `gorm:"size:32"`
}

func (GuildSettings) TableName() string { return "guild_settings" }

// Migrate creates or updates the game tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&CharacterRow{}, &MapRow{}, &ConditionRow{}, &AchievementRow{}, &GuildSettings{})
}

// Store is the keyed-record access layer for game data.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SetGuildAdminRole records the role allowed to manage game data in a guild.
func (s *Store) SetGuildAdminRole(ctx context.Context, guildID, roleID string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"admin_role_id"}),
	}).Create(&GuildSettings{GuildID: guildID, AdminRoleID: roleID}).Error
	if err != nil {
		return fmt.Errorf("game: set admin role for %s: %w", guildID, err)
	}
	return nil
}

// GuildAdminRole returns the configured admin role, or "" when unset.
func (s *Store) GuildAdminRole(ctx context.Context, guildID string) (string, error) {
	var row GuildSettings
	err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("game: admin role for %s: %w", guildID, err)
	}
	return row.AdminRoleID, nil
}

// UpsertCharacter inserts or replaces a character sheet by name.
func (s *Store) UpsertCharacter(ctx context.Context, c Character) error {
	if err := c.Validate(); err != nil {
		return err
	}
	row := CharacterRow{Name: c.Name, OwnerID: c.OwnerID, Data: c}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_id", "data"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("game: save character %s: %w", c.Name, err)
	}
	return nil
}

// Character loads a character sheet by name.
func (s *Store) Character(ctx context.Context, name string) (*Character, error) {
	var row CharacterRow
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: character %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("game: character %s: %w", name, err)
	}
	c := row.Data
	c.Name = row.Name
	c.OwnerID = row.OwnerID
	return &c, nil
}

// Characters lists stored character names in alphabetical order.
func (s *Store) Characters(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&CharacterRow{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("game: list characters: %w", err)
	}
	return names, nil
}

// UpsertMap inserts or replaces a map document by name.
func (s *Store) UpsertMap(ctx context.Context, name string, doc map[string]any) error {
	if name == "" {
		return fmt.Errorf("%w: map name is required", ErrInvalidInput)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data"}),
	}).Create(&MapRow{Name: name, Data: doc}).Error
	if err != nil {
		return fmt.Errorf("game: save map %s: %w", name, err)
	}
	return nil
}

// Map loads a map document by name.
func (s *Store) Map(ctx context.Context, name string) (map[string]any, error) {
	var row MapRow
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: map %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("game: map %s: %w", name, err)
	}
	return row.Data, nil
}
