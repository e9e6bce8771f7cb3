package suggestions

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/OneOfOne/xxhash"
)

const (
	ColorPending  = 0x3498DB
	ColorApproved = 0x2ECC71
	ColorRejected = 0xE74C3C

	AnonymousReviewer = "Anonymous Reviewer"
)

// Field is one named block of a rendered record.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is the platform-neutral projection of a suggestion and its tally.
type Record struct {
	SuggestionID string    `json:"suggestionId"`
	Title        string    `json:"title"`
	AuthorName   string    `json:"authorName,omitempty"`
	Color        int       `json:"color"`
	Fields       []Field   `json:"fields"`
	Footer       string    `json:"footer"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Status       Status    `json:"status"`
	Tally        Tally     `json:"tally"`
	Closed       bool      `json:"closed"`
}

// Render builds the full public record from stored state. It is recomputed
// from scratch on every change rather than patched.
func Render(s Suggestion, t Tally) Record {
	rec := Record{
		SuggestionID: s.ID,
		Title:        s.Title,
		AuthorName:   s.AuthorName,
		Color:        ColorPending,
		Footer:       fmt.Sprintf("User ID: %s | Suggestion ID: %s", s.AuthorID, s.ID),
		ImageURL:     s.ImageURL,
		Timestamp:    s.CreatedAt.UTC(),
		Status:       s.Status,
		Tally:        t,
		Closed:       s.Status.Terminal(),
	}

	rec.Fields = append(rec.Fields, Field{Name: "Description", Value: s.Description})
	if s.Pros != "" {
		rec.Fields = append(rec.Fields, Field{Name: "Pros", Value: s.Pros})
	}
	if s.Cons != "" {
		rec.Fields = append(rec.Fields, Field{Name: "Cons", Value: s.Cons})
	}

	resultsLabel := "Results so far:"
	if rec.Closed {
		resultsLabel = "Results:"
	}
	rec.Fields = append(rec.Fields, Field{
		Name:  resultsLabel,
		Value: fmt.Sprintf("Upvotes: %d ✅\nDownvotes: %d ❌", t.Upvotes, t.Downvotes),
	})

	switch s.Status {
	case StatusApproved:
		rec.Color = ColorApproved
		rec.Fields = append(rec.Fields, Field{Name: "✅ Approved", Value: decisionText("Approved", s)})
	case StatusRejected:
		rec.Color = ColorRejected
		rec.Fields = append(rec.Fields, Field{Name: "❌ Rejected", Value: decisionText("Rejected", s)})
	}

	return rec
}

func decisionText(verb string, s Suggestion) string {
	actor := AnonymousReviewer
	if !s.DecidedAnonymously {
		if s.DecidedBy != nil && *s.DecidedBy != "" {
			actor = fmt.Sprintf("<@%s>", *s.DecidedBy)
		} else {
			actor = "a reviewer"
		}
	}
	text := fmt.Sprintf("%s by: %s", verb, actor)
	if s.DecisionReason != nil && *s.DecisionReason != "" {
		text += "\nReason: " + *s.DecisionReason
	}
	return text
}

// Fingerprint identifies the rendered content, so callers can skip edits that
// would not change anything.
func (r Record) Fingerprint() uint64 {
	raw, err := json.Marshal(r)
	if err != nil {
		return 0
	}
	return xxhash.Checksum64(raw)
}
