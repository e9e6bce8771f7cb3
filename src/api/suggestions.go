package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/emberforge/guildbot/src/suggestions"
	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Suggestions struct{ engine *suggestions.Engine }

func NewSuggestions(engine *suggestions.Engine) Suggestions { return Suggestions{engine: engine} }

type suggestionView struct {
	ID          string     `json:"id"`
	GuildID     string     `json:"guildId"`
	AuthorID    string     `json:"authorId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Pros        string     `json:"pros,omitempty"`
	Cons        string     `json:"cons,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	Reason      *string    `json:"reason,omitempty"`
	Anonymous   bool       `json:"anonymous"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
	Upvotes     int64      `json:"upvotes"`
	Downvotes   int64      `json:"downvotes"`
}

// view never exposes the reviewer id; anonymity is honored here as in the
// rendered record.
func view(s *suggestions.Suggestion, t suggestions.Tally) suggestionView {
	return suggestionView{
		ID:          s.ID,
		GuildID:     s.GuildID,
		AuthorID:    s.AuthorID,
		Title:       s.Title,
		Description: s.Description,
		Pros:        s.Pros,
		Cons:        s.Cons,
		ImageURL:    s.ImageURL,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		Reason:      s.DecisionReason,
		Anonymous:   s.DecidedAnonymously,
		DecidedAt:   s.DecidedAt,
		Upvotes:     t.Upvotes,
		Downvotes:   t.Downvotes,
	}
}

func (h Suggestions) Get(c *gin.Context) {
	snap, err := h.engine.Snapshot(c.Request.Context(), c.Param("id"))
	if errors.Is(err, suggestions.ErrNotFound) || (err == nil && !snap.Suggestion.Published()) {
		c.JSON(http.StatusNotFound, gin.H{"err": "suggestion not found"})
		return
	}
	if err != nil {
		log.Printf("api: get suggestion: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	c.JSON(http.StatusOK, view(snap.Suggestion, snap.Tally))
}

func (h Suggestions) List(c *gin.Context) {
	status := suggestions.Status(c.Query("status"))
	switch status {
	case "", suggestions.StatusPending, suggestions.StatusApproved, suggestions.StatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad status"})
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"err": "bad limit"})
			return
		}
		limit = min(n, maxListLimit)
	}

	snaps, err := h.engine.List(c.Request.Context(), c.Param("guildID"), status, limit)
	if err != nil {
		log.Printf("api: list suggestions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error"})
		return
	}
	out := make([]suggestionView, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, view(s.Suggestion, s.Tally))
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}
