package journal

import (
	"context"
	"time"

	"github.com/ubloom/ubloom/backend/internal/model/reflection"
)

// Entry is a saved journal entry with the reflection it received, if any.
type Entry struct {
	ID         int64                  `json:"id"`
	UserID     int64                  `json:"-"`
	Text       string                 `json:"text"`
	Reflection *reflection.Reflection `json:"reflection,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Store persists journal entries.
type Store interface {
	CreateEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, userID int64, limit int) ([]Entry, error)
}
