package journal

import (
	"context"
	"errors"
	"strings"

	"github.com/ubloom/ubloom/backend/internal/model/journal"
	"github.com/ubloom/ubloom/backend/internal/model/reflection"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var ErrTextRequired = errors.New("journal text is required")

// Service saves journal entries together with their reflection.
type Service struct {
	store journal.Store
}

// NewService creates the journal service.
func NewService(store journal.Store) *Service {
	return &Service{store: store}
}

// Save stores an entry. The reflection is optional.
func (s *Service) Save(ctx context.Context, userID int64, text string, r *reflection.Reflection) (*journal.Entry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}

	entry := &journal.Entry{UserID: userID, Text: text, Reflection: r}
	if err := s.store.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the newest entries of a user. Limits outside
// [1, MaxListLimit] fall back to DefaultListLimit or are clamped.
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]journal.Entry, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.store.ListEntries(ctx, userID, limit)
}
