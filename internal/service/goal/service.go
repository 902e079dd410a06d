package goal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ubloom/ubloom/backend/internal/model/goal"
)

var (
	ErrTextRequired  = errors.New("goal text is required")
	ErrInvalidStatus = errors.New("invalid goal status")
)

// Service manages a user's mini-goals.
type Service struct {
	store goal.Store
	now   func() time.Time
}

// NewService creates the goal service.
func NewService(store goal.Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Create adds an active goal for userID.
func (s *Service) Create(ctx context.Context, userID int64, text string) (*goal.Goal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}

	g := &goal.Goal{UserID: userID, Text: text, Status: goal.StatusActive}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// List returns the user's goals, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]goal.Goal, error) {
	return s.store.ListGoals(ctx, userID)
}

// SetStatus moves a goal to status. Completing a goal marks it rewarded;
// reactivating clears the completion and skip times.
func (s *Service) SetStatus(ctx context.Context, userID, goalID int64, status goal.Status) (*goal.Goal, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	g, err := s.store.GoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}
	if g.Status == status {
		return g, nil
	}

	now := s.now().Truncate(time.Second)
	g.Status = status
	switch status {
	case goal.StatusDone:
		g.CompletedAt = &now
		g.SkippedAt = nil
		g.Rewarded = true
	case goal.StatusSkipped:
		g.SkippedAt = &now
		g.CompletedAt = nil
	case goal.StatusActive:
		g.CompletedAt = nil
		g.SkippedAt = nil
	}

	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}
