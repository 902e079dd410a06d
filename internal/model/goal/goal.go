package goal

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a goal.
type Status string

const (
	StatusActive  Status = "active"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDone, StatusSkipped:
		return true
	}
	return false
}

var ErrNotFound = errors.New("goal not found")

// Goal is a mini-goal a user committed to, usually taken from a reflection's
// growth path.
type Goal struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"-"`
	Text          string     `json:"text"`
	Status        Status     `json:"status"`
	Rewarded      bool       `json:"rewarded"`
	PointsAwarded bool       `json:"pointsAwarded"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	SkippedAt     *time.Time `json:"skippedAt,omitempty"`
}

// Store persists goals. Lookups are scoped to the owning user.
type Store interface {
	CreateGoal(ctx context.Context, g *Goal) error
	GoalByID(ctx context.Context, userID, id int64) (*Goal, error)
	UpdateGoal(ctx context.Context, g *Goal) error
	ListGoals(ctx context.Context, userID int64) ([]Goal, error)
}
