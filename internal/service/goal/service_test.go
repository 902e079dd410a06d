package goal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubloom/ubloom/backend/internal/model/goal"
)

type memoryGoals struct {
	mu     sync.Mutex
	nextID int64
	goals  map[int64]goal.Goal
}

func newMemoryGoals() *memoryGoals {
	return &memoryGoals{goals: make(map[int64]goal.Goal)}
}

func (m *memoryGoals) CreateGoal(_ context.Context, g *goal.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	g.ID = m.nextID
	g.CreatedAt = time.Now().UTC()
	m.goals[g.ID] = *g
	return nil
}

func (m *memoryGoals) GoalByID(_ context.Context, userID, id int64) (*goal.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return nil, goal.ErrNotFound
	}
	return &g, nil
}

func (m *memoryGoals) UpdateGoal(_ context.Context, g *goal.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[g.ID] = *g
	return nil
}

func (m *memoryGoals) ListGoals(_ context.Context, userID int64) ([]goal.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]goal.Goal, 0)
	for id := m.nextID; id > 0; id-- {
		if g, ok := m.goals[id]; ok && g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func TestCreateRequiresText(t *testing.T) {
	svc := NewService(newMemoryGoals())

	_, err := svc.Create(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, ErrTextRequired)

	g, err := svc.Create(context.Background(), 1, " Stretch for 30 seconds ")
	require.NoError(t, err)
	assert.Equal(t, "Stretch for 30 seconds", g.Text)
	assert.Equal(t, goal.StatusActive, g.Status)
}

func TestSetStatusTransitions(t *testing.T) {
	svc := NewService(newMemoryGoals())
	ctx := context.Background()

	g, err := svc.Create(ctx, 1, "Walk")
	require.NoError(t, err)

	done, err := svc.SetStatus(ctx, 1, g.ID, goal.StatusDone)
	require.NoError(t, err)
	assert.True(t, done.Rewarded)
	assert.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.SkippedAt)

	skipped, err := svc.SetStatus(ctx, 1, g.ID, goal.StatusSkipped)
	require.NoError(t, err)
	assert.NotNil(t, skipped.SkippedAt)
	assert.Nil(t, skipped.CompletedAt)
	assert.True(t, skipped.Rewarded, "rewards are not taken back")

	active, err := svc.SetStatus(ctx, 1, g.ID, goal.StatusActive)
	require.NoError(t, err)
	assert.Nil(t, active.SkippedAt)
}

func TestSetStatusRejectsUnknownStatusAndForeignGoal(t *testing.T) {
	svc := NewService(newMemoryGoals())
	ctx := context.Background()
	g, err := svc.Create(ctx, 1, "Walk")
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, 1, g.ID, goal.Status("finished"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetStatus(ctx, 2, g.ID, goal.StatusDone)
	assert.ErrorIs(t, err, goal.ErrNotFound)
}
