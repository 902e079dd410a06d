package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubloom/ubloom/backend/internal/model/account"
	"github.com/ubloom/ubloom/backend/internal/model/goal"
	"github.com/ubloom/ubloom/backend/internal/model/journal"
	"github.com/ubloom/ubloom/backend/internal/model/reflection"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "data", "ubloom.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store *Store, email string) *account.User {
	t.Helper()
	u := &account.User{
		Username:     "bloom",
		Email:        email,
		PasswordHash: "hash",
		AvatarID:     account.DefaultAvatarID,
		Progress:     account.Progress{Coins: account.DefaultCoins},
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func TestMigrationsAreApplied(t *testing.T) {
	store := newTestStore(t)

	version, err := SchemaVersion(store.db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	require.NoError(t, Migrate(store.db), "re-running migrations must be a no-op")
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, store, "a@example.com")
	assert.NotZero(t, u.ID)

	got, err := store.UserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 120, got.Progress.Coins)
	assert.Nil(t, got.Progress.LastActiveDate)

	_, err = store.UserByID(ctx, 999)
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	createUser(t, store, "dup@example.com")

	err := store.CreateUser(context.Background(), &account.User{Username: "x", Email: "dup@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, account.ErrEmailTaken)
}

func TestSaveProgressAndAvatar(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, store, "p@example.com")

	today := "2026-10-19"
	progress := account.Progress{
		Coins: 150, Streak: 3, PointsToday: 20, GoalsCompletedToday: 1, JournalCountToday: 2,
		LastActiveDate: &today, DailyJournalAwarded: &today,
	}
	require.NoError(t, store.SaveProgress(ctx, u.ID, progress))
	require.NoError(t, store.UpdateAvatar(ctx, u.ID, 4, "https://cdn.example.com/a.png"))

	got, err := store.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, progress, got.Progress)
	assert.Equal(t, 4, got.AvatarID)
	assert.Equal(t, "https://cdn.example.com/a.png", got.AvatarURL)

	assert.ErrorIs(t, store.SaveProgress(ctx, 999, progress), account.ErrNotFound)
}

func TestGoalLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "g@example.com")
	other := createUser(t, store, "o@example.com")

	first := &goal.Goal{UserID: owner.ID, Text: "Drink water"}
	require.NoError(t, store.CreateGoal(ctx, first))
	second := &goal.Goal{UserID: owner.ID, Text: "Stretch"}
	require.NoError(t, store.CreateGoal(ctx, second))
	assert.Equal(t, goal.StatusActive, first.Status)

	done := time.Now().UTC().Truncate(time.Second)
	first.Status = goal.StatusDone
	first.Rewarded = true
	first.CompletedAt = &done
	require.NoError(t, store.UpdateGoal(ctx, first))

	got, err := store.GoalByID(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, goal.StatusDone, got.Status)
	assert.True(t, got.Rewarded)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, done.Equal(*got.CompletedAt))

	_, err = store.GoalByID(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, goal.ErrNotFound)

	list, err := store.ListGoals(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest goal first")

	empty, err := store.ListGoals(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestJournalEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, store, "j@example.com")

	r := &reflection.Reflection{
		Insight:          "It sounds like...",
		GrowthCategory:   reflection.Resilience,
		GrowthPath:       "Try setting a mini-goal: walk",
		ReflectionPrompt: "What helped?",
	}
	require.NoError(t, store.CreateEntry(ctx, &journal.Entry{UserID: u.ID, Text: "plain"}))
	require.NoError(t, store.CreateEntry(ctx, &journal.Entry{UserID: u.ID, Text: "reflected", Reflection: r}))

	entries, err := store.ListEntries(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "reflected", entries[0].Text)
	assert.Equal(t, r, entries[0].Reflection)
	assert.Nil(t, entries[1].Reflection)

	limited, err := store.ListEntries(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
