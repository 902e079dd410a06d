package account

import (
	"context"
	"errors"
	"time"
)

// DefaultCoins is the balance a new account starts with.
const DefaultCoins = 120

// DefaultAvatarID is assigned when registration does not pick an avatar.
const DefaultAvatarID = 1

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarID     int       `json:"avatar_id"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	IsPremium    bool      `json:"is_premium"`
	Progress     Progress  `json:"progress"`
	CreatedAt    time.Time `json:"created_at"`
}

// Progress holds the gamification counters the app syncs after each change.
// Dates are YYYY-MM-DD strings as kept by the client.
type Progress struct {
	Coins               int     `json:"coins"`
	Streak              int     `json:"streak"`
	PointsToday         int     `json:"pointsToday"`
	GoalsCompletedToday int     `json:"goalsCompletedToday"`
	JournalCountToday   int     `json:"journalCountToday"`
	LastActiveDate      *string `json:"lastActiveDate"`
	DailyJournalAwarded *string `json:"dailyJournalAwarded"`
}

// Store persists accounts.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id int64) (*User, error)
	UpdateAvatar(ctx context.Context, id int64, avatarID int, avatarURL string) error
	SaveProgress(ctx context.Context, id int64, progress Progress) error
}
