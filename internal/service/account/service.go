package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ubloom/ubloom/backend/internal/model/account"
	"github.com/ubloom/ubloom/backend/internal/model/session"
)

const (
	minPasswordLength = 6
	// bcrypt rejects longer inputs.
	maxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Sessions opens and closes sessions for signed-in users.
type Sessions interface {
	Issue(ctx context.Context, userID int64) (string, session.Session, error)
	Revoke(ctx context.Context, sessionID string) error
}

// Service implements registration, login and profile updates.
type Service struct {
	users    account.Store
	sessions Sessions
	logger   *zap.Logger
	hashCost int
}

// NewService wires the account service.
func NewService(users account.Store, sessions Sessions, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		logger:   logger.Named("account"),
		hashCost: bcrypt.DefaultCost,
	}
}

// RegisterInput is a signup request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	AvatarID int
}

// SignedIn is returned by Register and Login.
type SignedIn struct {
	Token   string
	Session session.Session
	User    *account.User
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*SignedIn, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	case !emailPattern.MatchString(email):
		return nil, fmt.Errorf("%w: email address is not valid", ErrInvalidInput)
	case len(in.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	case len(in.Password) > maxPasswordBytes:
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	avatarID := in.AvatarID
	if avatarID <= 0 {
		avatarID = account.DefaultAvatarID
	}

	user := &account.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		AvatarID:     avatarID,
		Progress:     account.Progress{Coins: account.DefaultCoins},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", zap.Int64("user_id", user.ID))
	return s.signIn(ctx, user)
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*SignedIn, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, account.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}
	return s.signIn(ctx, user)
}

func (s *Service) signIn(ctx context.Context, user *account.User) (*SignedIn, error) {
	token, sess, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &SignedIn{Token: token, Session: sess, User: user}, nil
}

// Logout ends the given session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

// Profile returns the user behind userID.
func (s *Service) Profile(ctx context.Context, userID int64) (*account.User, error) {
	return s.users.UserByID(ctx, userID)
}

// UpdateAvatar changes the avatar; nil arguments keep the current value.
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, avatarID *int, avatarURL *string) (*account.User, error) {
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if avatarID != nil {
		if *avatarID <= 0 {
			return nil, fmt.Errorf("%w: avatar_id must be positive", ErrInvalidInput)
		}
		user.AvatarID = *avatarID
	}
	if avatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*avatarURL)
	}

	if err := s.users.UpdateAvatar(ctx, userID, user.AvatarID, user.AvatarURL); err != nil {
		return nil, err
	}
	return user, nil
}

// SaveProgress stores the counters sent by the client.
func (s *Service) SaveProgress(ctx context.Context, userID int64, p account.Progress) error {
	if p.Coins < 0 || p.Streak < 0 || p.PointsToday < 0 || p.GoalsCompletedToday < 0 || p.JournalCountToday < 0 {
		return fmt.Errorf("%w: counters must not be negative", ErrInvalidInput)
	}
	return s.users.SaveProgress(ctx, userID, p)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
