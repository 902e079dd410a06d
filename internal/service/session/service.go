package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ubloom/ubloom/backend/internal/config"
	"github.com/ubloom/ubloom/backend/internal/model/session"
)

var (
	ErrInvalidToken    = errors.New("invalid session token")
	ErrSessionNotFound = errors.New("session not found")
	ErrSecretRequired  = errors.New("session secret is required")
)

// Claims are carried in every session token.
type Claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// Service issues and validates session tokens. Sessions live in memory, so a
// restart signs every device out.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]session.Session

	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewService creates the session registry.
func NewService(cfg config.AuthConfig) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrSecretRequired
	}
	ttl := cfg.Expire
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		sessions: make(map[string]session.Session),
		secret:   []byte(cfg.Secret),
		ttl:      ttl,
		issuer:   cfg.Issuer,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue opens a session for userID and returns its signed token.
func (s *Service) Issue(_ context.Context, userID int64) (string, session.Session, error) {
	now := s.now()
	sess := session.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", session.Session{}, fmt.Errorf("sign session token: %w", err)
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return token, sess, nil
}

// Authenticate validates a token and returns the live session it names.
func (s *Service) Authenticate(_ context.Context, token string) (session.Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return session.Session{}, ErrInvalidToken
	}

	s.mu.RLock()
	sess, ok := s.sessions[claims.ID]
	s.mu.RUnlock()
	if !ok || sess.UserID != claims.UserID {
		return session.Session{}, ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		return session.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Revoke ends a session.
func (s *Service) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// TTL is the lifetime of newly issued sessions.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) pruneLocked(now time.Time) {
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
		}
	}
}
