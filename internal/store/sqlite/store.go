package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ubloom/ubloom/backend/internal/model/account"
	"github.com/ubloom/ubloom/backend/internal/model/goal"
	"github.com/ubloom/ubloom/backend/internal/model/journal"
	"github.com/ubloom/ubloom/backend/internal/model/reflection"
)

// Store implements the account, goal and journal stores on one SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ account.Store = (*Store)(nil)
	_ goal.Store    = (*Store)(nil)
	_ journal.Store = (*Store)(nil)
)

// Open opens (creating if needed) the database at path without migrating it.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// New opens the database at path and applies pending migrations.
func New(path string, logger *zap.Logger) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if logger != nil {
		logger.Info("sqlite database ready", zap.String("path", path))
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser inserts user and fills in its ID and creation time.
func (s *Store) CreateUser(ctx context.Context, user *account.User) error {
	now := s.now().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, avatar_id, avatar_url, coins, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.AvatarID, user.AvatarURL, user.Progress.Coins, now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	return nil
}

const userColumns = `id, username, email, password_hash, avatar_id, avatar_url, is_premium,
	coins, streak, points_today, goals_completed_today, journal_count_today,
	last_active_date, daily_journal_awarded, created_at`

// UserByEmail looks a user up by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*account.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// UserByID looks a user up by ID.
func (s *Store) UserByID(ctx context.Context, id int64) (*account.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*account.User, error) {
	var (
		u            account.User
		lastActive   sql.NullString
		dailyJournal sql.NullString
		createdAt    int64
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AvatarID, &u.AvatarURL, &u.IsPremium,
		&u.Progress.Coins, &u.Progress.Streak, &u.Progress.PointsToday,
		&u.Progress.GoalsCompletedToday, &u.Progress.JournalCountToday,
		&lastActive, &dailyJournal, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Progress.LastActiveDate = stringPtr(lastActive)
	u.Progress.DailyJournalAwarded = stringPtr(dailyJournal)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// UpdateAvatar changes a user's avatar.
func (s *Store) UpdateAvatar(ctx context.Context, id int64, avatarID int, avatarURL string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET avatar_id = ?, avatar_url = ? WHERE id = ?`, avatarID, avatarURL, id)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	return expectOneRow(res, account.ErrNotFound)
}

// SaveProgress overwrites a user's gamification counters.
func (s *Store) SaveProgress(ctx context.Context, id int64, p account.Progress) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET coins = ?, streak = ?, points_today = ?, goals_completed_today = ?,
		 journal_count_today = ?, last_active_date = ?, daily_journal_awarded = ?
		 WHERE id = ?`,
		p.Coins, p.Streak, p.PointsToday, p.GoalsCompletedToday, p.JournalCountToday,
		nullString(p.LastActiveDate), nullString(p.DailyJournalAwarded), id,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return expectOneRow(res, account.ErrNotFound)
}

// CreateGoal inserts g and fills in its ID and creation time.
func (s *Store) CreateGoal(ctx context.Context, g *goal.Goal) error {
	if g.Status == "" {
		g.Status = goal.StatusActive
	}
	now := s.now().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, text, status, rewarded, points_awarded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Text, string(g.Status), g.Rewarded, g.PointsAwarded, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	g.ID = id
	g.CreatedAt = now
	return nil
}

const goalColumns = `id, user_id, text, status, rewarded, points_awarded, created_at, completed_at, skipped_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*goal.Goal, error) {
	var (
		g                      goal.Goal
		status                 string
		createdAt              int64
		completedAt, skippedAt sql.NullInt64
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Text, &status, &g.Rewarded, &g.PointsAwarded,
		&createdAt, &completedAt, &skippedAt); err != nil {
		return nil, err
	}
	g.Status = goal.Status(status)
	g.CreatedAt = time.Unix(createdAt, 0).UTC()
	g.CompletedAt = timePtr(completedAt)
	g.SkippedAt = timePtr(skippedAt)
	return &g, nil
}

// GoalByID returns the goal with id owned by userID.
func (s *Store) GoalByID(ctx context.Context, userID, id int64) (*goal.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan goal: %w", err)
	}
	return g, nil
}

// UpdateGoal writes the mutable fields of g.
func (s *Store) UpdateGoal(ctx context.Context, g *goal.Goal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET text = ?, status = ?, rewarded = ?, points_awarded = ?, completed_at = ?, skipped_at = ?
		 WHERE id = ? AND user_id = ?`,
		g.Text, string(g.Status), g.Rewarded, g.PointsAwarded,
		nullUnix(g.CompletedAt), nullUnix(g.SkippedAt), g.ID, g.UserID,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return expectOneRow(res, goal.ErrNotFound)
}

// ListGoals returns a user's goals, newest first.
func (s *Store) ListGoals(ctx context.Context, userID int64) ([]goal.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	goals := make([]goal.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// CreateEntry inserts e; the reflection is stored as JSON.
func (s *Store) CreateEntry(ctx context.Context, e *journal.Entry) error {
	var data sql.NullString
	if e.Reflection != nil {
		raw, err := json.Marshal(e.Reflection)
		if err != nil {
			return fmt.Errorf("encode reflection: %w", err)
		}
		data = sql.NullString{String: string(raw), Valid: true}
	}

	now := s.now().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_entries (user_id, text, reflection_data, created_at) VALUES (?, ?, ?, ?)`,
		e.UserID, e.Text, data, now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	e.ID = id
	e.CreatedAt = now
	return nil
}

// ListEntries returns up to limit entries of a user, newest first.
func (s *Store) ListEntries(ctx context.Context, userID int64, limit int) ([]journal.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text, reflection_data, created_at FROM journal_entries
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]journal.Entry, 0)
	for rows.Next() {
		var (
			e         journal.Entry
			data      sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Text, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if data.Valid && data.String != "" {
			var r reflection.Reflection
			if err := json.Unmarshal([]byte(data.String), &r); err != nil {
				return nil, fmt.Errorf("decode reflection of entry %d: %w", e.ID, err)
			}
			e.Reflection = &r
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0).UTC()
	return &t
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
