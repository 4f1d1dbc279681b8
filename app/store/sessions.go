package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateSession stores a new session token for the given username.
func (s *Store) CreateSession(ctx context.Context, token, username string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	query := s.adoptQuery("INSERT INTO sessions (token, username, created_at, expires_at) VALUES (?, ?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, query, token, username, now, expiresAt.UTC()); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession returns the username and expiry for a session token.
// Expired sessions are reported as ErrNotFound.
func (s *Store) GetSession(ctx context.Context, token string) (username string, expiresAt time.Time, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row struct {
		Username  string    `db:"username"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	query := s.adoptQuery("SELECT username, expires_at FROM sessions WHERE token = ? AND expires_at > ?")
	err = s.db.GetContext(ctx, &row, query, token, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get session: %w", err)
	}
	return row.Username, row.ExpiresAt, nil
}

// DeleteSession removes a session token.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.adoptQuery("DELETE FROM sessions WHERE token = ?")
	if _, err := s.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteSessionsByUsername removes all sessions for the given username,
// used when a user is removed or the password changes.
func (s *Store) DeleteSessionsByUsername(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.adoptQuery("DELETE FROM sessions WHERE username = ?")
	if _, err := s.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("failed to delete sessions for user %q: %w", username, err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
// Returns the number of deleted records.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.adoptQuery("DELETE FROM sessions WHERE expires_at <= ?")
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rows, nil
}
