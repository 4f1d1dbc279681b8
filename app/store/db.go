package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	_ "github.com/jackc/pgx/v5/stdlib" // postgresql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/umputun/shade/app/enum"
)

// Store implements preference and session storage using SQLite or PostgreSQL.
type Store struct {
	db     *sqlx.DB
	dbType enum.DBType
	mu     RWLocker
}

// New creates a new Store with the given database URL.
// Automatically detects database type from URL:
// - postgres:// or postgresql:// -> PostgreSQL
// - everything else -> SQLite
func New(dbURL string) (*Store, error) {
	dbType := detectDBType(dbURL)

	var db *sqlx.DB
	var err error
	var locker RWLocker

	switch dbType {
	case enum.DBTypePostgres:
		db, err = connectPostgres(dbURL)
		locker = noopLocker{}
	default:
		db, err = connectSQLite(dbURL)
		locker = &sync.RWMutex{}
	}

	if err != nil {
		return nil, err
	}

	s := &Store{db: db, dbType: dbType, mu: locker}

	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Printf("[DEBUG] initialized %s store", s.dbType)
	return s, nil
}

// detectDBType determines database type from URL.
func detectDBType(url string) enum.DBType {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return enum.DBTypePostgres
	}
	return enum.DBTypeSQLite
}

// connectSQLite establishes SQLite connection with pragmas.
func connectSQLite(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	// set pragmas for performance and reliability
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=1000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil { //nolint:noctx // init-time, no context available
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// limit connections for SQLite (single writer)
	db.SetMaxOpenConns(1)

	return db, nil
}

// connectPostgres establishes PostgreSQL connection.
func connectPostgres(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// set reasonable connection pool defaults
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// createSchema creates the preferences and sessions tables if they don't exist.
func (s *Store) createSchema() error {
	var schemas []string
	switch s.dbType {
	case enum.DBTypePostgres:
		schemas = []string{`
			CREATE TABLE IF NOT EXISTS preferences (
				visitor TEXT PRIMARY KEY,
				theme TEXT NOT NULL DEFAULT 'dark',
				created_at TIMESTAMP DEFAULT NOW(),
				updated_at TIMESTAMP DEFAULT NOW()
			)`, `
			CREATE TABLE IF NOT EXISTS sessions (
				token TEXT PRIMARY KEY,
				username TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT NOW(),
				expires_at TIMESTAMP NOT NULL
			)`,
		}
	default:
		schemas = []string{`
			CREATE TABLE IF NOT EXISTS preferences (
				visitor TEXT PRIMARY KEY,
				theme TEXT NOT NULL DEFAULT 'dark',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`, `
			CREATE TABLE IF NOT EXISTS sessions (
				token TEXT PRIMARY KEY,
				username TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				expires_at DATETIME NOT NULL
			)`,
		}
	}
	for _, schema := range schemas {
		if _, err := s.db.Exec(schema); err != nil { //nolint:noctx // init-time, no context available
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// migrate runs database migrations for existing installations.
// adds missing columns that were introduced in later versions.
func (s *Store) migrate() error {
	// early installs stored bare visitor/theme pairs, timestamps came
	// later with the retention sweeper
	hasUpdated, err := s.hasColumn("preferences", "updated_at")
	if err != nil {
		return fmt.Errorf("failed to check updated_at column: %w", err)
	}
	if hasUpdated {
		return nil
	}

	log.Printf("[INFO] migrating database: adding timestamp columns to preferences table")
	colType := "DATETIME"
	if s.dbType == enum.DBTypePostgres {
		colType = "TIMESTAMP"
	}
	alters := []string{
		"ALTER TABLE preferences ADD COLUMN created_at " + colType,
		"ALTER TABLE preferences ADD COLUMN updated_at " + colType,
	}
	for _, alter := range alters {
		if _, err := s.db.Exec(alter); err != nil { //nolint:noctx // init-time, no context available
			return fmt.Errorf("failed to add timestamp column: %w", err)
		}
	}

	// backfill so the retention sweeper never sees NULL timestamps
	now := time.Now().UTC()
	query := s.adoptQuery("UPDATE preferences SET created_at = ?, updated_at = ? WHERE updated_at IS NULL")
	if _, err := s.db.Exec(query, now, now); err != nil { //nolint:noctx // init-time, no context available
		return fmt.Errorf("failed to backfill timestamps: %w", err)
	}
	return nil
}

// hasColumn checks if a column exists in the given table.
func (s *Store) hasColumn(table, column string) (bool, error) {
	var query string
	switch s.dbType {
	case enum.DBTypePostgres:
		query = `SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = $1 AND column_name = $2
		)`
	default:
		// sqlite: use pragma table_info which returns (cid, name, type, notnull, dflt_value, pk)
		var columns []struct {
			CID        int            `db:"cid"`
			Name       string         `db:"name"`
			Type       string         `db:"type"`
			NotNull    int            `db:"notnull"`
			DfltValue  sql.NullString `db:"dflt_value"`
			PrimaryKey int            `db:"pk"`
		}
		if err := s.db.Select(&columns, "PRAGMA table_info("+table+")"); err != nil {
			return false, fmt.Errorf("failed to get table info: %w", err)
		}
		for _, col := range columns {
			if col.Name == column {
				return true, nil
			}
		}
		return false, nil
	}

	var exists bool
	if err := s.db.Get(&exists, query, table, column); err != nil {
		return false, fmt.Errorf("failed to check column existence: %w", err)
	}
	return exists, nil
}

// Preference retrieves the stored theme for the given visitor.
// Returns ErrNotFound if nothing is stored. Values written by unknown
// versions fail to parse and come back as errors; callers treat both
// cases as "use the default".
func (s *Store) Preference(ctx context.Context, visitor string) (enum.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	query := s.adoptQuery("SELECT theme FROM preferences WHERE visitor = ?")
	err := s.db.GetContext(ctx, &raw, query, visitor)
	if errors.Is(err, sql.ErrNoRows) {
		return enum.Theme{}, ErrNotFound
	}
	if err != nil {
		return enum.Theme{}, fmt.Errorf("failed to get preference for visitor %q: %w", visitor, err)
	}

	theme, err := enum.ParseTheme(raw)
	if err != nil {
		return enum.Theme{}, fmt.Errorf("stored preference for visitor %q is not usable: %w", visitor, err)
	}
	return theme, nil
}

// PreferenceInfo retrieves the full stored record for the given visitor,
// theme as raw text with both timestamps. Returns ErrNotFound if nothing
// is stored.
func (s *Store) PreferenceInfo(ctx context.Context, visitor string) (PrefInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var info PrefInfo
	query := s.adoptQuery("SELECT visitor, theme, created_at, updated_at FROM preferences WHERE visitor = ?")
	err := s.db.GetContext(ctx, &info, query, visitor)
	if errors.Is(err, sql.ErrNoRows) {
		return PrefInfo{}, ErrNotFound
	}
	if err != nil {
		return PrefInfo{}, fmt.Errorf("failed to get preference info for visitor %q: %w", visitor, err)
	}
	return info, nil
}

// SetPreference stores the theme for the given visitor.
// Creates a new record or updates an existing one.
func (s *Store) SetPreference(ctx context.Context, visitor string, theme enum.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	query := s.adoptQuery(`
		INSERT INTO preferences (visitor, theme, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(visitor) DO UPDATE SET theme = excluded.theme, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, visitor, theme.String(), now, now); err != nil {
		return fmt.Errorf("failed to set preference for visitor %q: %w", visitor, err)
	}
	return nil
}

// DeletePreference removes the stored preference for the given visitor.
// Returns ErrNotFound if nothing was stored.
func (s *Store) DeletePreference(ctx context.Context, visitor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.adoptQuery("DELETE FROM preferences WHERE visitor = ?")
	result, err := s.db.ExecContext(ctx, query, visitor)
	if err != nil {
		return fmt.Errorf("failed to delete preference for visitor %q: %w", visitor, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all stored preferences, ordered by updated_at descending.
func (s *Store) List(ctx context.Context) ([]PrefInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prefs []PrefInfo
	query := s.adoptQuery(`SELECT visitor, theme, created_at, updated_at FROM preferences ORDER BY updated_at DESC`)
	if err := s.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	return prefs, nil
}

// PurgeStale deletes preferences not updated for longer than olderThan.
// Returns the number of deleted records.
func (s *Store) PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	query := s.adoptQuery("DELETE FROM preferences WHERE updated_at < ?")
	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale preferences: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rows, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// adoptQuery converts SQLite query syntax to PostgreSQL:
// - placeholders: ? → $1, $2, ...
// - case: excluded. → EXCLUDED.
func (s *Store) adoptQuery(query string) string {
	if s.dbType != enum.DBTypePostgres {
		return query
	}

	// keyword mappings
	query = strings.ReplaceAll(query, "excluded.", "EXCLUDED.")

	// placeholder conversion
	result := make([]byte, 0, len(query)+10)
	paramNum := 1
	for i := range len(query) {
		if query[i] != '?' {
			result = append(result, query[i])
			continue
		}
		result = append(result, '$')
		result = append(result, strconv.Itoa(paramNum)...)
		paramNum++
	}
	return string(result)
}
