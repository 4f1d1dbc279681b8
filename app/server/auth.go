package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:generate go run internal/schema/main.go schema.json
//go:generate moq -out mocks/sessionstore.go -pkg mocks -skip-ensure -fmt goimports . SessionStore

// defaultSessionCleanupInterval is the default interval for background cleanup of expired sessions.
const defaultSessionCleanupInterval = 1 * time.Hour

// sessionCookieNames defines cookie names for session authentication.
// __Host- prefix requires HTTPS, secure, path=/ (preferred for production).
// fallback cookie name works on HTTP for development.
var sessionCookieNames = []string{"__Host-shade-auth", "shade-auth"}

// AuthConfig represents the auth configuration file (shade-auth.yml).
type AuthConfig struct {
	Users []UserConfig `yaml:"users,omitempty" json:"users,omitempty" jsonschema:"description=users allowed to access the service"`
}

// UserConfig represents a user in the auth config file.
type UserConfig struct {
	Name     string `yaml:"name" json:"name" jsonschema:"required"`
	Password string `yaml:"password" json:"password" jsonschema:"required"` // bcrypt hash
}

// User represents an authenticated user.
type User struct {
	Name         string
	PasswordHash string
}

// LoadAuthConfig reads, validates and parses the auth YAML file.
func LoadAuthConfig(path string) (*AuthConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from CLI flag, controlled by admin
	if err != nil {
		return nil, fmt.Errorf("failed to read auth config file: %w", err)
	}

	// validate against embedded JSON schema
	if err := VerifyAuthConfig(data); err != nil {
		return nil, err
	}

	var cfg AuthConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse auth config file: %w", err)
	}

	return &cfg, nil
}

// SessionStore is the interface for persistent session storage.
// Defined consumer-side per Go idiom.
type SessionStore interface {
	CreateSession(ctx context.Context, token, username string, expiresAt time.Time) error
	GetSession(ctx context.Context, token string) (username string, expiresAt time.Time, err error)
	DeleteSession(ctx context.Context, token string) error
	DeleteSessionsByUsername(ctx context.Context, username string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Auth handles authentication for the web UI and the preference API.
type Auth struct {
	mu              sync.RWMutex    // protects users (config data)
	authFile        string          // path to auth config file for reloading
	users           map[string]User // username -> User
	sessionStore    SessionStore    // persistent session storage
	loginTTL        time.Duration
	cleanupInterval time.Duration // interval for session cleanup, defaults to 1h
}

// NewAuth creates a new Auth instance from configuration file.
// Returns nil if authFile is empty (authentication disabled).
// sessionStore is required for persistent session storage.
func NewAuth(authFile string, loginTTL time.Duration, sessionStore SessionStore) (*Auth, error) {
	if authFile == "" {
		return nil, nil //nolint:nilnil // nil auth means disabled, not an error
	}

	if sessionStore == nil {
		return nil, errors.New("session store is required")
	}

	cfg, err := LoadAuthConfig(authFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load auth config: %w", err)
	}

	users, err := parseUsers(cfg.Users)
	if err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}

	if len(users) == 0 {
		return nil, errors.New("auth config must have at least one user")
	}

	if loginTTL == 0 {
		loginTTL = 30 * 24 * time.Hour // 30 days
	}

	return &Auth{
		authFile:        authFile,
		users:           users,
		sessionStore:    sessionStore,
		loginTTL:        loginTTL,
		cleanupInterval: defaultSessionCleanupInterval,
	}, nil
}

// parseUsers converts UserConfig slice to users map.
func parseUsers(configs []UserConfig) (map[string]User, error) {
	users := make(map[string]User)

	for _, uc := range configs {
		if uc.Name == "" {
			return nil, errors.New("user name cannot be empty")
		}
		if uc.Password == "" {
			return nil, fmt.Errorf("password hash cannot be empty for user %q", uc.Name)
		}
		if _, exists := users[uc.Name]; exists {
			return nil, fmt.Errorf("duplicate user name %q", uc.Name)
		}

		users[uc.Name] = User{
			Name:         uc.Name,
			PasswordHash: uc.Password,
		}
	}

	return users, nil
}

// Enabled returns true if authentication is enabled.
func (a *Auth) Enabled() bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.users) > 0
}

// LoginTTL returns the configured login session TTL.
func (a *Auth) LoginTTL() time.Duration {
	if a == nil {
		return 30 * 24 * time.Hour // 30 days default
	}
	return a.loginTTL
}

// Reload reloads the auth configuration from the file.
// Validates new config before applying. On success, invalidates sessions only for
// users that were removed or had their password changed.
// On error, keeps the existing config and returns the error.
func (a *Auth) Reload(ctx context.Context) error {
	if a == nil {
		return errors.New("auth not enabled")
	}
	if a.authFile == "" {
		return errors.New("auth file path not set")
	}

	// capture old users state for selective session invalidation
	oldUsers := make(map[string]string) // username -> passwordHash
	a.mu.RLock()
	for name, user := range a.users {
		oldUsers[name] = user.PasswordHash
	}
	a.mu.RUnlock()

	// load and validate new config before acquiring any locks
	cfg, err := LoadAuthConfig(a.authFile)
	if err != nil {
		return fmt.Errorf("failed to load auth config: %w", err)
	}

	users, err := parseUsers(cfg.Users)
	if err != nil {
		return fmt.Errorf("failed to parse users: %w", err)
	}

	if len(users) == 0 {
		return errors.New("auth config must have at least one user")
	}

	// acquire write lock for config
	a.mu.Lock()
	a.users = users
	a.mu.Unlock()

	// selective session invalidation: only for users removed or with password changes
	var invalidated []string
	a.mu.RLock()
	for username, oldHash := range oldUsers {
		newUser, exists := a.users[username]
		if !exists || newUser.PasswordHash != oldHash {
			invalidated = append(invalidated, username)
		}
	}
	a.mu.RUnlock()

	// delete sessions outside the lock to avoid holding it during I/O
	for _, username := range invalidated {
		if err := a.sessionStore.DeleteSessionsByUsername(ctx, username); err != nil {
			log.Printf("[WARN] failed to delete sessions for user %q: %v", username, err)
		}
	}

	if len(invalidated) > 0 {
		log.Printf("[INFO] auth config reloaded from %s, invalidated sessions for: %v", a.authFile, invalidated)
	} else {
		log.Printf("[INFO] auth config reloaded from %s, no sessions invalidated", a.authFile)
	}
	return nil
}

// StartWatcher starts watching the auth config file for changes.
// When the file changes, it reloads the configuration automatically.
// The watcher stops when the context is canceled.
// Returns an error if the watcher cannot be started.
func (a *Auth) StartWatcher(ctx context.Context) error {
	if a == nil {
		return errors.New("auth not enabled")
	}
	if a.authFile == "" {
		return errors.New("auth file path not set")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// watch the directory containing the auth file (not the file itself)
	// this catches atomic renames used by editors like vim/VSCode
	dir := filepath.Dir(a.authFile)
	filename := filepath.Base(a.authFile)

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	log.Printf("[INFO] watching auth config file %s for changes", a.authFile)

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		const debounceDelay = 100 * time.Millisecond

		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				log.Printf("[INFO] auth config watcher stopped")
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// only react to events on our auth file
				if filepath.Base(event.Name) != filename {
					continue
				}

				// react to write, create, rename events
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}

				// debounce rapid changes
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					if err := a.Reload(ctx); err != nil {
						log.Printf("[WARN] failed to reload auth config: %v", err)
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[WARN] auth config watcher error: %v", err)
			}
		}
	}()

	return nil
}

// ValidateUser checks if username/password are valid and returns the user.
// Returns nil if credentials are invalid.
// Uses constant-time comparison to prevent username enumeration via timing attacks.
func (a *Auth) ValidateUser(username, password string) *User {
	if a == nil {
		return nil
	}

	// dummy hash for constant-time comparison when user doesn't exist.
	// this is a valid bcrypt hash (cost=10) to ensure comparison takes similar time.
	const dummyHash = "$2a$10$C615A0mfUEFBupj9qcqhiuBEyf60EqrsakB90CozUoSON8d2Dc1uS"

	a.mu.RLock()
	user, exists := a.users[username]
	hashToCheck := dummyHash
	if exists {
		hashToCheck = user.PasswordHash
	}
	a.mu.RUnlock()

	// always run bcrypt comparison to prevent timing-based username enumeration
	if err := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(password)); err != nil || !exists {
		return nil
	}
	return &user
}

// CreateSession generates a new session token for the given username.
func (a *Auth) CreateSession(ctx context.Context, username string) (string, error) {
	if a == nil {
		return "", errors.New("auth not enabled")
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(a.loginTTL)

	if err := a.sessionStore.CreateSession(ctx, token, username, expiresAt); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// GetSessionUser returns the username for a valid session.
// Returns empty string and false if session is invalid or expired.
// Note: expiration is checked in store.GetSession, which returns ErrNotFound for expired sessions.
func (a *Auth) GetSessionUser(ctx context.Context, token string) (string, bool) {
	if a == nil {
		return "", false
	}

	username, _, err := a.sessionStore.GetSession(ctx, token)
	if err != nil {
		return "", false
	}
	return username, true
}

// ValidateSession checks if a session token is valid and not expired.
// Note: expiration is checked in store.GetSession, which returns ErrNotFound for expired sessions.
func (a *Auth) ValidateSession(ctx context.Context, token string) bool {
	if a == nil {
		return false
	}

	_, _, err := a.sessionStore.GetSession(ctx, token)
	return err == nil
}

// InvalidateSession removes a session.
func (a *Auth) InvalidateSession(ctx context.Context, token string) {
	if a == nil {
		return
	}
	_ = a.sessionStore.DeleteSession(ctx, token)
}

// StartCleanup starts background cleanup of expired sessions.
// Runs periodically until context is canceled. Default interval is 1 hour.
func (a *Auth) StartCleanup(ctx context.Context) {
	if a == nil {
		return
	}

	interval := a.cleanupInterval
	if interval == 0 {
		interval = defaultSessionCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("[INFO] session cleanup stopped")
				return
			case <-ticker.C:
				deleted, err := a.sessionStore.DeleteExpiredSessions(ctx)
				if err != nil {
					log.Printf("[WARN] failed to cleanup expired sessions: %v", err)
					continue
				}
				if deleted > 0 {
					log.Printf("[INFO] cleaned up %d expired sessions", deleted)
				}
			}
		}
	}()

	log.Printf("[INFO] session cleanup started (interval: %s)", interval)
}

// SessionAuth returns middleware that requires a valid session cookie.
// Used for web UI routes. Redirects to loginURL if not authenticated.
func (a *Auth) SessionAuth(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// check session cookie
			for _, cookieName := range sessionCookieNames {
				if cookie, err := r.Cookie(cookieName); err == nil && a.ValidateSession(r.Context(), cookie.Value) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Redirect(w, r, loginURL, http.StatusSeeOther)
		})
	}
}

// APIAuth is middleware that requires a valid session cookie on API routes.
// Returns 401 instead of redirecting, API clients get no login page.
func (a *Auth) APIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, cookieName := range sessionCookieNames {
			if cookie, err := r.Cookie(cookieName); err == nil && a.ValidateSession(r.Context(), cookie.Value) {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// NoopAuth returns a pass-through middleware (used when auth is disabled).
func NoopAuth(next http.Handler) http.Handler {
	return next
}
