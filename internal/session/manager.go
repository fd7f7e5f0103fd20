// Package session holds the signed-in portal session: the backend bearer
// token, the identity claims parsed from it, and per-user UI preferences.
// The session survives process restarts through the SQLite store and is
// dropped the moment the backend answers 401.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/veracampus/campushub/pkg/models"
)

// ErrNoSession is returned when an operation needs a signed-in user and
// there is none.
var ErrNoSession = errors.New("session: not signed in")

// Claims is the identity extracted from the backend's access token.
// The token is issued and verified by the backend; here it is only
// decoded, never re-verified, because the portal does not hold the
// signing key.
type Claims struct {
	UserID    string
	Name      string
	Role      models.Role
	ExpiresAt time.Time
}

// Expired reports whether the claims carry an exp in the past.
// A token without exp never expires locally.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Manager owns the current session. It is the token source for the
// backend client and the role source for screen guards. Safe for
// concurrent use.
type Manager struct {
	db     *sql.DB
	logger *zap.Logger

	mu     sync.RWMutex
	token  string
	claims Claims
}

// NewManager creates a Manager over an already migrated store.
func NewManager(db *sql.DB, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{db: db, logger: logger}
}

// Token implements the backend client's token source. Empty when
// signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Claims returns a copy of the current identity claims.
func (m *Manager) Claims() Claims {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claims
}

// Role returns the signed-in role, or "" when signed out.
func (m *Manager) Role() models.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claims.Role
}

// Authenticated reports whether a usable session is present.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && !m.claims.Expired(time.Now())
}

// Allow returns a guard closure that admits only the given roles.
// Screens hand this to their controllers.
func (m *Manager) Allow(roles ...models.Role) func() bool {
	return func() bool {
		if !m.Authenticated() {
			return false
		}
		current := m.Role()
		for _, r := range roles {
			if current == r {
				return true
			}
		}
		return false
	}
}

// Establish decodes the token, stores it as the current session, and
// persists it so a restart resumes signed in.
func (m *Manager) Establish(ctx context.Context, token string) (Claims, error) {
	claims, err := decodeClaims(token)
	if err != nil {
		return Claims{}, fmt.Errorf("establish session: %w", err)
	}
	if claims.Expired(time.Now()) {
		return Claims{}, fmt.Errorf("establish session: token already expired")
	}

	m.mu.Lock()
	m.token = token
	m.claims = claims
	m.mu.Unlock()

	if err := m.persist(ctx, token, claims); err != nil {
		// The in-memory session is still usable; only resume-on-restart
		// is lost.
		m.logger.Warn("failed to persist session", zap.Error(err))
	}
	return claims, nil
}

// Clear drops the session in memory and on disk. Called on sign-out and
// whenever the backend answers 401.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.token = ""
	m.claims = Claims{}
	m.mu.Unlock()

	if m.db == nil {
		return
	}
	if _, err := m.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		m.logger.Warn("failed to clear persisted session", zap.Error(err))
	}
}

// HandleAuthExpired is wired as the backend client's 401 hook.
func (m *Manager) HandleAuthExpired() {
	m.logger.Info("backend rejected credentials, signing out")
	m.Clear(context.Background())
}

// Restore loads the persisted session, discarding it when expired.
// Called once at startup after migrations.
func (m *Manager) Restore(ctx context.Context) error {
	if m.db == nil {
		return nil
	}
	var token string
	err := m.db.QueryRowContext(ctx,
		`SELECT token FROM sessions ORDER BY created_at DESC LIMIT 1`).Scan(&token)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	claims, err := decodeClaims(token)
	if err != nil || claims.Expired(time.Now()) {
		m.logger.Info("discarding stale persisted session")
		m.Clear(ctx)
		return nil
	}

	m.mu.Lock()
	m.token = token
	m.claims = claims
	m.mu.Unlock()
	m.logger.Info("session restored",
		zap.String("user_id", claims.UserID),
		zap.String("role", string(claims.Role)),
	)
	return nil
}

func (m *Manager) persist(ctx context.Context, token string, claims Claims) error {
	if m.db == nil {
		return nil
	}
	return withTx(ctx, m.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (token, user_id, role, created_at)
			VALUES (?, ?, ?, ?)`,
			token, claims.UserID, string(claims.Role), time.Now().UTC(),
		)
		return err
	})
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// decodeClaims extracts identity claims without signature verification.
// Tokens reach the portal only from the backend's login response, and
// every authorization decision is re-made server-side on each request.
func decodeClaims(token string) (Claims, error) {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("decode token: unexpected claims shape")
	}

	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.UserID = sub
	}
	if c.UserID == "" {
		if id, ok := mc["id"].(string); ok {
			c.UserID = id
		}
	}
	if name, ok := mc["name"].(string); ok {
		c.Name = name
	}
	if role, ok := mc["role"].(string); ok {
		c.Role = models.Role(role)
	}
	if !c.Role.Valid() {
		return Claims{}, fmt.Errorf("decode token: unknown role %q", c.Role)
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}
