package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/module"
)

// LoginClient is the slice of the backend client the session module needs.
type LoginClient interface {
	Post(ctx context.Context, path string, payload any) ([]byte, error)
}

// Module exposes the sign-in surface: login, logout, and the current
// identity. Every other module reads the session through the Manager.
type Module struct {
	manager *Manager
	prefs   *Prefs
	client  LoginClient
	store   module.Store
	logger  *zap.Logger
	config  *config.Config
}

// New creates the session module.
func New(manager *Manager, prefs *Prefs, client LoginClient, store module.Store) *Module {
	return &Module{manager: manager, prefs: prefs, client: client, store: store}
}

func (m *Module) Name() string    { return "session" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	m.config = cfg
	m.logger = logger
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	if err := m.store.Migrate(ctx, m.Name(), Migrations()); err != nil {
		return err
	}
	return m.manager.Restore(ctx)
}

func (m *Module) Stop() error { return nil }

// Health reports whether the local store that holds the persisted
// session is reachable.
func (m *Module) Health(ctx context.Context) module.HealthStatus {
	if m.store == nil {
		return module.HealthStatus{Healthy: false, Detail: "no local store"}
	}
	if err := m.store.DB().PingContext(ctx); err != nil {
		return module.HealthStatus{Healthy: false, Detail: err.Error()}
	}
	return module.HealthStatus{Healthy: true}
}

func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "POST", Path: "/login", Handler: m.handleLogin},
		{Method: "POST", Path: "/logout", Handler: m.handleLogout},
		{Method: "GET", Path: "/me", Handler: m.handleMe},
	}
}

// Migrations returns the session module's schema migrations. Exposed so
// tests can migrate a bare store.
func Migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "session and screen preference tables",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS sessions (
						token      TEXT NOT NULL,
						user_id    TEXT NOT NULL,
						role       TEXT NOT NULL,
						created_at TIMESTAMP NOT NULL
					);
					CREATE TABLE IF NOT EXISTS screen_filters (
						screen     TEXT PRIMARY KEY,
						search     TEXT NOT NULL DEFAULT '',
						facets     TEXT NOT NULL DEFAULT '{}',
						updated_at TIMESTAMP NOT NULL
					);
				`)
				return err
			},
		},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse tolerates the token field names the backend has used
// across versions.
type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

func (lr loginResponse) token() string {
	if lr.Token != "" {
		return lr.Token
	}
	return lr.AccessToken
}

func (m *Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		screen.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		screen.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	body, err := m.client.Post(r.Context(), "/auth/login", req)
	if err != nil {
		status := backend.StatusOf(err)
		if status == 0 {
			status = http.StatusBadGateway
		}
		m.logger.Warn("login failed", zap.String("email", req.Email), zap.Error(err))
		screen.WriteError(w, status, backend.UserMessage(err, "Login failed"))
		return
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.token() == "" {
		m.logger.Warn("login response missing token")
		screen.WriteError(w, http.StatusBadGateway, "Login failed")
		return
	}

	claims, err := m.manager.Establish(r.Context(), resp.token())
	if err != nil {
		m.logger.Warn("login token rejected", zap.Error(err))
		screen.WriteError(w, http.StatusBadGateway, "Login failed")
		return
	}

	m.logger.Info("signed in",
		zap.String("user_id", claims.UserID),
		zap.String("role", string(claims.Role)),
	)
	screen.WriteJSON(w, http.StatusOK, identityPayload(claims))
}

func (m *Module) handleLogout(w http.ResponseWriter, r *http.Request) {
	m.manager.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) handleMe(w http.ResponseWriter, r *http.Request) {
	if !m.manager.Authenticated() {
		screen.WriteError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	screen.WriteJSON(w, http.StatusOK, identityPayload(m.manager.Claims()))
}

func identityPayload(c Claims) map[string]any {
	return map[string]any{
		"user_id": c.UserID,
		"name":    c.Name,
		"role":    c.Role,
	}
}
