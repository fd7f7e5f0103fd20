// Package dashboard implements the landing-page summary widgets. Each
// widget's count is fetched concurrently; a failing branch degrades that
// widget to zero instead of failing the whole summary.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/module"
)

const screenName = "dashboard"

// Summary is the widget payload for the landing page.
type Summary struct {
	Courses         int `json:"courses"`
	Teachers        int `json:"teachers"`
	Students        int `json:"students"`
	FeesDue         int `json:"fees_due"`
	PendingRequests int `json:"pending_requests"`
}

// Module is the dashboard module.
type Module struct {
	client  *backend.Client
	session *session.Manager
	logger  *zap.Logger
	config  *config.Config
}

// New creates the dashboard module.
func New(client *backend.Client, sess *session.Manager) *Module {
	return &Module{client: client, session: sess}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger
	return nil
}

func (m *Module) Start(ctx context.Context) error { return nil }
func (m *Module) Stop() error                     { return nil }

func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "GET", Path: "/summary", Handler: m.handleSummary,
			Description: "Landing-page widget counts"},
	}
}

func (m *Module) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !m.session.Authenticated() {
		screen.WriteError(w, http.StatusForbidden, "not permitted")
		return
	}

	var (
		wg  sync.WaitGroup
		sum Summary
	)
	fetch := func(dst *int, path string, params url.Values) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dst = m.count(r.Context(), path, params)
		}()
	}
	fetch(&sum.Courses, "/courses", nil)
	fetch(&sum.Teachers, "/users", url.Values{"role": {"teacher"}})
	fetch(&sum.Students, "/users", url.Values{"role": {"student"}})
	fetch(&sum.FeesDue, "/fees", url.Values{"status": {"pending"}})
	fetch(&sum.PendingRequests, "/requests", url.Values{"status": {"pending"}})
	wg.Wait()

	screen.WriteJSON(w, http.StatusOK, sum)
}

// count returns the number of items behind a list endpoint, or zero when
// the branch fails. The widget shows 0 rather than taking down the page.
func (m *Module) count(ctx context.Context, path string, params url.Values) int {
	if params == nil {
		params = url.Values{}
	}
	raw, err := m.client.GetList(ctx, path, params)
	if err != nil {
		m.logger.Warn("dashboard widget degraded",
			zap.String("path", path), zap.Error(err))
		return 0
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0
	}
	return len(items)
}
