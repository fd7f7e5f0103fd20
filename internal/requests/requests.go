// Package requests implements the student request screen: transcript
// copies, leave applications and similar paperwork, submitted by students
// and decided by admins.
package requests

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/event"
	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/models"
	"github.com/veracampus/campushub/pkg/module"
)

const screenName = "requests"

// Module is the student request screen module.
type Module struct {
	client  *backend.Client
	session *session.Manager
	prefs   *session.Prefs
	bus     module.EventBus
	logger  *zap.Logger
	config  *config.Config

	handlers *screen.Handlers[models.StudentRequest]
	decide   func() bool
}

// New creates the requests module.
func New(client *backend.Client, sess *session.Manager, prefs *session.Prefs, bus module.EventBus) *Module {
	return &Module{client: client, session: sess, prefs: prefs, bus: bus}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger

	ctrl := screen.New(screen.Options[models.StudentRequest]{
		Name: screenName,
		Path: "/requests",
		Facets: []screen.Facet{
			{Name: "status", Default: "all"},
			{Name: "type", Default: "all"},
		},
		Debounce: cfg.GetDuration("debounce"),
		Guard:    m.session.Authenticated,
		OnFilterChange: func(fs screen.FilterState) {
			if err := m.prefs.SaveFilter(context.Background(), screenName, fs.Search, fs.Facets); err != nil {
				m.logger.Warn("failed to remember filter", zap.Error(err))
			}
		},
		Client:   m.client,
		Notifier: event.NewNotifier(m.bus, screenName),
		Logger:   logger,
		Messages: screen.Messages{
			FetchFailed:  "Failed to load requests",
			Created:      "Request submitted",
			CreateFailed: "Failed to submit request",
			Updated:      "Request updated",
			UpdateFailed: "Failed to update request",
			Deleted:      "Request withdrawn",
			DeleteFailed: "Failed to withdraw request",
		},
	})
	m.handlers = screen.NewHandlers(ctrl)
	// Students submit and withdraw their own requests; the backend
	// enforces ownership. Deciding is admin-only, guarded below.
	m.handlers.MutateGuard = m.session.Authenticated
	m.decide = m.session.Allow(models.RoleAdmin)
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	if search, facets, ok, err := m.prefs.Filter(ctx, screenName); err != nil {
		m.logger.Warn("failed to restore filter", zap.Error(err))
	} else if ok {
		m.handlers.Controller().SetFilter(screen.FilterState{Search: search, Facets: facets})
	}
	return nil
}

func (m *Module) Stop() error {
	m.handlers.Controller().Close()
	return nil
}

func (m *Module) Routes() []module.Route {
	routes := m.handlers.Routes("")
	routes = append(routes,
		module.Route{
			Method: "POST", Path: "/items/{id}/approve", Handler: m.decision(models.RequestStatusApproved, "Request approved", "Failed to approve request"),
			Description: "Approve a pending request",
		},
		module.Route{
			Method: "POST", Path: "/items/{id}/reject", Handler: m.decision(models.RequestStatusRejected, "Request rejected", "Failed to reject request"),
			Description: "Reject a pending request",
		},
	)
	return routes
}

// decision builds the approve/reject handler. Both are a status patch;
// the backend stamps decided_at.
func (m *Module) decision(status models.RequestStatus, success, fallback string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.decide() {
			screen.WriteError(w, http.StatusForbidden, "not permitted")
			return
		}
		id := r.PathValue("id")
		if id == "" {
			screen.WriteError(w, http.StatusBadRequest, "id is required")
			return
		}
		err := m.handlers.Controller().Do(r.Context(), success, fallback,
			func(ctx context.Context) error {
				_, err := m.client.Patch(ctx, "/requests/"+id, map[string]string{
					"status": string(status),
				})
				return err
			})
		m.handlers.Finish(w, err)
	}
}
