// Package fees implements the fee invoice screen: status-filterable
// invoice list plus a record-payment action for the accounts office.
package fees

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

const screenName = "fees"

// Module is the fees screen module.
type Module struct {
	client  *backend.Client
	session *session.Manager
	prefs   *session.Prefs
	bus     module.EventBus
	logger  *zap.Logger
	config  *config.Config

	handlers *screen.Handlers[models.FeeInvoice]
}

// New creates the fees module.
func New(client *backend.Client, sess *session.Manager, prefs *session.Prefs, bus module.EventBus) *Module {
	return &Module{client: client, session: sess, prefs: prefs, bus: bus}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger

	ctrl := screen.New(screen.Options[models.FeeInvoice]{
		Name: screenName,
		Path: "/fees",
		Facets: []screen.Facet{
			{Name: "status", Default: "all"},
			{Name: "semester", Default: "all"},
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
			FetchFailed:  "Failed to load fee invoices",
			Created:      "Invoice created",
			CreateFailed: "Failed to create invoice",
			Updated:      "Invoice updated",
			UpdateFailed: "Failed to update invoice",
			Deleted:      "Invoice voided",
			DeleteFailed: "Failed to void invoice",
		},
	})
	m.handlers = screen.NewHandlers(ctrl)
	m.handlers.MutateGuard = m.session.Allow(models.RoleAdmin)
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
	routes = append(routes, module.Route{
		Method: "POST", Path: "/items/{id}/pay", Handler: m.handlePay,
		Description: "Record a payment against an invoice",
	})
	return routes
}

func (m *Module) handlePay(w http.ResponseWriter, r *http.Request) {
	if !m.handlers.MutationAllowed() {
		screen.WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		screen.WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	err := m.handlers.Controller().Do(r.Context(), "Payment recorded", "Failed to record payment",
		func(ctx context.Context) error {
			_, err := m.client.Post(ctx, "/fees/"+id+"/pay", nil)
			return err
		})
	m.handlers.Finish(w, err)
}
