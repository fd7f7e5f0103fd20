// Package courses implements the course catalog screen: a searchable,
// semester-filterable course list with admin-only create/update/delete.
package courses

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/event"
	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/models"
	"github.com/veracampus/campushub/pkg/module"
)

const screenName = "courses"

// Module is the courses screen module.
type Module struct {
	client  *backend.Client
	session *session.Manager
	prefs   *session.Prefs
	bus     module.EventBus
	logger  *zap.Logger
	config  *config.Config

	handlers *screen.Handlers[models.Course]
}

// New creates the courses module.
func New(client *backend.Client, sess *session.Manager, prefs *session.Prefs, bus module.EventBus) *Module {
	return &Module{client: client, session: sess, prefs: prefs, bus: bus}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger

	ctrl := screen.New(screen.Options[models.Course]{
		Name: screenName,
		Path: "/courses",
		Facets: []screen.Facet{
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
			FetchFailed:  "Failed to load courses",
			Created:      "Course created",
			CreateFailed: "Failed to create course",
			Updated:      "Course updated",
			UpdateFailed: "Failed to update course",
			Deleted:      "Course deleted",
			DeleteFailed: "Failed to delete course",
		},
	})
	m.handlers = screen.NewHandlers(ctrl)
	m.handlers.MutateGuard = m.session.Allow(models.RoleAdmin)
	return nil
}

// ValidateConfig rejects a negative debounce; that can only be a typo
// in the config file, so fail startup instead of silently defaulting.
func (m *Module) ValidateConfig() error {
	if m.config.GetDuration("debounce") < 0 {
		return errors.New("debounce must not be negative")
	}
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
	return m.handlers.Routes("")
}
