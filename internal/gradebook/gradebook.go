// Package gradebook implements the marks-entry screen for teachers.
// Unlike the open list screens, viewing is restricted too: students get
// their results through the backend's own transcript endpoint, not here.
package gradebook

import (
	"context"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/event"
	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/models"
	"github.com/veracampus/campushub/pkg/module"
)

const screenName = "gradebook"

// Module is the gradebook screen module.
type Module struct {
	client  *backend.Client
	session *session.Manager
	prefs   *session.Prefs
	bus     module.EventBus
	logger  *zap.Logger
	config  *config.Config

	handlers *screen.Handlers[models.Result]
}

// New creates the gradebook module.
func New(client *backend.Client, sess *session.Manager, prefs *session.Prefs, bus module.EventBus) *Module {
	return &Module{client: client, session: sess, prefs: prefs, bus: bus}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger

	staff := m.session.Allow(models.RoleTeacher, models.RoleAdmin)
	ctrl := screen.New(screen.Options[models.Result]{
		Name: screenName,
		Path: "/results",
		Facets: []screen.Facet{
			{Name: "course", Default: "all"},
			{Name: "semester", Default: "all"},
		},
		Debounce:    cfg.GetDuration("debounce"),
		Guard:       staff,
		LocalSearch: true,
		Refine: func(items []models.Result, fs screen.FilterState) []models.Result {
			if fs.Search == "" {
				return items
			}
			out := items[:0:0]
			for _, r := range items {
				if screen.ContainsFold(fs.Search, r.StudentName, r.RollNumber, r.CourseCode) {
					out = append(out, r)
				}
			}
			return out
		},
		OnFilterChange: func(fs screen.FilterState) {
			if err := m.prefs.SaveFilter(context.Background(), screenName, fs.Search, fs.Facets); err != nil {
				m.logger.Warn("failed to remember filter", zap.Error(err))
			}
		},
		Client:   m.client,
		Notifier: event.NewNotifier(m.bus, screenName),
		Logger:   logger,
		Messages: screen.Messages{
			FetchFailed:  "Failed to load results",
			Created:      "Result recorded",
			CreateFailed: "Failed to record result",
			Updated:      "Marks saved",
			UpdateFailed: "Failed to save marks",
			Deleted:      "Result removed",
			DeleteFailed: "Failed to remove result",
		},
	})
	m.handlers = screen.NewHandlers(ctrl)
	m.handlers.MutateGuard = staff
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
