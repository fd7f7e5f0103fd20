// Package enrollment implements the enrollment roster screen. Course and
// section narrowing happens on the backend; the free-text search is applied
// locally over the already-fetched roster, since the enrollments endpoint
// does not support a search parameter.
package enrollment

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

const screenName = "enrollment"

// Module is the enrollment screen module.
type Module struct {
	client  *backend.Client
	session *session.Manager
	prefs   *session.Prefs
	bus     module.EventBus
	logger  *zap.Logger
	config  *config.Config

	handlers *screen.Handlers[models.Enrollment]
}

// New creates the enrollment module.
func New(client *backend.Client, sess *session.Manager, prefs *session.Prefs, bus module.EventBus) *Module {
	return &Module{client: client, session: sess, prefs: prefs, bus: bus}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger

	ctrl := screen.New(screen.Options[models.Enrollment]{
		Name: screenName,
		Path: "/enrollments",
		Facets: []screen.Facet{
			{Name: "course", Default: "all"},
			{Name: "section", Default: "all"},
		},
		Debounce:    cfg.GetDuration("debounce"),
		Guard:       m.session.Authenticated,
		LocalSearch: true,
		Refine: func(items []models.Enrollment, fs screen.FilterState) []models.Enrollment {
			if fs.Search == "" {
				return items
			}
			out := items[:0:0]
			for _, e := range items {
				if screen.ContainsFold(fs.Search, e.StudentName, e.CourseCode, e.RollNumber) {
					out = append(out, e)
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
			FetchFailed:  "Failed to load enrollments",
			Created:      "Student enrolled",
			CreateFailed: "Failed to enroll student",
			Updated:      "Enrollment updated",
			UpdateFailed: "Failed to update enrollment",
			Deleted:      "Student unenrolled",
			DeleteFailed: "Failed to unenroll student",
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
	return m.handlers.Routes("")
}
