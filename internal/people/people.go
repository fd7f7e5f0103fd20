// Package people implements the teacher and student directory screens.
// Both are views over the backend's /users collection, filtered by role.
// A person's record spans two backend resources (the account and the
// role profile), so edits run as composite updates: account first, then
// profile, never the reverse, and a profile failure is reported without
// rolling the account change back.
package people

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

// teacherProfileFields are the payload keys stored on the teacher
// profile record rather than the account record.
var teacherProfileFields = []string{"department", "designation", "office"}

// studentProfileFields are the payload keys stored on the student
// profile record.
var studentProfileFields = []string{"roll_number", "program", "semester", "section"}

// Module is the people screens module: one controller per role view.
type Module struct {
	client  *backend.Client
	session *session.Manager
	prefs   *session.Prefs
	bus     module.EventBus
	logger  *zap.Logger
	config  *config.Config

	teachers *screen.Handlers[models.Teacher]
	students *screen.Handlers[models.Student]
}

// New creates the people module.
func New(client *backend.Client, sess *session.Manager, prefs *session.Prefs, bus module.EventBus) *Module {
	return &Module{client: client, session: sess, prefs: prefs, bus: bus}
}

func (m *Module) Name() string    { return "people" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger

	m.teachers = m.buildTeachers()
	m.students = m.buildStudents()
	return nil
}

func (m *Module) buildTeachers() *screen.Handlers[models.Teacher] {
	const name = "people.teachers"
	ctrl := screen.New(screen.Options[models.Teacher]{
		Name: name,
		Path: "/users",
		Facets: []screen.Facet{
			{Name: "department", Default: "all"},
		},
		Pinned:   map[string]string{"role": string(models.RoleTeacher)},
		Debounce: m.config.GetDuration("debounce"),
		Guard:    m.session.Authenticated,
		OnFilterChange: func(fs screen.FilterState) {
			if err := m.prefs.SaveFilter(context.Background(), name, fs.Search, fs.Facets); err != nil {
				m.logger.Warn("failed to remember filter", zap.Error(err))
			}
		},
		Client:   m.client,
		Notifier: event.NewNotifier(m.bus, "teachers"),
		Logger:   m.logger,
		Messages: screen.Messages{
			FetchFailed:  "Failed to load teachers",
			Created:      "Teacher added",
			CreateFailed: "Failed to add teacher",
			Updated:      "Teacher updated",
			UpdateFailed: "Failed to update teacher",
			Deleted:      "Teacher removed",
			DeleteFailed: "Failed to remove teacher",
		},
	})

	h := screen.NewHandlers(ctrl)
	h.MutateGuard = m.session.Allow(models.RoleAdmin)
	composite := screen.Composite{
		AccountPath:   func(id string) string { return "/users/" + id },
		ProfilePath:   func(id string) string { return "/teachers/" + id + "/profile" },
		ProfileFields: teacherProfileFields,
		AccountFailed: "Failed to update account details",
		ProfileFailed: "Failed to update teacher profile",
	}
	h.UpdateFn = func(ctx context.Context, id string, payload map[string]any) error {
		return ctrl.UpdateComposite(ctx, composite, id, payload)
	}
	return h
}

func (m *Module) buildStudents() *screen.Handlers[models.Student] {
	const name = "people.students"
	ctrl := screen.New(screen.Options[models.Student]{
		Name: name,
		Path: "/users",
		Facets: []screen.Facet{
			{Name: "program", Default: "all"},
			{Name: "section", Default: "all"},
		},
		Pinned:   map[string]string{"role": string(models.RoleStudent)},
		Debounce: m.config.GetDuration("debounce"),
		Guard:    m.session.Authenticated,
		OnFilterChange: func(fs screen.FilterState) {
			if err := m.prefs.SaveFilter(context.Background(), name, fs.Search, fs.Facets); err != nil {
				m.logger.Warn("failed to remember filter", zap.Error(err))
			}
		},
		Client:   m.client,
		Notifier: event.NewNotifier(m.bus, "students"),
		Logger:   m.logger,
		Messages: screen.Messages{
			FetchFailed:  "Failed to load students",
			Created:      "Student added",
			CreateFailed: "Failed to add student",
			Updated:      "Student updated",
			UpdateFailed: "Failed to update student",
			Deleted:      "Student removed",
			DeleteFailed: "Failed to remove student",
		},
	})

	h := screen.NewHandlers(ctrl)
	h.MutateGuard = m.session.Allow(models.RoleAdmin)
	composite := screen.Composite{
		AccountPath:   func(id string) string { return "/users/" + id },
		ProfilePath:   func(id string) string { return "/students/" + id + "/profile" },
		ProfileFields: studentProfileFields,
		AccountFailed: "Failed to update account details",
		ProfileFailed: "Failed to update student profile",
	}
	h.UpdateFn = func(ctx context.Context, id string, payload map[string]any) error {
		return ctrl.UpdateComposite(ctx, composite, id, payload)
	}
	return h
}

func (m *Module) Start(ctx context.Context) error {
	m.restoreFilter(ctx, "people.teachers", func(fs screen.FilterState) {
		m.teachers.Controller().SetFilter(fs)
	})
	m.restoreFilter(ctx, "people.students", func(fs screen.FilterState) {
		m.students.Controller().SetFilter(fs)
	})
	return nil
}

func (m *Module) restoreFilter(ctx context.Context, name string, apply func(screen.FilterState)) {
	search, facets, ok, err := m.prefs.Filter(ctx, name)
	if err != nil {
		m.logger.Warn("failed to restore filter", zap.String("screen", name), zap.Error(err))
		return
	}
	if ok {
		apply(screen.FilterState{Search: search, Facets: facets})
	}
}

func (m *Module) Stop() error {
	m.teachers.Controller().Close()
	m.students.Controller().Close()
	return nil
}

func (m *Module) Routes() []module.Route {
	routes := m.teachers.Routes("/teachers")
	routes = append(routes, m.students.Routes("/students")...)
	return routes
}
