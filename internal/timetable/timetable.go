// Package timetable implements the class schedule screen. Entries come
// back flat from the backend; the week view groups them by day for display.
package timetable

import (
	"context"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/event"
	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/models"
	"github.com/veracampus/campushub/pkg/module"
)

const screenName = "timetable"

// weekdays fixes the display order; the backend sends day names as-is.
var weekdays = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Module is the timetable screen module.
type Module struct {
	client  *backend.Client
	session *session.Manager
	prefs   *session.Prefs
	bus     module.EventBus
	logger  *zap.Logger
	config  *config.Config

	handlers *screen.Handlers[models.TimetableEntry]
}

// New creates the timetable module.
func New(client *backend.Client, sess *session.Manager, prefs *session.Prefs, bus module.EventBus) *Module {
	return &Module{client: client, session: sess, prefs: prefs, bus: bus}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger

	ctrl := screen.New(screen.Options[models.TimetableEntry]{
		Name: screenName,
		Path: "/timetable",
		Facets: []screen.Facet{
			{Name: "semester", Default: "all"},
			{Name: "section", Default: "all"},
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
			FetchFailed:  "Failed to load timetable",
			Created:      "Class scheduled",
			CreateFailed: "Failed to schedule class",
			Updated:      "Schedule updated",
			UpdateFailed: "Failed to update schedule",
			Deleted:      "Class removed from schedule",
			DeleteFailed: "Failed to remove class",
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
		Method: "GET", Path: "/week", Handler: m.handleWeek,
		Description: "Timetable entries grouped by weekday",
	})
	return routes
}

// WeekDay is one day's slice of the grouped week view.
type WeekDay struct {
	Day     string                  `json:"day"`
	Entries []models.TimetableEntry `json:"entries"`
}

func (m *Module) handleWeek(w http.ResponseWriter, r *http.Request) {
	snap := m.handlers.Controller().Snapshot()

	byDay := make(map[string][]models.TimetableEntry, len(weekdays))
	for _, e := range snap.Items {
		byDay[e.Day] = append(byDay[e.Day], e)
	}

	week := make([]WeekDay, 0, len(weekdays))
	for _, day := range weekdays {
		entries := byDay[day]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].StartTime < entries[j].StartTime
		})
		week = append(week, WeekDay{Day: day, Entries: entries})
	}
	screen.WriteJSON(w, http.StatusOK, week)
}
