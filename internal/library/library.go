// Package library implements the library screen: the searchable book
// catalog plus issue/return loan actions layered on top of it.
package library

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/event"
	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/models"
	"github.com/veracampus/campushub/pkg/module"
)

const screenName = "library"

// Module is the library screen module.
type Module struct {
	client  *backend.Client
	session *session.Manager
	prefs   *session.Prefs
	bus     module.EventBus
	logger  *zap.Logger
	config  *config.Config

	handlers *screen.Handlers[models.LibraryBook]
}

// New creates the library module.
func New(client *backend.Client, sess *session.Manager, prefs *session.Prefs, bus module.EventBus) *Module {
	return &Module{client: client, session: sess, prefs: prefs, bus: bus}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger

	ctrl := screen.New(screen.Options[models.LibraryBook]{
		Name: screenName,
		Path: "/library/books",
		Facets: []screen.Facet{
			{Name: "availability", Default: "all"},
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
			FetchFailed:  "Failed to load book catalog",
			Created:      "Book added to catalog",
			CreateFailed: "Failed to add book",
			Updated:      "Book updated",
			UpdateFailed: "Failed to update book",
			Deleted:      "Book removed from catalog",
			DeleteFailed: "Failed to remove book",
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
	routes = append(routes,
		module.Route{
			Method: "GET", Path: "/loans", Handler: m.handleLoans,
			Description: "Active book loans",
		},
		module.Route{
			Method: "POST", Path: "/items/{id}/issue", Handler: m.handleIssue,
			Description: "Issue a book to a user",
		},
		module.Route{
			Method: "POST", Path: "/loans/{id}/return", Handler: m.handleReturn,
			Description: "Mark a loan as returned",
		},
	)
	return routes
}

// handleLoans proxies the loan ledger straight through; loans are not a
// list screen of their own, the catalog view shows them inline.
func (m *Module) handleLoans(w http.ResponseWriter, r *http.Request) {
	if !m.session.Authenticated() {
		screen.WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	raw, err := m.client.GetList(r.Context(), "/library/loans", url.Values{})
	if err != nil {
		status := backend.StatusOf(err)
		if status == 0 {
			status = http.StatusBadGateway
		}
		screen.WriteError(w, status, backend.UserMessage(err, "Failed to load loans"))
		return
	}
	var loans []models.BookLoan
	if err := json.Unmarshal(raw, &loans); err != nil {
		loans = nil
	}
	screen.WriteJSON(w, http.StatusOK, loans)
}

func (m *Module) handleIssue(w http.ResponseWriter, r *http.Request) {
	if !m.handlers.MutationAllowed() {
		screen.WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	bookID := r.PathValue("id")
	if bookID == "" {
		screen.WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		screen.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	err := m.handlers.Controller().Do(r.Context(), "Book issued", "Failed to issue book",
		func(ctx context.Context) error {
			_, err := m.client.Post(ctx, "/library/loans", map[string]string{
				"book_id": bookID,
				"user_id": body.UserID,
			})
			return err
		})
	m.handlers.Finish(w, err)
}

func (m *Module) handleReturn(w http.ResponseWriter, r *http.Request) {
	if !m.handlers.MutationAllowed() {
		screen.WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	loanID := r.PathValue("id")
	if loanID == "" {
		screen.WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	err := m.handlers.Controller().Do(r.Context(), "Book returned", "Failed to return book",
		func(ctx context.Context) error {
			_, err := m.client.Post(ctx, "/library/loans/"+loanID+"/return", nil)
			return err
		})
	m.handlers.Finish(w, err)
}
