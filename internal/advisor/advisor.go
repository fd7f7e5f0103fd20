// Package advisor implements the campus help chatbot. Replies come from
// an ordered keyword-rule table evaluated top to bottom; there is no
// model behind it and no backend call, the whole exchange stays local.
// The transcript is persisted so the conversation survives a restart.
package advisor

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/module"
)

const screenName = "advisor"

// rule maps trigger keywords to a canned reply. The first rule whose
// keyword appears in the message wins, so order the specific before
// the general.
type rule struct {
	keywords []string
	reply    string
}

var rules = []rule{
	{[]string{"fee", "invoice", "payment", "dues"},
		"Fee invoices and payment status are on the Fees screen. Overdue invoices are flagged there; contact the accounts office for payment plans."},
	{[]string{"transcript", "leave", "request"},
		"Submit transcript copies, leave applications and similar paperwork from the Requests screen. You can track the decision status there too."},
	{[]string{"timetable", "schedule", "class"},
		"Your weekly schedule is on the Timetable screen, grouped by day. Use the semester and section filters to narrow it down."},
	{[]string{"enroll", "register", "drop"},
		"Course enrollment changes go through the admin office. You can review your current enrollments on the Enrollment screen."},
	{[]string{"grade", "marks", "result", "gpa"},
		"Published results appear on your results page once your teacher finalizes marks. Marks queries go to the course teacher first."},
	{[]string{"book", "library", "borrow"},
		"Search the catalog on the Library screen. Issued books show their due date; renewals happen at the front desk."},
	{[]string{"course", "credit"},
		"The full course catalog is on the Courses screen, filterable by semester."},
	{[]string{"password", "login", "sign in"},
		"If you are locked out, ask the IT helpdesk to reset your account. Sessions expire after inactivity, signing in again is normal."},
	{[]string{"hello", "hi", "salam", "hey"},
		"Hello! Ask me about fees, timetables, enrollment, grades, the library, or student requests."},
}

const fallbackReply = "I can help with fees, timetables, enrollment, grades, the library, and student requests. Try asking about one of those, or contact the admin office."

// replyTo evaluates the rule table against one message.
func replyTo(message string) string {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.reply
			}
		}
	}
	return fallbackReply
}

// ChatMessage is one line of the persisted transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"` // "user" or "advisor"
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Module is the advisor chatbot module.
type Module struct {
	store   module.Store
	session *session.Manager
	logger  *zap.Logger
	config  *config.Config
}

// New creates the advisor module.
func New(store module.Store, sess *session.Manager) *Module {
	return &Module{store: store, session: sess}
}

func (m *Module) Name() string    { return screenName }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(cfg *config.Config, logger *zap.Logger) error {
	m.config = cfg
	m.logger = logger
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	return m.store.Migrate(ctx, screenName, migrations())
}

func (m *Module) Stop() error { return nil }

// Health reports whether the transcript store is reachable.
func (m *Module) Health(ctx context.Context) module.HealthStatus {
	if err := m.store.DB().PingContext(ctx); err != nil {
		return module.HealthStatus{Healthy: false, Detail: err.Error()}
	}
	return module.HealthStatus{Healthy: true}
}

func migrations() []module.Migration {
	return []module.Migration{
		{
			Version:     1,
			Description: "chat transcript table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS chat_messages (
						id         TEXT PRIMARY KEY,
						author     TEXT NOT NULL,
						body       TEXT NOT NULL,
						created_at TIMESTAMP NOT NULL
					)`)
				return err
			},
		},
	}
}

func (m *Module) Routes() []module.Route {
	return []module.Route{
		{Method: "POST", Path: "/chat", Handler: m.handleChat,
			Description: "Send a message to the advisor"},
		{Method: "GET", Path: "/chat", Handler: m.handleTranscript,
			Description: "Chat transcript, oldest first"},
		{Method: "DELETE", Path: "/chat", Handler: m.handleClear,
			Description: "Clear the chat transcript"},
	}
}

func (m *Module) handleChat(w http.ResponseWriter, r *http.Request) {
	if !m.session.Authenticated() {
		screen.WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Message) == "" {
		screen.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	now := time.Now().UTC()
	user := ChatMessage{ID: uuid.NewString(), Author: "user", Body: body.Message, CreatedAt: now}
	reply := ChatMessage{ID: uuid.NewString(), Author: "advisor", Body: replyTo(body.Message), CreatedAt: now}

	err := m.store.Tx(r.Context(), func(tx *sql.Tx) error {
		for _, msg := range []ChatMessage{user, reply} {
			if _, err := tx.Exec(
				`INSERT INTO chat_messages (id, author, body, created_at) VALUES (?, ?, ?, ?)`,
				msg.ID, msg.Author, msg.Body, msg.CreatedAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// The reply still goes out; persistence is best effort.
		m.logger.Warn("failed to persist chat transcript", zap.Error(err))
	}
	screen.WriteJSON(w, http.StatusOK, reply)
}

func (m *Module) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if !m.session.Authenticated() {
		screen.WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	rows, err := m.store.DB().QueryContext(r.Context(),
		`SELECT id, author, body, created_at FROM chat_messages ORDER BY rowid`)
	if err != nil {
		screen.WriteError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	defer rows.Close()

	transcript := []ChatMessage{}
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.Author, &msg.Body, &msg.CreatedAt); err != nil {
			screen.WriteError(w, http.StatusInternalServerError, "failed to load transcript")
			return
		}
		transcript = append(transcript, msg)
	}
	if err := rows.Err(); err != nil {
		screen.WriteError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	screen.WriteJSON(w, http.StatusOK, transcript)
}

func (m *Module) handleClear(w http.ResponseWriter, r *http.Request) {
	if !m.session.Authenticated() {
		screen.WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	if _, err := m.store.DB().ExecContext(r.Context(), `DELETE FROM chat_messages`); err != nil {
		screen.WriteError(w, http.StatusInternalServerError, "failed to clear transcript")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
