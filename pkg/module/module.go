// Package module defines the contract every CampusHub screen module
// implements, plus the shared store, migration, and event types the
// modules are wired together with.
package module

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/pkg/config"
)

// Route represents an HTTP route exposed by a module. Description is
// surfaced by the server's module listing; routes without one are still
// mounted, just undocumented there.
type Route struct {
	Method      string
	Path        string
	Handler     http.HandlerFunc
	Description string
}

// Module defines the interface that all CampusHub screen modules implement.
type Module interface {
	// Name returns the module's unique identifier (e.g., "courses", "gradebook").
	Name() string

	// Version returns the module's semantic version.
	Version() string

	// Init initializes the module with its config subtree and logger.
	Init(cfg *config.Config, logger *zap.Logger) error

	// Start begins the module's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the module.
	Stop() error

	// Routes returns the HTTP routes this module exposes to the view layer.
	Routes() []Route
}

// Migration is a single schema change applied to the local store,
// tracked per module.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// Store is the local persistence surface available to modules.
type Store interface {
	DB() *sql.DB
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Migrate(ctx context.Context, moduleName string, migrations []Migration) error
	Close() error
}

// Event is a message published on the in-process bus. The notification
// surface and the WebSocket stream both ride on these.
type Event struct {
	Topic     string
	Source    string
	Timestamp time.Time
	Payload   any
}

// EventHandler processes a single event.
type EventHandler func(ctx context.Context, e Event)

// EventBus distributes events between modules and the view stream.
type EventBus interface {
	// Publish delivers the event to all subscribers synchronously.
	Publish(ctx context.Context, event Event) error

	// PublishAsync delivers the event without blocking the caller.
	PublishAsync(ctx context.Context, event Event)

	// Subscribe registers a handler for one topic. The returned function
	// removes the subscription.
	Subscribe(topic string, handler EventHandler) func()

	// SubscribeAll registers a handler for every topic.
	SubscribeAll(handler EventHandler) func()
}
