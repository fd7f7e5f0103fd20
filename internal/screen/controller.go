// Package screen implements the resource list controller behind every
// CampusHub screen: a filterable, debounced, server-synchronized list
// with modal-scoped selection and create/update/delete orchestration.
//
// Each screen module owns one Controller per resource. The controller
// never caches across fetches and never patches the list locally --
// after every successful mutation it refetches so the view always shows
// server-side truth.
package screen

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
)

// ErrBusy is returned when an operation is refused because another
// mutation on the same screen has not resolved yet.
var ErrBusy = errors.New("screen: operation already in progress")

// ErrForbidden is returned when the screen's guard rejects the viewer.
var ErrForbidden = errors.New("screen: viewer not permitted")

// Client is the slice of the backend client the controller needs.
type Client interface {
	GetList(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, payload any) ([]byte, error)
	Patch(ctx context.Context, path string, payload any) ([]byte, error)
	Delete(ctx context.Context, path string) ([]byte, error)
}

// Notifier is the fire-and-forget notification surface. Success and
// Error feed the view's toast stream.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Messages are the resource-specific fallback strings shown when the
// backend provides no message of its own.
type Messages struct {
	FetchFailed  string
	Created      string
	CreateFailed string
	Updated      string
	UpdateFailed string
	Deleted      string
	DeleteFailed string
}

// Options configures a Controller.
type Options[T any] struct {
	// Name identifies the screen in logs and notification events.
	Name string

	// Path is the backend collection path, e.g. "/courses".
	Path string

	// Facets declares the screen's filter dimensions and their
	// unfiltered sentinels.
	Facets []Facet

	// Pinned query parameters ride on every fetch, outside the user's
	// filter state (e.g. role=teacher for a role-scoped view over a
	// shared collection).
	Pinned map[string]string

	// Debounce is the quiet period before a filter change triggers a
	// fetch. Zero means the 500ms default.
	Debounce time.Duration

	// Guard is the authorization check gating every fetch and mutation.
	// Nil means always permitted.
	Guard func() bool

	// Refine optionally applies a secondary client-side filter over the
	// fetched records at snapshot time (roster and grade-entry screens).
	Refine func(items []T, fs FilterState) []T

	// LocalSearch keeps the search text out of the backend query; the
	// Refine hook applies it client-side instead. Used by screens whose
	// backend collection has no server-side search.
	LocalSearch bool

	// OnFilterChange fires after every accepted filter edit; screen
	// modules use it to remember filters across restarts.
	OnFilterChange func(fs FilterState)

	Client   Client
	Notifier Notifier
	Logger   *zap.Logger
	Messages Messages
}

// Snapshot is the state tuple a screen exposes to the view layer.
type Snapshot[T any] struct {
	Items      []T         `json:"items"`
	Loading    bool        `json:"loading"`
	Submitting bool        `json:"submitting"`
	Filter     FilterState `json:"filter"`
	Selection  string      `json:"selection,omitempty"`
}

// Controller is the screen-scoped state container: filter state, the
// last fetched list, the modal selection, and the pending flags. One
// instance per mounted screen; instances never share state.
type Controller[T any] struct {
	opts     Options[T]
	debounce time.Duration

	mu         sync.Mutex
	filter     FilterState
	items      []T
	selection  string
	loading    bool
	submitting bool
	timer      *time.Timer
	seq        uint64 // latest issued fetch sequence
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Controller with mount-time defaults: empty list, every
// facet at its sentinel, nothing selected.
func New[T any](opts Options[T]) *Controller[T] {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller[T]{
		opts:     opts,
		debounce: opts.Debounce,
		filter:   defaultFilter(opts.Facets),
		items:    []T{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close tears the screen down: the pending debounce timer is cancelled
// and in-flight fetches are abandoned.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.cancel()
}

// SetSearch updates the search text and arms the debounce timer.
func (c *Controller[T]) SetSearch(text string) {
	c.editFilter(func(fs *FilterState) { fs.Search = text })
}

// SetFacet updates one facet selection and arms the debounce timer.
func (c *Controller[T]) SetFacet(name, value string) {
	c.editFilter(func(fs *FilterState) {
		if fs.Facets == nil {
			fs.Facets = make(map[string]string)
		}
		fs.Facets[name] = value
	})
}

// SetFilter replaces the whole filter state (used when restoring a
// remembered filter) and arms the debounce timer.
func (c *Controller[T]) SetFilter(fs FilterState) {
	c.editFilter(func(dst *FilterState) { *dst = fs.clone() })
}

func (c *Controller[T]) editFilter(edit func(*FilterState)) {
	c.mu.Lock()
	edit(&c.filter)
	snapshot := c.filter.clone()
	c.mu.Unlock()

	if c.opts.OnFilterChange != nil {
		c.opts.OnFilterChange(snapshot)
	}
	c.arm()
}

// arm starts (or restarts) the debounce timer. Each filter change within
// the quiet period cancels the pending timer and re-arms it, so only the
// last state of a burst triggers a fetch. The guard gates arming; a
// change while a fetch is already in flight simply schedules the next
// fetch -- overlapping responses are resolved by sequence number.
func (c *Controller[T]) arm() {
	if !c.allowed() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if !c.allowed() {
			return
		}
		c.fetch()
	})
}

// Refetch issues an immediate fetch with the current filter state,
// bypassing the debounce window.
func (c *Controller[T]) Refetch() {
	if !c.allowed() {
		return
	}
	c.fetch()
}

// fetch issues one list request and applies the result only if no newer
// fetch has been issued since -- a slow stale response never overwrites
// a newer one.
func (c *Controller[T]) fetch() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	c.loading = true
	params := BuildQuery(c.filter, c.opts.Facets)
	if c.opts.LocalSearch {
		params.Del("search")
	}
	for k, v := range c.opts.Pinned {
		params.Set(k, v)
	}
	c.mu.Unlock()

	list, err := c.opts.Client.GetList(c.ctx, c.opts.Path, params)

	c.mu.Lock()
	if seq != c.seq || c.closed {
		// A newer fetch was issued while this one was in flight.
		c.mu.Unlock()
		return
	}
	c.loading = false
	if err != nil {
		c.items = []T{}
		c.mu.Unlock()
		c.opts.Logger.Warn("list fetch failed",
			zap.String("screen", c.opts.Name),
			zap.Error(err),
		)
		c.notifyError(backend.UserMessage(err, c.opts.Messages.FetchFailed))
		return
	}
	c.items = backend.DecodeList[T](list)
	c.mu.Unlock()
}

// Select records the entity targeted by an edit or delete modal.
// At most one entity is selected at a time.
func (c *Controller[T]) Select(id string) {
	c.mu.Lock()
	c.selection = id
	c.mu.Unlock()
}

// ClearSelection drops the selection (modal closed or cancelled).
func (c *Controller[T]) ClearSelection() {
	c.mu.Lock()
	c.selection = ""
	c.mu.Unlock()
}

// Selection returns the currently targeted entity id, or "".
func (c *Controller[T]) Selection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection
}

// Filter returns a copy of the current filter state.
func (c *Controller[T]) Filter() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.clone()
}

// Snapshot returns the state tuple the view renders from. When the
// screen declares a Refine hook, the secondary client-side filter is
// applied here, over the already-fetched records.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	snap := Snapshot[T]{
		Items:      items,
		Loading:    c.loading,
		Submitting: c.submitting,
		Filter:     c.filter.clone(),
		Selection:  c.selection,
	}
	c.mu.Unlock()

	if c.opts.Refine != nil {
		snap.Items = c.opts.Refine(snap.Items, snap.Filter)
	}
	return snap
}

// Create posts a validated payload to the collection. On success the
// view is notified, any open modal's selection is cleared, and the list
// is refetched; on failure the screen state is left untouched so the
// user can retry.
func (c *Controller[T]) Create(ctx context.Context, payload any) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if _, err := c.opts.Client.Post(ctx, c.opts.Path, payload); err != nil {
		c.notifyError(backend.UserMessage(err, c.opts.Messages.CreateFailed))
		return err
	}
	c.notifySuccess(c.opts.Messages.Created)
	c.fetch()
	return nil
}

// Update patches the selected entity. Success clears the selection and
// refetches; failure preserves the selection and the open modal.
func (c *Controller[T]) Update(ctx context.Context, id string, payload any) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if _, err := c.opts.Client.Patch(ctx, c.opts.Path+"/"+id, payload); err != nil {
		c.notifyError(backend.UserMessage(err, c.opts.Messages.UpdateFailed))
		return err
	}
	c.finishMutation(c.opts.Messages.Updated)
	return nil
}

// Remove deletes the selected entity. Same success/failure semantics
// as Update.
func (c *Controller[T]) Remove(ctx context.Context, id string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if _, err := c.opts.Client.Delete(ctx, c.opts.Path+"/"+id); err != nil {
		c.notifyError(backend.UserMessage(err, c.opts.Messages.DeleteFailed))
		return err
	}
	c.finishMutation(c.opts.Messages.Deleted)
	return nil
}

// Do runs a custom mutation (pay an invoice, issue a book, approve a
// request) under the same orchestration as the built-in CRUD: one
// submission at a time, success notifies and refetches, failure reports
// the server message or the given fallback and leaves the screen alone.
func (c *Controller[T]) Do(ctx context.Context, success, fallback string, op func(context.Context) error) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := op(ctx); err != nil {
		c.notifyError(backend.UserMessage(err, fallback))
		return err
	}
	c.finishMutation(success)
	return nil
}

// finishMutation is the shared success tail: notify, close the modal,
// and refetch server-side truth.
func (c *Controller[T]) finishMutation(msg string) {
	c.notifySuccess(msg)
	c.ClearSelection()
	c.fetch()
}

// begin flips the submitting flag on, refusing duplicate submissions
// and guarded-off viewers.
func (c *Controller[T]) begin() error {
	if !c.allowed() {
		return ErrForbidden
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrBusy
	}
	c.submitting = true
	return nil
}

// end clears the submitting flag. It runs on every exit path so the
// view never gets stuck in a disabled state.
func (c *Controller[T]) end() {
	c.mu.Lock()
	c.submitting = false
	c.mu.Unlock()
}

func (c *Controller[T]) allowed() bool {
	return c.opts.Guard == nil || c.opts.Guard()
}

func (c *Controller[T]) notifySuccess(msg string) {
	if c.opts.Notifier != nil && msg != "" {
		c.opts.Notifier.Success(msg)
	}
}

func (c *Controller[T]) notifyError(msg string) {
	if c.opts.Notifier != nil && msg != "" {
		c.opts.Notifier.Error(msg)
	}
}
