package screen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/problem"
	"github.com/veracampus/campushub/pkg/module"
)

// Handlers adapts a Controller to the module route surface. Every screen
// gets the same verbs: read the snapshot, edit the filter, manage the
// selection, and run the create/update/delete orchestration.
type Handlers[T any] struct {
	ctrl *Controller[T]

	// MutateGuard additionally gates the mutating verbs. Viewing stays
	// open to any role the controller's own guard admits. Nil means the
	// controller guard alone decides.
	MutateGuard func() bool

	// UpdateFn replaces the default single-call update orchestration.
	// Screens whose records span two backend resources set this to the
	// controller's composite update.
	UpdateFn func(ctx context.Context, id string, payload map[string]any) error
}

// NewHandlers wraps a controller.
func NewHandlers[T any](ctrl *Controller[T]) *Handlers[T] {
	return &Handlers[T]{ctrl: ctrl}
}

// Routes returns the standard screen route set, with every path under
// the given prefix ("" for the module root).
func (h *Handlers[T]) Routes(prefix string) []module.Route {
	return []module.Route{
		{Method: "GET", Path: prefix + "/state", Handler: h.handleState},
		{Method: "POST", Path: prefix + "/search", Handler: h.handleSearch},
		{Method: "POST", Path: prefix + "/facets", Handler: h.handleFacet},
		{Method: "POST", Path: prefix + "/refresh", Handler: h.handleRefresh},
		{Method: "POST", Path: prefix + "/select", Handler: h.handleSelect},
		{Method: "DELETE", Path: prefix + "/select", Handler: h.handleClearSelect},
		{Method: "POST", Path: prefix + "/items", Handler: h.handleCreate},
		{Method: "PATCH", Path: prefix + "/items/{id}", Handler: h.handleUpdate},
		{Method: "DELETE", Path: prefix + "/items/{id}", Handler: h.handleDelete},
	}
}

// Controller exposes the wrapped controller to the owning module.
func (h *Handlers[T]) Controller() *Controller[T] {
	return h.ctrl
}

func (h *Handlers[T]) handleState(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *Handlers[T]) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.ctrl.SetSearch(req.Text)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers[T]) handleFacet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	h.ctrl.SetFacet(req.Name, req.Value)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers[T]) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h.ctrl.Refetch()
	WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

func (h *Handlers[T]) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	h.ctrl.Select(req.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers[T]) handleClearSelect(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.MutationAllowed() {
		WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.Finish(w, h.ctrl.Create(r.Context(), payload))
}

func (h *Handlers[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.MutationAllowed() {
		WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if h.UpdateFn != nil {
		h.Finish(w, h.UpdateFn(r.Context(), id, payload))
		return
	}
	h.Finish(w, h.ctrl.Update(r.Context(), id, payload))
}

func (h *Handlers[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.MutationAllowed() {
		WriteError(w, http.StatusForbidden, "not permitted")
		return
	}
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	h.Finish(w, h.ctrl.Remove(r.Context(), id))
}

// MutationAllowed reports whether the mutate guard admits the caller.
// Module-specific mutation routes check it the same way the generated
// ones do.
func (h *Handlers[T]) MutationAllowed() bool {
	return h.MutateGuard == nil || h.MutateGuard()
}

// Finish translates the orchestration outcome. The user-facing outcome
// already went out as a notification; the HTTP reply carries the screen
// snapshot so the view can re-render without another round trip.
func (h *Handlers[T]) Finish(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, h.ctrl.Snapshot())
	case errors.Is(err, ErrBusy):
		WriteError(w, http.StatusConflict, "another operation is in progress")
	case errors.Is(err, ErrForbidden):
		WriteError(w, http.StatusForbidden, "not permitted")
	default:
		status := backend.StatusOf(err)
		if status == 0 {
			status = http.StatusBadGateway
		}
		WriteError(w, status, backend.UserMessage(err, "The operation failed"))
	}
}

// WriteJSON writes data as a JSON response. Shared by the generated route
// set and by module-specific routes layered on top of it.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an RFC 7807 problem response for the status.
func WriteError(w http.ResponseWriter, status int, detail string) {
	problem.WriteStatus(w, status, detail)
}
