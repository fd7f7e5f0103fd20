// Package registry manages the lifecycle of the portal's screen modules:
// registration, config-gated initialization, ordered start, and reverse-
// order stop.
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/module"
)

// Registry holds the registered modules in registration order.
type Registry struct {
	mu       sync.RWMutex
	modules  map[string]module.Module
	order    []string
	disabled map[string]bool
	logger   *zap.Logger
}

// New creates an empty Registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		modules:  make(map[string]module.Module),
		disabled: make(map[string]bool),
		logger:   logger,
	}
}

// Register adds a module. Names must be unique and non-empty.
func (r *Registry) Register(m module.Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if name == "" {
		return fmt.Errorf("module has empty name")
	}
	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module %q already registered", name)
	}

	r.modules[name] = m
	r.order = append(r.order, name)
	r.logger.Info("module registered",
		zap.String("name", name),
		zap.String("version", m.Version()),
	)
	return nil
}

// InitAll initializes every enabled module with its config subtree.
// A module is enabled unless modules.<name>.enabled is explicitly false.
// Modules that implement module.Validator get their config checked
// right after Init; a validation failure aborts startup.
func (r *Registry) InitAll(cfg *config.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		m := r.modules[name]

		key := "modules." + name + ".enabled"
		if cfg.IsSet(key) && !cfg.GetBool(key) {
			r.disabled[name] = true
			r.logger.Info("module disabled, skipping", zap.String("name", name))
			continue
		}

		r.logger.Info("initializing module", zap.String("name", name))
		if err := m.Init(cfg.Sub("modules."+name), r.logger.Named(name)); err != nil {
			return fmt.Errorf("failed to initialize module %q: %w", name, err)
		}
		if v, ok := m.(module.Validator); ok {
			if err := v.ValidateConfig(); err != nil {
				return fmt.Errorf("module %q config invalid: %w", name, err)
			}
		}
	}
	return nil
}

// StartAll starts every enabled module in registration order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		r.logger.Info("starting module", zap.String("name", name))
		if err := r.modules[name].Start(ctx); err != nil {
			return fmt.Errorf("failed to start module %q: %w", name, err)
		}
	}
	return nil
}

// StopAll stops enabled modules in reverse registration order. Stop
// errors are logged, not propagated, so a bad module cannot block the
// rest of the shutdown.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if r.disabled[name] {
			continue
		}
		r.logger.Info("stopping module", zap.String("name", name))
		if err := r.modules[name].Stop(); err != nil {
			r.logger.Error("failed to stop module", zap.String("name", name), zap.Error(err))
		}
	}
}

// Get returns a module by name.
func (r *Registry) Get(name string) (module.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// IsDisabled reports whether a module was skipped by config.
func (r *Registry) IsDisabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.disabled[name]
}

// All returns the registered modules in registration order.
func (r *Registry) All() []module.Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]module.Module, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.modules[name])
	}
	return result
}

// AllRoutes returns the routes of every enabled module, keyed by module
// name. The server mounts each set under /api/v1/<name>.
func (r *Registry) AllRoutes() map[string][]module.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string][]module.Route)
	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		if mr := r.modules[name].Routes(); len(mr) > 0 {
			routes[name] = mr
		}
	}
	return routes
}
