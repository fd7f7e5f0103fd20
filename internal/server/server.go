// Package server exposes the portal's HTTP surface: every screen
// module's routes under /api/v1/<module>, the websocket event stream,
// health, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/registry"
	"github.com/veracampus/campushub/internal/version"
	"github.com/veracampus/campushub/pkg/module"
)

// Server is the main CampusHub server.
type Server struct {
	httpServer *http.Server
	registry   *registry.Registry
	logger     *zap.Logger
	mux        *http.ServeMux
	stream     *Stream
}

// New creates a new Server instance. When bus is non-nil the websocket
// event stream is mounted at /api/v1/events.
func New(addr string, reg *registry.Registry, bus module.EventBus, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		registry: reg,
		logger:   logger,
		mux:      mux,
	}
	if bus != nil {
		s.stream = NewStream(bus, logger.Named("stream"))
	}

	s.registerCoreRoutes()
	s.mountModuleRoutes()

	return s
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/modules", s.handleModules)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	if s.stream != nil {
		s.mux.HandleFunc("GET /api/v1/events", s.stream.Handle)
	}
}

// mountModuleRoutes registers all module routes under /api/v1/{module}/.
func (s *Server) mountModuleRoutes() {
	allRoutes := s.registry.AllRoutes()
	for moduleName, routes := range allRoutes {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, moduleName, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted route",
				zap.String("module", moduleName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Handler returns the underlying mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server and the event stream.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.stream != nil {
		s.stream.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// handleHealth returns the server health status. Modules implementing
// module.HealthChecker contribute per-module status; any unhealthy one
// degrades the overall status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	moduleHealth := make(map[string]module.HealthStatus)
	for _, m := range s.registry.All() {
		if s.registry.IsDisabled(m.Name()) {
			continue
		}
		hc, ok := m.(module.HealthChecker)
		if !ok {
			continue
		}
		hs := hc.Health(r.Context())
		moduleHealth[m.Name()] = hs
		if !hs.Healthy {
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-CampusHub-Version", version.Short())
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"service": "campushub",
		"version": version.Map(),
		"modules": moduleHealth,
	})
}

// handleModules returns the list of registered modules and the routes
// they expose.
func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	modules := s.registry.All()
	type routeResponse struct {
		Method      string `json:"method"`
		Path        string `json:"path"`
		Description string `json:"description,omitempty"`
	}
	type moduleResponse struct {
		Name    string          `json:"name"`
		Version string          `json:"version"`
		Enabled bool            `json:"enabled"`
		Routes  []routeResponse `json:"routes"`
	}
	info := make([]moduleResponse, 0, len(modules))
	for _, m := range modules {
		routes := make([]routeResponse, 0, len(m.Routes()))
		for _, rt := range m.Routes() {
			routes = append(routes, routeResponse{
				Method:      rt.Method,
				Path:        rt.Path,
				Description: rt.Description,
			})
		}
		info = append(info, moduleResponse{
			Name:    m.Name(),
			Version: m.Version(),
			Enabled: !s.registry.IsDisabled(m.Name()),
			Routes:  routes,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-CampusHub-Version", version.Short())
	json.NewEncoder(w).Encode(info)
}
