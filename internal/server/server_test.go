package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/event"
	"github.com/veracampus/campushub/internal/registry"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/module"
)

type routesModule struct {
	name   string
	routes []module.Route
}

func (m *routesModule) Name() string                               { return m.name }
func (m *routesModule) Version() string                            { return "0.1.0" }
func (m *routesModule) Init(_ *config.Config, _ *zap.Logger) error { return nil }
func (m *routesModule) Start(_ context.Context) error              { return nil }
func (m *routesModule) Stop() error                                { return nil }
func (m *routesModule) Routes() []module.Route                     { return m.routes }

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func newTestServer(t *testing.T, bus module.EventBus) *Server {
	t.Helper()
	logger := zap.NewNop()
	reg := registry.New(logger)
	reg.Register(&routesModule{
		name: "courses",
		routes: []module.Route{{Method: "GET", Path: "/list", Handler: okHandler,
			Description: "Course list"}},
	})
	reg.InitAll(config.New(viper.New()))
	return New("127.0.0.1:0", reg, bus, logger)
}

func TestModuleRoutesMounted(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/api/v1/courses/list", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("body = %q, want ok payload", w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["service"] != "campushub" {
		t.Errorf("service field = %v, want campushub", body["service"])
	}
}

// healthModule reports a fixed health status.
type healthModule struct {
	routesModule
	status module.HealthStatus
}

func (m *healthModule) Health(_ context.Context) module.HealthStatus { return m.status }

func TestHealthAggregatesModuleCheckers(t *testing.T) {
	logger := zap.NewNop()
	reg := registry.New(logger)
	reg.Register(&healthModule{
		routesModule: routesModule{name: "session"},
		status:       module.HealthStatus{Healthy: true},
	})
	reg.Register(&healthModule{
		routesModule: routesModule{name: "advisor"},
		status:       module.HealthStatus{Healthy: false, Detail: "store unreachable"},
	})
	reg.Register(&routesModule{name: "courses"})
	reg.InitAll(config.New(viper.New()))
	s := New("127.0.0.1:0", reg, nil, logger)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var body struct {
		Status  string                         `json:"status"`
		Modules map[string]module.HealthStatus `json:"modules"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("status = %q, want degraded", body.Status)
	}
	if len(body.Modules) != 2 {
		t.Fatalf("modules = %v, want two checker entries", body.Modules)
	}
	if !body.Modules["session"].Healthy {
		t.Error("session should report healthy")
	}
	if m := body.Modules["advisor"]; m.Healthy || m.Detail != "store unreachable" {
		t.Errorf("advisor = %+v, want unhealthy with detail", m)
	}
}

func TestModulesList(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/api/v1/modules", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var body []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body) != 1 || body[0]["name"] != "courses" {
		t.Fatalf("modules = %v, want one 'courses' entry", body)
	}
	routes, ok := body[0]["routes"].([]any)
	if !ok || len(routes) != 1 {
		t.Fatalf("routes = %v, want one entry", body[0]["routes"])
	}
	route := routes[0].(map[string]any)
	if route["path"] != "/list" || route["description"] != "Course list" {
		t.Errorf("route = %v, want path /list with its description", route)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestEventStreamDeliversBusEvents(t *testing.T) {
	logger := zap.NewNop()
	bus := event.NewBus(logger)
	s := newTestServer(t, bus)
	defer s.stream.Close()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The client registers shortly after the handshake; republish until
	// the read side sees the first delivery.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			bus.Publish(ctx, module.Event{
				Topic:   "notify.success",
				Source:  "courses",
				Payload: map[string]any{"message": "Course created"},
			})
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	var got streamEvent
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Topic != "notify.success" || got.Source != "courses" {
		t.Fatalf("event = %+v, want notify.success from courses", got)
	}
}
