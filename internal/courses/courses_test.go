package courses

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/veracampus/campushub/internal/backend"
	"github.com/veracampus/campushub/internal/event"
	"github.com/veracampus/campushub/internal/screen"
	"github.com/veracampus/campushub/internal/session"
	"github.com/veracampus/campushub/internal/testutil"
	"github.com/veracampus/campushub/pkg/config"
	"github.com/veracampus/campushub/pkg/models"
)

func signIn(t *testing.T, mgr *session.Manager, role string) {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "u1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = mgr.Establish(context.Background(), signed)
	require.NoError(t, err)
}

func newTestModule(t *testing.T, role string) (*Module, *testutil.Backend, *testutil.MockBus) {
	t.Helper()
	be := testutil.NewBackend(t)
	mgr := session.NewManager(nil, nil)
	if role != "" {
		signIn(t, mgr, role)
	}

	db := testutil.NewStore(t)
	require.NoError(t, db.Migrate(context.Background(), "session", session.Migrations()))
	prefs := session.NewPrefs(db.DB())

	bus := testutil.NewMockBus()
	client := backend.New(be.URL(), zap.NewNop(), backend.WithTokenSource(mgr))

	m := New(client, mgr, prefs, bus)
	require.NoError(t, m.Init(config.New(viper.New()), zap.NewNop()))
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { m.Stop() })
	return m, be, bus
}

func TestValidateConfig(t *testing.T) {
	be := testutil.NewBackend(t)
	mgr := session.NewManager(nil, nil)
	db := testutil.NewStore(t)
	require.NoError(t, db.Migrate(context.Background(), "session", session.Migrations()))
	client := backend.New(be.URL(), zap.NewNop(), backend.WithTokenSource(mgr))

	v := viper.New()
	v.Set("debounce", "-250ms")
	m := New(client, mgr, session.NewPrefs(db.DB()), testutil.NewMockBus())
	require.NoError(t, m.Init(config.New(v), zap.NewNop()))
	assert.Error(t, m.ValidateConfig())

	m2 := New(client, mgr, session.NewPrefs(db.DB()), testutil.NewMockBus())
	require.NoError(t, m2.Init(config.New(viper.New()), zap.NewNop()))
	assert.NoError(t, m2.ValidateConfig())
}

func routeHandler(t *testing.T, m *Module, method, path string) http.HandlerFunc {
	t.Helper()
	for _, r := range m.Routes() {
		if r.Method == method && r.Path == path {
			return r.Handler
		}
	}
	t.Fatalf("route %s %s not found", method, path)
	return nil
}

func TestRefreshLoadsCourses(t *testing.T) {
	m, be, _ := newTestModule(t, "admin")
	be.Script("GET", "/courses", 200, map[string]any{
		"data": []models.Course{testutil.NewCourse()},
	})

	h := routeHandler(t, m, "POST", "/refresh")
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("POST", "/refresh", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snap screen.Snapshot[models.Course]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "CS-101", snap.Items[0].Code)
}

func TestSemesterSentinelOmitted(t *testing.T) {
	m, be, _ := newTestModule(t, "admin")
	be.Script("GET", "/courses", 200, []models.Course{})

	refresh := routeHandler(t, m, "POST", "/refresh")
	refresh(httptest.NewRecorder(), httptest.NewRequest("POST", "/refresh", nil))

	last, ok := be.LastRequest()
	require.True(t, ok)
	assert.False(t, last.Query.Has("semester"), "sentinel facet must not reach the backend")

	facet := routeHandler(t, m, "POST", "/facets")
	facet(httptest.NewRecorder(), httptest.NewRequest("POST", "/facets",
		bytes.NewBufferString(`{"name":"semester","value":"Fall 2024"}`)))
	refresh(httptest.NewRecorder(), httptest.NewRequest("POST", "/refresh", nil))

	last, _ = be.LastRequest()
	assert.Equal(t, "Fall 2024", last.Query.Get("semester"))
}

func TestCreatePublishesSuccessAndRefetches(t *testing.T) {
	m, be, bus := newTestModule(t, "admin")
	be.Script("POST", "/courses", 201, map[string]any{"id": "c9"})
	be.Script("GET", "/courses", 200, []models.Course{{ID: "c9", Code: "CS-900"}})

	h := routeHandler(t, m, "POST", "/items")
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("POST", "/items",
		bytes.NewBufferString(`{"code":"CS-900","name":"Compilers","semester":"Fall 2024"}`)))
	require.Equal(t, http.StatusOK, w.Code)

	events := bus.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, event.TopicNotifySuccess, events[0].Topic)
	assert.Equal(t, "courses", events[0].Source)

	reqs := be.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "POST", reqs[0].Method)
	assert.Equal(t, "GET", reqs[1].Method, "success must refetch the list")
}

func TestCreateFailurePublishesServerMessage(t *testing.T) {
	m, be, bus := newTestModule(t, "admin")
	be.Script("POST", "/courses", 422, map[string]any{"message": "Code already exists"})

	h := routeHandler(t, m, "POST", "/items")
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("POST", "/items", bytes.NewBufferString(`{"code":"CS-101"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	events := bus.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, event.TopicNotifyError, events[0].Topic)
	payload, ok := events[0].Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Code already exists", payload["message"])
}

func TestMutationsRequireAdmin(t *testing.T) {
	m, be, _ := newTestModule(t, "student")
	be.Script("GET", "/courses", 200, []models.Course{})

	h := routeHandler(t, m, "POST", "/items")
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("POST", "/items", bytes.NewBufferString(`{"code":"X"}`)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Viewing stays open to students.
	refresh := routeHandler(t, m, "POST", "/refresh")
	w = httptest.NewRecorder()
	refresh(w, httptest.NewRequest("POST", "/refresh", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignedOutViewerFetchesNothing(t *testing.T) {
	m, be, _ := newTestModule(t, "")
	be.Script("GET", "/courses", 200, []models.Course{})

	refresh := routeHandler(t, m, "POST", "/refresh")
	refresh(httptest.NewRecorder(), httptest.NewRequest("POST", "/refresh", nil))

	assert.Empty(t, be.Requests(), "guard must stop fetches while signed out")
}

func TestFilterRememberedAcrossRestart(t *testing.T) {
	be := testutil.NewBackend(t)
	be.Script("GET", "/courses", 200, []models.Course{})
	mgr := session.NewManager(nil, nil)
	signIn(t, mgr, "admin")

	db := testutil.NewStore(t)
	require.NoError(t, db.Migrate(context.Background(), "session", session.Migrations()))
	prefs := session.NewPrefs(db.DB())
	client := backend.New(be.URL(), zap.NewNop(), backend.WithTokenSource(mgr))

	m1 := New(client, mgr, prefs, testutil.NewMockBus())
	require.NoError(t, m1.Init(config.New(viper.New()), zap.NewNop()))
	require.NoError(t, m1.Start(context.Background()))

	facet := routeHandler(t, m1, "POST", "/facets")
	facet(httptest.NewRecorder(), httptest.NewRequest("POST", "/facets",
		bytes.NewBufferString(`{"name":"semester","value":"Spring 2025"}`)))
	m1.Stop()

	m2 := New(client, mgr, prefs, testutil.NewMockBus())
	require.NoError(t, m2.Init(config.New(viper.New()), zap.NewNop()))
	require.NoError(t, m2.Start(context.Background()))
	t.Cleanup(func() { m2.Stop() })

	got := m2.handlers.Controller().Filter()
	assert.Equal(t, "Spring 2025", got.Facets["semester"])
}
