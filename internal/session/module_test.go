package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracampus/campushub/internal/backend"
)

type fakeLoginClient struct {
	resp []byte
	err  error
	got  any
}

func (f *fakeLoginClient) Post(_ context.Context, _ string, payload any) ([]byte, error) {
	f.got = payload
	return f.resp, f.err
}

func newTestModule(t *testing.T, client LoginClient) (*Module, *Manager) {
	t.Helper()
	s := newSessionStore(t)
	mgr := NewManager(s.DB(), nil)
	mod := New(mgr, NewPrefs(s.DB()), client, s)
	require.NoError(t, mod.Init(nil, nil))
	return mod, mgr
}

func postLogin(t *testing.T, mod *Module, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	mod.handleLogin(w, req)
	return w
}

func TestHealthReportsStore(t *testing.T) {
	mod, _ := newTestModule(t, &fakeLoginClient{})

	hs := mod.Health(context.Background())
	assert.True(t, hs.Healthy)

	bare := New(NewManager(nil, nil), nil, &fakeLoginClient{}, nil)
	require.NoError(t, bare.Init(nil, nil))
	hs = bare.Health(context.Background())
	assert.False(t, hs.Healthy)
	assert.Equal(t, "no local store", hs.Detail)
}

func TestLoginEstablishesSession(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  "u42",
		"name": "Grace Hopper",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	client := &fakeLoginClient{resp: []byte(`{"token":"` + token + `"}`)}
	mod, mgr := newTestModule(t, client)

	w := postLogin(t, mod, `{"email":"grace@example.edu","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "u42", got["user_id"])
	assert.Equal(t, "admin", got["role"])
	assert.True(t, mgr.Authenticated())
}

func TestLoginAcceptsAccessTokenField(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "u1", "role": "student"})
	client := &fakeLoginClient{resp: []byte(`{"accessToken":"` + token + `"}`)}
	mod, mgr := newTestModule(t, client)

	w := postLogin(t, mod, `{"email":"s@example.edu","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mgr.Authenticated())
}

func TestLoginPropagatesBackendMessage(t *testing.T) {
	client := &fakeLoginClient{err: &backend.Error{Status: 401, Message: "Invalid credentials"}}
	mod, mgr := newTestModule(t, client)

	w := postLogin(t, mod, `{"email":"x@example.edu","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
	assert.False(t, mgr.Authenticated())
}

func TestLoginRejectsMissingFields(t *testing.T) {
	mod, _ := newTestModule(t, &fakeLoginClient{})

	w := postLogin(t, mod, `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginMissingTokenIsBadGateway(t *testing.T) {
	client := &fakeLoginClient{resp: []byte(`{"ok":true}`)}
	mod, _ := newTestModule(t, client)

	w := postLogin(t, mod, `{"email":"a@example.edu","password":"pw"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestMeRequiresSession(t *testing.T) {
	mod, _ := newTestModule(t, &fakeLoginClient{})

	req := httptest.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	mod.handleMe(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "u1", "role": "admin"})
	client := &fakeLoginClient{resp: []byte(`{"token":"` + token + `"}`)}
	mod, mgr := newTestModule(t, client)

	postLogin(t, mod, `{"email":"a@example.edu","password":"pw"}`)
	require.True(t, mgr.Authenticated())

	req := httptest.NewRequest("POST", "/logout", nil)
	w := httptest.NewRecorder()
	mod.handleLogout(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, mgr.Authenticated())
}
