package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, zap.NewNop(), opts...)
}

func TestGetAttachesBearerToken(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}, WithTokenSource(staticToken("tok-123")))

	_, err := c.Get(context.Background(), "/courses", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestGetNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}, WithTokenSource(staticToken("")))

	_, err := c.Get(context.Background(), "/courses", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestGetPassesQueryParams(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	})

	params := url.Values{}
	params.Set("search", "CS")
	params.Set("semester", "Fall 2024")
	_, err := c.Get(context.Background(), "/courses", params)
	require.NoError(t, err)
	assert.Equal(t, "CS", gotQuery.Get("search"))
	assert.Equal(t, "Fall 2024", gotQuery.Get("semester"))
}

func TestPostSendsJSONBody(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"c9"}`))
	})

	body, err := c.Post(context.Background(), "/courses", map[string]string{"code": "CS101"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "CS101", gotBody["code"])
	assert.JSONEq(t, `{"id":"c9"}`, string(body))
}

func TestServerErrorCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not found"}`))
	})

	_, err := c.Delete(context.Background(), "/teachers/t9")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Equal(t, "Not found", UserMessage(err, "Failed to delete teacher"))
}

func TestServerErrorWithoutMessageUsesFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`oops`))
	})

	_, err := c.Post(context.Background(), "/courses", map[string]string{})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, "Failed to create course", UserMessage(err, "Failed to create course"))
}

func TestTransportErrorIsNotBackendError(t *testing.T) {
	c := New("http://127.0.0.1:1", zap.NewNop()) // nothing listens here
	_, err := c.Get(context.Background(), "/courses", nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
	assert.Equal(t, "Network error", UserMessage(err, "Network error"))
}

func TestUnauthorizedFiresAuthExpiredHandler(t *testing.T) {
	var fired atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}, WithAuthExpiredHandler(func() { fired.Add(1) }))

	_, err := c.Get(context.Background(), "/courses", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, int32(1), fired.Load())
}

func TestOtherErrorsDoNotFireAuthExpired(t *testing.T) {
	var fired atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, WithAuthExpiredHandler(func() { fired.Add(1) }))

	_, err := c.Get(context.Background(), "/courses", nil)
	require.Error(t, err)
	assert.Equal(t, int32(0), fired.Load())
}

func TestGetListNormalizesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"c1"}]}`))
	})

	list, err := c.GetList(context.Background(), "/courses", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1"}]`, string(list))
}
