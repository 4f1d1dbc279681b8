package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/shade/app/enum"
	"github.com/umputun/shade/app/server/mocks"
	"github.com/umputun/shade/app/store"
)

// emptyPrefStore returns a mock store with nothing persisted.
func emptyPrefStore() *mocks.PrefStoreMock {
	return &mocks.PrefStoreMock{
		PreferenceFunc: func(ctx context.Context, visitor string) (enum.Theme, error) {
			return enum.Theme{}, store.ErrNotFound
		},
		PreferenceInfoFunc: func(ctx context.Context, visitor string) (store.PrefInfo, error) {
			return store.PrefInfo{}, store.ErrNotFound
		},
	}
}

func TestServer_New(t *testing.T) {
	t.Run("auth disabled", func(t *testing.T) {
		srv, err := New(emptyPrefStore(), nil, Config{Address: ":8080", ReadTimeout: 5 * time.Second, Version: "test"})
		require.NoError(t, err)
		assert.False(t, srv.auth.Enabled())
	})

	t.Run("auth enabled", func(t *testing.T) {
		authFile := createTestAuthFile(t)
		srv, err := New(emptyPrefStore(), testSessionStore(t), Config{Address: ":8080", AuthFile: authFile})
		require.NoError(t, err)
		assert.True(t, srv.auth.Enabled())
	})

	t.Run("missing auth file", func(t *testing.T) {
		_, err := New(emptyPrefStore(), testSessionStore(t), Config{Address: ":8080", AuthFile: "/nonexistent/auth.yml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize auth")
	})
}

func TestServer_Ping(t *testing.T) {
	srv, err := New(emptyPrefStore(), nil, Config{Address: ":8080", ReadTimeout: 5 * time.Second, Version: "test"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_AppInfoHeader(t *testing.T) {
	srv, err := New(emptyPrefStore(), nil, Config{Address: ":8080", Version: "v1.2.3"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	assert.Equal(t, "shade", rec.Header().Get("App-Name"))
	assert.Equal(t, "v1.2.3", rec.Header().Get("App-Version"))
}

func TestServer_Defaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		body int64
		rps  int64
		logc int64
	}{
		{name: "all defaults", cfg: Config{}, body: 64 * 1024, rps: 100, logc: 5},
		{name: "configured values", cfg: Config{BodySizeLimit: 1024, RequestsPerSec: 10, LoginConcurrency: 2}, body: 1024, rps: 10, logc: 2},
		{name: "negative values fall back", cfg: Config{BodySizeLimit: -1, RequestsPerSec: -1, LoginConcurrency: -1}, body: 64 * 1024, rps: 100, logc: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := &Server{cfg: tc.cfg}
			assert.Equal(t, tc.body, srv.bodySizeLimit())
			assert.Equal(t, tc.rps, srv.requestsPerSec())
			assert.Equal(t, tc.logc, srv.loginConcurrency())
		})
	}
}

func TestServer_URL(t *testing.T) {
	tests := []struct {
		name       string
		baseURL    string
		path       string
		expected   string
		cookiePath string
	}{
		{name: "no base url", baseURL: "", path: "/login", expected: "/login", cookiePath: "/"},
		{name: "with base url", baseURL: "/shade", path: "/login", expected: "/shade/login", cookiePath: "/shade/"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := &Server{baseURL: tc.baseURL}
			assert.Equal(t, tc.expected, srv.url(tc.path))
			assert.Equal(t, tc.cookiePath, srv.cookiePath())
		})
	}
}

func TestServer_Handler_BaseURL(t *testing.T) {
	srv, err := New(emptyPrefStore(), nil, Config{Address: ":8080", BaseURL: "/shade", Version: "test"})
	require.NoError(t, err)
	handler := srv.handler()

	t.Run("redirects base to base with slash", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/shade", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "/shade/", rec.Header().Get("Location"))
	})

	t.Run("serves routes under base url", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/shade/ping", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("outside base url not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Handler_NoBaseURL(t *testing.T) {
	srv, err := New(emptyPrefStore(), nil, Config{Address: ":8080", Version: "test"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	rec := httptest.NewRecorder()
	srv.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_StaticFiles(t *testing.T) {
	srv, err := New(emptyPrefStore(), nil, Config{Address: ":8080", Version: "test"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/static/style.css", http.NoBody)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "light-mode")
}
