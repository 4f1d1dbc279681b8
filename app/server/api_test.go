package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/shade/app/enum"
	"github.com/umputun/shade/app/server/mocks"
	"github.com/umputun/shade/app/store"
)

func TestServer_APIGetPreference(t *testing.T) {
	t.Run("nothing stored returns default", func(t *testing.T) {
		srv, err := New(emptyPrefStore(), nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/preference", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp preferenceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "dark", resp.Theme)
		assert.False(t, resp.Stored)
		assert.Nil(t, resp.UpdatedAt)
	})

	t.Run("stored preference", func(t *testing.T) {
		now := time.Now().UTC()
		st := &mocks.PrefStoreMock{
			PreferenceInfoFunc: func(ctx context.Context, visitor string) (store.PrefInfo, error) {
				return store.PrefInfo{Visitor: visitor, Theme: "light", CreatedAt: now, UpdatedAt: now}, nil
			},
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/preference", http.NoBody)
		req.AddCookie(&http.Cookie{Name: "shade-visitor", Value: testVisitor})
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp preferenceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "light", resp.Theme)
		assert.True(t, resp.Stored)
		require.NotNil(t, resp.UpdatedAt)
		assert.Equal(t, now.Unix(), resp.UpdatedAt.Unix())
	})

	t.Run("stored garbage collapses to default", func(t *testing.T) {
		st := &mocks.PrefStoreMock{
			PreferenceInfoFunc: func(ctx context.Context, visitor string) (store.PrefInfo, error) {
				return store.PrefInfo{Visitor: visitor, Theme: "sepia", UpdatedAt: time.Now()}, nil
			},
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/preference", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp preferenceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "dark", resp.Theme)
		assert.True(t, resp.Stored)
	})

	t.Run("store failure returns 500", func(t *testing.T) {
		st := &mocks.PrefStoreMock{
			PreferenceInfoFunc: func(ctx context.Context, visitor string) (store.PrefInfo, error) {
				return store.PrefInfo{}, errors.New("db gone")
			},
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/preference", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestServer_APISetPreference(t *testing.T) {
	t.Run("valid theme", func(t *testing.T) {
		st := &mocks.PrefStoreMock{
			SetPreferenceFunc: func(ctx context.Context, visitor string, theme enum.Theme) error { return nil },
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/preference", strings.NewReader(`{"theme":"light"}`))
		req.AddCookie(&http.Cookie{Name: "shade-visitor", Value: testVisitor})
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp preferenceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "light", resp.Theme)
		assert.True(t, resp.Stored)

		require.Len(t, st.SetPreferenceCalls(), 1)
		assert.Equal(t, testVisitor, st.SetPreferenceCalls()[0].Visitor)
		assert.Equal(t, enum.ThemeLight, st.SetPreferenceCalls()[0].Theme)
	})

	t.Run("invalid theme rejected", func(t *testing.T) {
		st := &mocks.PrefStoreMock{}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/preference", strings.NewReader(`{"theme":"sepia"}`))
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, st.SetPreferenceCalls())
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		srv, err := New(&mocks.PrefStoreMock{}, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/preference", strings.NewReader("not json"))
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure returns 500", func(t *testing.T) {
		st := &mocks.PrefStoreMock{
			SetPreferenceFunc: func(ctx context.Context, visitor string, theme enum.Theme) error {
				return errors.New("db gone")
			},
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/preference", strings.NewReader(`{"theme":"dark"}`))
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestServer_APITogglePreference(t *testing.T) {
	t.Run("flips default to light", func(t *testing.T) {
		st := emptyPrefStore()
		st.SetPreferenceFunc = func(ctx context.Context, visitor string, theme enum.Theme) error { return nil }
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/preference/toggle", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp preferenceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "light", resp.Theme)
		assert.True(t, resp.Stored)

		require.Len(t, st.SetPreferenceCalls(), 1)
		assert.Equal(t, enum.ThemeLight, st.SetPreferenceCalls()[0].Theme)
	})

	t.Run("flips stored light to dark", func(t *testing.T) {
		st := &mocks.PrefStoreMock{
			PreferenceFunc: func(ctx context.Context, visitor string) (enum.Theme, error) {
				return enum.ThemeLight, nil
			},
			SetPreferenceFunc: func(ctx context.Context, visitor string, theme enum.Theme) error { return nil },
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/preference/toggle", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp preferenceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "dark", resp.Theme)
	})

	t.Run("persist failure returns 500", func(t *testing.T) {
		st := emptyPrefStore()
		st.SetPreferenceFunc = func(ctx context.Context, visitor string, theme enum.Theme) error {
			return errors.New("disk full")
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/preference/toggle", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestServer_APIDeletePreference(t *testing.T) {
	t.Run("deletes stored preference", func(t *testing.T) {
		st := &mocks.PrefStoreMock{
			DeletePreferenceFunc: func(ctx context.Context, visitor string) error { return nil },
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/preference", http.NoBody)
		req.AddCookie(&http.Cookie{Name: "shade-visitor", Value: testVisitor})
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.Len(t, st.DeletePreferenceCalls(), 1)
		assert.Equal(t, testVisitor, st.DeletePreferenceCalls()[0].Visitor)
	})

	t.Run("nothing stored returns 404", func(t *testing.T) {
		st := &mocks.PrefStoreMock{
			DeletePreferenceFunc: func(ctx context.Context, visitor string) error { return store.ErrNotFound },
		}
		srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/preference", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_APIListPreferences(t *testing.T) {
	now := time.Now().UTC()
	st := &mocks.PrefStoreMock{
		ListFunc: func(ctx context.Context) ([]store.PrefInfo, error) {
			return []store.PrefInfo{
				{Visitor: "v1", Theme: "dark", CreatedAt: now, UpdatedAt: now},
				{Visitor: "v2", Theme: "light", CreatedAt: now, UpdatedAt: now},
			}, nil
		},
	}
	srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preferences", http.NoBody)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.PrefInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "v1", list[0].Visitor)
	assert.Equal(t, "light", list[1].Theme)
}

func TestServer_APIFlow(t *testing.T) {
	// full loop against a real store
	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv, err := New(st, nil, Config{Address: ":8080", Version: "test"})
	require.NoError(t, err)

	cookie := &http.Cookie{Name: "shade-visitor", Value: testVisitor}
	do := func(method, path string, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, http.NoBody)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)
		return rec
	}

	// nothing stored yet
	rec := do(http.MethodGet, "/api/v1/preference", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp preferenceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dark", resp.Theme)
	assert.False(t, resp.Stored)

	// set light
	rec = do(http.MethodPut, "/api/v1/preference", `{"theme":"light"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// read back
	rec = do(http.MethodGet, "/api/v1/preference", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "light", resp.Theme)
	assert.True(t, resp.Stored)
	assert.NotNil(t, resp.UpdatedAt)

	// toggle flips to dark
	rec = do(http.MethodPost, "/api/v1/preference/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dark", resp.Theme)

	// delete
	rec = do(http.MethodDelete, "/api/v1/preference", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	// back to default
	rec = do(http.MethodGet, "/api/v1/preference", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dark", resp.Theme)
	assert.False(t, resp.Stored)

	// second delete has nothing to remove
	rec = do(http.MethodDelete, "/api/v1/preference", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_APIAuthRequired(t *testing.T) {
	authFile := createTestAuthFile(t)
	srv, err := New(emptyPrefStore(), testSessionStore(t), Config{Address: ":8080", AuthFile: authFile, Version: "test"})
	require.NoError(t, err)

	t.Run("401 without session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/preference", http.NoBody)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"), "api should not redirect")
	})

	t.Run("passes with valid session", func(t *testing.T) {
		token, err := srv.auth.CreateSession(t.Context(), "admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/preference", http.NoBody)
		req.AddCookie(&http.Cookie{Name: "shade-auth", Value: token})
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
