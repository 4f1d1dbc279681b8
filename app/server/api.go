package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"

	"github.com/umputun/shade/app/enum"
	"github.com/umputun/shade/app/prefs"
	"github.com/umputun/shade/app/store"
)

// preferenceResponse is the JSON shape for single-preference endpoints.
type preferenceResponse struct {
	Theme     string     `json:"theme"`
	Stored    bool       `json:"stored"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// handleGetPreference returns the resolved preference for this visitor.
// GET /api/v1/preference
// Stored values that fail to parse collapse to the dark default, the same
// rule the page rendering applies.
func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	visitor := s.visitorID(w, r)

	info, err := s.store.PreferenceInfo(r.Context(), visitor)
	if errors.Is(err, store.ErrNotFound) {
		rest.RenderJSON(w, preferenceResponse{Theme: enum.ThemeDark.String()})
		return
	}
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to get preference")
		return
	}

	theme, err := enum.ParseTheme(info.Theme)
	if err != nil {
		theme = enum.ThemeDark // stored garbage collapses to the default
	}
	rest.RenderJSON(w, preferenceResponse{Theme: theme.String(), Stored: true, UpdatedAt: &info.UpdatedAt})
}

// handleSetPreference stores an explicit preference for this visitor.
// PUT /api/v1/preference
// Unlike values read back from storage, explicit input is validated strictly.
func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	visitor := s.visitorID(w, r)

	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid request body")
		return
	}

	theme, err := enum.ParseTheme(req.Theme)
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusBadRequest, err, "invalid theme")
		return
	}

	if err := s.store.SetPreference(r.Context(), visitor, theme); err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to set preference")
		return
	}

	log.Printf("[DEBUG] set preference %s for visitor %s", theme, visitor)
	rest.RenderJSON(w, preferenceResponse{Theme: theme.String(), Stored: true})
}

// handleTogglePreference flips the resolved preference and persists the result.
// POST /api/v1/preference/toggle
// Runs through the same controller as the page, headless with no toggle control.
func (s *Server) handleTogglePreference(w http.ResponseWriter, r *http.Request) {
	visitor := s.visitorID(w, r)

	state := &pageState{}
	ctrl := prefs.New(visitorStore{store: s.store, visitor: visitor}, state, nil)
	ctrl.Init(r.Context())

	theme, err := ctrl.Toggle(r.Context())
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to toggle preference")
		return
	}

	log.Printf("[DEBUG] toggled preference to %s for visitor %s", theme, visitor)
	rest.RenderJSON(w, preferenceResponse{Theme: theme.String(), Stored: true})
}

// handleDeletePreference drops the stored preference for this visitor.
// DELETE /api/v1/preference
func (s *Server) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	visitor := s.visitorID(w, r)

	err := s.store.DeletePreference(r.Context(), visitor)
	if errors.Is(err, store.ErrNotFound) {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusNotFound, err, "no stored preference")
		return
	}
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to delete preference")
		return
	}

	log.Printf("[DEBUG] deleted preference for visitor %s", visitor)
	w.WriteHeader(http.StatusNoContent)
}

// handleListPreferences returns all stored preference records.
// GET /api/v1/preferences
func (s *Server) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		rest.SendErrorJSON(w, r, log.Default(), http.StatusInternalServerError, err, "failed to list preferences")
		return
	}
	rest.RenderJSON(w, list)
}
