package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"github.com/umputun/shade/app/enum"
	"github.com/umputun/shade/app/prefs"
)

//go:embed templates
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

// visitorCookie identifies a browser across visits. The value is a uuid
// minted on the first request and used as the preference key.
const visitorCookie = "shade-visitor"

// templateData is passed to page templates.
type templateData struct {
	LightMode   bool   // body carries the light-mode class when true
	Label       string // toggle control text for the displayed mode
	Theme       string // displayed theme name
	AuthEnabled bool
	Error       string
	BaseURL     string
	Version     string
}

// pageState is the server-side display handle for a single render. The
// controller mutates it, the template projects it into the page markup.
type pageState struct {
	lightMode bool
	label     string
}

// LightMode reports whether the light-mode marker is set.
func (p *pageState) LightMode() bool { return p.lightMode }

// SetLightMode sets or removes the light-mode marker.
func (p *pageState) SetLightMode(on bool) { p.lightMode = on }

// SetLabel sets the toggle control text.
func (p *pageState) SetLabel(label string) { p.label = label }

// visitorStore binds the shared preference store to a single visitor,
// giving the controller a per-visitor get/set capability.
type visitorStore struct {
	store   PrefStore
	visitor string
}

// Get returns the stored theme for the bound visitor.
func (v visitorStore) Get(ctx context.Context) (enum.Theme, error) {
	return v.store.Preference(ctx, v.visitor) //nolint:wrapcheck // pass through for ErrNotFound checks
}

// Set stores the theme for the bound visitor.
func (v visitorStore) Set(ctx context.Context, theme enum.Theme) error {
	return v.store.SetPreference(ctx, v.visitor, theme) //nolint:wrapcheck // pass through unchanged
}

// visitorID returns the visitor id from the cookie, minting a new one when
// the cookie is absent or not a uuid. Arbitrary client-supplied strings
// never reach the store as keys.
func (s *Server) visitorID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(visitorCookie); err == nil {
		if id, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     s.cookiePath(),
		MaxAge:   365 * 24 * 60 * 60, // 1 year
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// handleIndex renders the appearance page.
// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	visitor := s.visitorID(w, r)

	state := &pageState{}
	ctrl := prefs.New(visitorStore{store: s.store, visitor: visitor}, state, state)
	ctrl.Init(r.Context())

	s.renderPage(w, state)
}

// handleThemeToggle flips the display mode and persists the result.
// POST /web/theme
// The submitted hidden field carries the mode the visitor currently sees,
// so the flip follows the rendered page even when the store disagrees.
// The response is the full page in the new mode, rendered before any
// persistence outcome is known to the visitor.
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	visitor := s.visitorID(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	state := &pageState{}
	ctrl := prefs.New(visitorStore{store: s.store, visitor: visitor}, state, state)

	// seed the display from the submitted mode, fall back to the stored
	// resolve when the field is missing or mangled
	if mode, err := enum.ParseTheme(r.FormValue("mode")); err == nil {
		ctrl.Apply(mode)
	} else {
		ctrl.Init(r.Context())
	}

	theme, err := ctrl.Toggle(r.Context())
	if err != nil {
		// display already flipped, the visitor keeps the new mode for this page
		log.Printf("[WARN] theme not persisted for visitor %s: %v", visitor, err)
	} else {
		log.Printf("[DEBUG] visitor %s switched to %s", visitor, theme)
	}

	s.renderPage(w, state)
}

// renderPage executes the appearance page template from the display state.
func (s *Server) renderPage(w http.ResponseWriter, state *pageState) {
	theme := enum.ThemeDark
	if state.lightMode {
		theme = enum.ThemeLight
	}

	data := templateData{
		LightMode:   state.lightMode,
		Label:       state.label,
		Theme:       theme.String(),
		AuthEnabled: s.auth.Enabled(),
		BaseURL:     s.baseURL,
		Version:     s.version,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("[ERROR] failed to execute index template: %v", err)
	}
}

// staticHandler serves embedded static files.
func (s *Server) staticHandler() http.Handler {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Printf("[ERROR] failed to load static files: %v", err)
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
}

// parseTemplates parses embedded page templates.
func parseTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
