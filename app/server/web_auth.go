package server

import (
	"net/http"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/shade/app/prefs"
)

// handleLoginForm renders the login page.
// GET /login
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, http.StatusOK, "")
}

// handleLogin processes the login form submission.
// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		s.renderLogin(w, r, http.StatusUnauthorized, "Username and password are required")
		return
	}

	user := s.auth.ValidateUser(username, password)
	if user == nil {
		s.renderLogin(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	// create session
	token, err := s.auth.CreateSession(r.Context(), username)
	if err != nil {
		log.Printf("[ERROR] failed to create session: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// set cookie - use __Host- prefix for enhanced security over HTTPS (only when no base URL)
	// __Host- prefix requires Path="/" which doesn't work with base URL
	cookieName := "shade-auth"
	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
	if secure && s.baseURL == "" {
		cookieName = "__Host-shade-auth"
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     s.cookiePath(),
		MaxAge:   int(s.auth.LoginTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   secure,
	})

	log.Printf("[INFO] user %q logged in", username)
	http.Redirect(w, r, s.url("/"), http.StatusSeeOther)
}

// handleLogout logs the user out by clearing the session.
// POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// invalidate session
	for _, cookieName := range sessionCookieNames {
		if cookie, err := r.Cookie(cookieName); err == nil {
			s.auth.InvalidateSession(r.Context(), cookie.Value)
		}
	}

	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	// clear both cookies - need both paths for compatibility
	http.SetCookie(w, &http.Cookie{
		Name:     "shade-auth",
		Value:    "",
		Path:     s.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   secure,
	})

	// clear __Host- cookie if baseURL is empty (it requires Path="/")
	if s.baseURL == "" {
		http.SetCookie(w, &http.Cookie{
			Name:     "__Host-shade-auth",
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   true,
		})
	}

	http.Redirect(w, r, s.url("/login"), http.StatusSeeOther)
}

// renderLogin renders the login page in the visitor's display mode.
// The login page has no toggle control, only the root marker is applied.
func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	visitor := s.visitorID(w, r)

	state := &pageState{}
	ctrl := prefs.New(visitorStore{store: s.store, visitor: visitor}, state, nil)
	ctrl.Init(r.Context())

	data := templateData{
		LightMode: state.lightMode,
		Error:     errMsg,
		BaseURL:   s.baseURL,
		Version:   s.version,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := s.tmpl.ExecuteTemplate(w, "login.html", data); err != nil {
		log.Printf("[ERROR] failed to execute login template: %v", err)
	}
}
