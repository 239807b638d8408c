package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/remote"
)

const sessionTTL = 24 * time.Hour

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{"templates": "ok"}

	if p, ok := s.backend.(remote.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	} else if s.backend == nil {
		checks["backend"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["backend"] = "unchecked"
	}
	checks["workspaces"] = s.registry.Len()
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleIndex shows the sign-in page, or sends signed-in users to the dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", indexView{SignInURL: s.signInURL, DevSignIn: s.devSignIn})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if u, ok := identity.FromContext(r.Context()); ok {
		s.registry.Drop(u.ID)
		log.FromContext(r.Context()).InfoContext(r.Context(), "User signed out", log.FieldUserID, u.ID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.verifier.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, "/")
}

// handleDevSignIn issues a session for ?user= (default "dev-user") and ?name=.
// Only mounted when development sign-in is enabled.
func (s *Server) handleDevSignIn(w http.ResponseWriter, r *http.Request) {
	u := identity.User{
		ID:        sanitizeInput(r.URL.Query().Get("user")),
		FirstName: sanitizeInput(r.URL.Query().Get("name")),
	}
	if u.ID == "" {
		u.ID = "dev-user"
	}
	if u.FirstName == "" {
		u.FirstName = "Developer"
	}
	token, err := identity.IssueToken(s.jwtSecret, u, sessionTTL)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Issue development token failed", "error", err)
		http.Error(w, "could not sign in", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.verifier.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	log.FromContext(r.Context()).InfoContext(r.Context(), "Development sign-in", log.FieldUserID, u.ID)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// requireUser sends signed-out requests to the sign-in page. HTMX requests
// get a 401 with HX-Redirect instead of a redirect they would swap in.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity.FromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		if isHTMX(r) || strings.HasPrefix(r.Header.Get("Accept"), "application/json") {
			NewHTMXResponse().Status(http.StatusUnauthorized).Header("HX-Redirect", "/").Write(w)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		"key", rateLimitKey(r), log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many changes. Please wait a moment.").
		TriggerErrorNotification("Too many changes. Please wait a moment.").
		Write(w)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
