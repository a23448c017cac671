package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SessionCookie = "fundledger_session"
	StateCookie   = "fundledger_oauth_state"

	stateTTL = 10 * time.Minute
)

type contextKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SessionFromContext returns the session attached by RequireSession.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// RequireSession rejects requests without a valid session cookie. Page
// requests are redirected to /login; API and HTMX requests get 401.
func (a *Authenticator) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}

		s, err := a.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrUnauthorized) {
				slog.WarnContext(r.Context(), "Rejected session", "error", err, "path", r.URL.Path)
				ClearSessionCookie(w, r)
			}
			switch {
			case strings.HasPrefix(r.URL.Path, "/api/"):
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			case r.Header.Get("HX-Request") == "true":
				w.Header().Set("HX-Redirect", "/login")
				w.WriteHeader(http.StatusUnauthorized)
			default:
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// SetSessionCookie stores the session token.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, r, SessionCookie)
}

// NewState generates an OAuth state value and stores it in a short-lived
// cookie.
func NewState(w http.ResponseWriter, r *http.Request) string {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return state
}

// CheckState compares the callback state with the cookie and consumes it.
func CheckState(w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(StateCookie)
	clearCookiePath(w, r, StateCookie, "/auth")
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		return ErrInvalidState
	}
	return nil
}

func clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	clearCookiePath(w, r, name, "/")
}

func clearCookiePath(w http.ResponseWriter, r *http.Request, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
