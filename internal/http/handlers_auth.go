package http

import (
	"errors"
	"net/http"

	"fundledger/internal/auth"
	applog "fundledger/internal/log"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.currentSession(r) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", pageData{Title: "Member Login"})
}

// handleGoogleSignIn starts the OAuth flow with a fresh state cookie.
func (s *Server) handleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	state := auth.NewState(w, r)
	http.Redirect(w, r, s.auth.AuthCodeURL(state), http.StatusFound)
}

// handleAuthCallback finishes the OAuth flow. Every failure shows the same
// message on the login page; the cause is only logged.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentAuth)

	if err := auth.CheckState(w, r); err != nil {
		logger.WarnContext(ctx, "OAuth callback with bad state", applog.FieldError, err)
		s.signInFailed(w, r, http.StatusBadRequest)
		return
	}
	if reason := r.URL.Query().Get("error"); reason != "" {
		logger.InfoContext(ctx, "Google sign-in declined", "reason", reason)
		s.signInFailed(w, r, http.StatusUnauthorized)
		return
	}

	sess, err := s.auth.SignIn(ctx, r.URL.Query().Get("code"))
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrUnauthorized) && !errors.Is(err, auth.ErrNotMember) && !errors.Is(err, auth.ErrEmailNotVerified) {
			status = http.StatusBadGateway
		}
		logger.WarnContext(ctx, "Sign-in failed", applog.FieldError, err, applog.FieldOperation, applog.OpSignIn)
		s.signInFailed(w, r, status)
		return
	}

	auth.SetSessionCookie(w, r, sess)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) signInFailed(w http.ResponseWriter, r *http.Request, status int) {
	s.render(w, r, status, "login.html", pageData{
		Title: "Member Login",
		Error: auth.SignInFailedMessage,
	})
}

// handleLogout ends the session if there is one and always clears the
// cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := s.currentSession(r); sess != nil {
		if err := s.auth.SignOut(r.Context(), *sess); err != nil {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).
				WarnContext(r.Context(), "Sign-out failed", applog.FieldError, err)
		}
	}
	auth.ClearSessionCookie(w, r)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
