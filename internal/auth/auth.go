// Package auth signs members in with Google and keeps their session in a
// signed cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidState     = errors.New("invalid oauth state")
	ErrNotMember        = errors.New("account is not an allowed member")
	ErrInvalidSession   = errors.New("invalid session")
	ErrEmailNotVerified = errors.New("google account email is not verified")
)

// SignInFailedMessage is shown to the user whenever SignIn fails.
const SignInFailedMessage = "Failed to sign in with Google"

// Session is an authenticated member.
type Session struct {
	Subject   string
	Email     string
	Name      string
	Picture   string
	ExpiresAt time.Time
	Token     string
}

// Authenticator ties the identity provider, the session token issuer and
// the session-change listeners together.
type Authenticator struct {
	provider  Provider
	sessions  *SessionManager
	allowed   map[string]struct{}
	listeners *Listeners
	now       func() time.Time
}

// New builds an Authenticator. An empty allowed list admits any verified
// Google account.
func New(provider Provider, sessions *SessionManager, allowed []string) *Authenticator {
	set := make(map[string]struct{}, len(allowed))
	for _, e := range allowed {
		if e = normalizeEmail(e); e != "" {
			set[e] = struct{}{}
		}
	}
	return &Authenticator{
		provider:  provider,
		sessions:  sessions,
		allowed:   set,
		listeners: NewListeners(),
		now:       time.Now,
	}
}

// AuthCodeURL is where the browser is sent to start signing in.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.provider.AuthCodeURL(state)
}

// SignIn completes the authorization-code flow and issues a session.
func (a *Authenticator) SignIn(ctx context.Context, code string) (Session, error) {
	if strings.TrimSpace(code) == "" {
		return Session{}, fmt.Errorf("sign in: %w", ErrUnauthorized)
	}
	profile, err := a.provider.Exchange(ctx, code)
	if err != nil {
		return Session{}, fmt.Errorf("sign in: %w", err)
	}
	if !profile.EmailVerified {
		return Session{}, fmt.Errorf("sign in %s: %w", profile.Email, ErrEmailNotVerified)
	}
	if !a.IsMember(profile.Email) {
		return Session{}, fmt.Errorf("sign in %s: %w", profile.Email, ErrNotMember)
	}

	s, err := a.sessions.Issue(profile, a.now())
	if err != nil {
		return Session{}, fmt.Errorf("sign in: %w", err)
	}
	slog.InfoContext(ctx, "Member signed in", "email", s.Email)
	a.listeners.publish(Event{Type: EventSignedIn, Session: s, At: a.now()})
	return s, nil
}

// SignOut announces the end of a session. Tokens are stateless, so the
// caller is responsible for dropping the cookie.
func (a *Authenticator) SignOut(ctx context.Context, s Session) error {
	slog.InfoContext(ctx, "Member signed out", "email", s.Email)
	a.listeners.publish(Event{Type: EventSignedOut, Session: s, At: a.now()})
	return nil
}

// Resolve validates a session token carried by a request.
func (a *Authenticator) Resolve(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrUnauthorized
	}
	s, err := a.sessions.Verify(token, a.now())
	if err != nil {
		return Session{}, err
	}
	if !a.IsMember(s.Email) {
		return Session{}, ErrNotMember
	}
	a.listeners.publish(Event{Type: EventResolved, Session: s, At: a.now()})
	return s, nil
}

// OnSessionChange registers fn for every session transition and returns a
// function that removes it.
func (a *Authenticator) OnSessionChange(fn func(Event)) (unsubscribe func()) {
	return a.listeners.Subscribe(fn)
}

// IsMember reports whether email may use the dashboard.
func (a *Authenticator) IsMember(email string) bool {
	if len(a.allowed) == 0 {
		return true
	}
	_, ok := a.allowed[normalizeEmail(email)]
	return ok
}

// SessionTTL is the lifetime of issued sessions.
func (a *Authenticator) SessionTTL() time.Duration {
	return a.sessions.ttl
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
