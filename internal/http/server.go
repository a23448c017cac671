package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fundledger/internal/auth"
	applog "fundledger/internal/log"
	"fundledger/internal/middleware/ratelimit"
	"fundledger/internal/middleware/security"
	"fundledger/internal/middleware/trace"
	"fundledger/internal/services"
	appweb "fundledger/web"
)

// Intake records submissions from the donation and outflow forms.
type Intake interface {
	RecordDonation(ctx context.Context, in services.DonationInput) (services.Receipt, error)
	RecordOutflow(ctx context.Context, in services.OutflowInput) (services.Receipt, error)
}

// DashboardLoader produces the member dashboard view.
type DashboardLoader interface {
	Load(ctx context.Context) (services.Dashboard, error)
}

// Options wires a Server. Auth, Intake and Dashboard are required.
type Options struct {
	Addr      string
	Auth      *auth.Authenticator
	Intake    Intake
	Dashboard DashboardLoader
	// Ready checks the data backend for /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
	// Logger defaults to the slog default logger.
	Logger *applog.Logger

	RateLimitPerMinute int
	// TrustedProxies are extra CIDRs whose forwarding headers are believed.
	TrustedProxies []string
}

// Server is the web front end: public donation form, Google sign-in and the
// member dashboard.
type Server struct {
	http.Server

	auth      *auth.Authenticator
	intake    Intake
	dashboard DashboardLoader
	ready     func(ctx context.Context) error

	templates *template.Template
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	metrics      appMetrics
	unsubscribe  func()
	shutdownOnce sync.Once
}

type appMetrics struct {
	started           time.Time
	donations         int64
	outflows          int64
	duplicates        int64
	failedWrites      int64
	dashboardLoads    int64
	dashboardFailures int64
	signIns           int64
	signOuts          int64
}

// NewServer parses the embedded templates and builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Auth == nil || opts.Intake == nil || opts.Dashboard == nil {
		return nil, errors.New("http server requires auth, intake and dashboard")
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		auth:      opts.Auth,
		intake:    opts.Intake,
		dashboard: opts.Dashboard,
		ready:     opts.Ready,
		templates: t,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		metrics:   appMetrics{started: time.Now()},
	}
	s.unsubscribe = s.auth.OnSessionChange(s.onSessionChange)

	router, err := s.routes()
	if err != nil {
		s.limiter.Stop()
		s.unsubscribe()
		return nil, err
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handleIndex)
	r.Post("/donations", s.handleCreateDonation)

	r.Get("/login", s.handleLogin)
	r.Get("/auth/google", s.handleGoogleSignIn)
	r.Get("/auth/callback", s.handleAuthCallback)
	r.Post("/logout", s.handleLogout)

	r.NotFound(s.handleNotFound)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireSession)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/ui/dashboard", s.handleDashboardContent)
		r.Post("/outflows", s.handleCreateOutflow)
		r.Get("/api/ledger", s.handleLedgerAPI)
	})

	return r, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		TooManyRequestsError(msgRateLimited).TriggerErrorNotification(msgRateLimited).Write(w)
		return
	}
	http.Error(w, msgRateLimited, http.StatusTooManyRequests)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NotFoundError("Page not found").Write(w)
		return
	}
	http.NotFound(w, r)
}

func (s *Server) onSessionChange(e auth.Event) {
	switch e.Type {
	case auth.EventSignedIn:
		atomic.AddInt64(&s.metrics.signIns, 1)
		s.logger.Debug("Session change observed", "event", string(e.Type))
	case auth.EventSignedOut:
		atomic.AddInt64(&s.metrics.signOuts, 1)
		s.logger.Debug("Session change observed", "event", string(e.Type))
	}
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// currentSession resolves the session cookie on public pages, where a
// missing or stale session is not an error.
func (s *Server) currentSession(r *http.Request) *auth.Session {
	c, err := r.Cookie(auth.SessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, err := s.auth.Resolve(r.Context(), c.Value)
	if err != nil {
		return nil
	}
	return &sess
}

// render executes a template into a buffer so a failing template yields a
// clean 500 instead of a truncated page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).
			ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err, "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
