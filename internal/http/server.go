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
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/remote"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	appweb "fintrack/web"
)

// ActivityLister reads the activity journal written by the worker.
type ActivityLister interface {
	ListEvents(ctx context.Context, userID string, limit int) ([]storage.Event, error)
}

// Options configures the dashboard server.
type Options struct {
	Addr string

	Registry *store.Registry
	Verifier *identity.Verifier
	// Backend is pinged by /readyz when it implements remote.Pinger.
	Backend remote.Backend
	// Activity enables the recent activity panel when set.
	Activity ActivityLister
	Logger   *log.Logger

	SignInURL string
	// DevSignIn enables /dev/sign-in, which issues tokens signed with JWTSecret.
	DevSignIn bool
	JWTSecret string

	RateLimitPerMinute int
}

type Server struct {
	http.Server

	registry  *store.Registry
	verifier  *identity.Verifier
	backend   remote.Backend
	activity  ActivityLister
	logger    *log.Logger
	templates *template.Template
	limiter   *ratelimit.Limiter

	signInURL string
	devSignIn bool
	jwtSecret string

	now          func() time.Time
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("http server: missing workspace registry")
	}
	if opts.Verifier == nil {
		return nil, errors.New("http server: missing identity verifier")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		registry:  opts.Registry,
		verifier:  opts.Verifier,
		backend:   opts.Backend,
		activity:  opts.Activity,
		logger:    logger,
		templates: t,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		signInURL: opts.SignInURL,
		devSignIn: opts.DevSignIn,
		jwtSecret: opts.JWTSecret,
		now:       time.Now,
		started:   time.Now(),
	}
	s.Handler = s.routes()
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(log.RequestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(security.SameOrigin(s.logger.WithComponent(log.ComponentSecurity).Logger))
	r.Use(s.verifier.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssets(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/", s.handleIndex)
	r.Post("/sign-out", s.handleSignOut)
	if s.devSignIn {
		r.Get("/dev/sign-in", s.handleDevSignIn)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Use(s.limiter.Middleware(rateLimitKey, s.onRateLimit))

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/ui/records", s.handleRecordsPartial)
		r.Get("/ui/modal", s.handleModalPartial)
		r.Get("/ui/activity", s.handleActivityPartial)

		r.Post("/records", s.handleCreateRecord)
		r.Get("/records/export.xlsx", s.handleExport)
		r.Get("/records/{id}/edit", s.handleEditRecord)
		r.Post("/records/edit/cancel", s.handleCancelEdit)
		r.Put("/records/{id}", s.handleUpdateRecord)
		r.Delete("/records/{id}", s.handleDeleteRecord)
	})
	return r
}

// Limiter exposes the rate limiter so its stale keys can be swept with the
// other caches.
func (s *Server) Limiter() *ratelimit.Limiter { return s.limiter }

// Shutdown stops accepting requests and evicts every workspace.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
		s.registry.Close()
	})
	return err
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	s.renderWith(w, r, NewHTMXResponse().Status(status), name, data)
}

// renderWith renders name into the body of b and writes it.
func (s *Server) renderWith(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"error", err, "template", name, log.FieldOperation, log.OpRender)
		InternalServerError("Something went wrong while rendering the page").Write(w)
		return
	}
	b.Body(buf.Bytes()).Header("Content-Type", "text/html; charset=utf-8").Write(w)
}
