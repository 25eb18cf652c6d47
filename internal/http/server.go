package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"bodekasse/internal/core"
	"bodekasse/internal/log"
	"bodekasse/internal/middleware/ratelimit"
	"bodekasse/internal/middleware/security"
	"bodekasse/internal/middleware/trace"
	"bodekasse/internal/services"
	appweb "bodekasse/web"
)

// Ledger is what the handlers need from the fine service.
type Ledger interface {
	Board(ctx context.Context) (services.Board, error)
	History(ctx context.Context, member string) ([]core.Fine, error)
	IsAdmin(token string) bool
	Ready(ctx context.Context) error
	AssignFine(ctx context.Context, token, member, fineType string) (core.Fine, error)
	AddMember(ctx context.Context, token, name string) (core.Member, error)
	RemoveMember(ctx context.Context, token, name string) (int, error)
	ClearMemberFines(ctx context.Context, token, member string) (int, error)
}

// Options configures NewServer. Zero values pick defaults.
type Options struct {
	Currency       string
	Logger         *log.Logger
	RateLimit      ratelimit.Config
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    Ledger
	currency  string
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentHTTP)
	}
	currency := opts.Currency
	if currency == "" {
		currency = "DKK"
	}

	s := &Server{
		ledger:   ledger,
		currency: currency,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs(currency)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.WithComponent(log.ComponentTemplate).Error("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.Handle("/", security.NoStore(http.HandlerFunc(s.handleIndex)))
	mux.Handle("/ui/board", security.NoStore(http.HandlerFunc(s.handleBoard)))
	mux.Handle("/ui/history", security.NoStore(http.HandlerFunc(s.handleHistory)))

	admin := func(h http.HandlerFunc) http.Handler {
		limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "For mange forsøg. Prøv igen om lidt.").Write(w)
		})
		return security.NoStore(limited(h))
	}
	mux.Handle("/admin/fines", admin(s.handleAssignFine))
	mux.Handle("/admin/fines/clear", admin(s.handleClearFines))
	mux.Handle("/admin/members", admin(s.handleAddMember))
	mux.Handle("/admin/members/remove", admin(s.handleRemoveMember))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = trace.NewMiddleware(s.detector.ExtractClientIP).Middleware(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a template into a buffer first so a failing template
// never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender)
		InternalServerError("Siden kunne ikke vises.").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			log.FieldOperation, log.OpRender,
			log.FieldError, err)
		InternalServerError("Siden kunne ikke vises.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
