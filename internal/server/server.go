package server

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"lumenai/internal/config"
	"lumenai/internal/domain"
	"lumenai/internal/metrics"
	"lumenai/internal/services"
)

const maxBodyBytes = 1 << 20

// Services are the application services exposed over HTTP.
type Services struct {
	Auth        *services.AuthService
	Reset       *services.PasswordResetService
	Inquiries   *services.InquiryService
	Blogs       *services.ContentService[domain.Blog, *domain.Blog]
	CaseStudies *services.ContentService[domain.CaseStudy, *domain.CaseStudy]
	Events      *services.ContentService[domain.Event, *domain.Event]
	Feedback    *services.FeedbackService
	Chat        *services.ChatAssistant
	Catalog     *services.Catalog
	Health      *services.HealthService
}

// Server routes HTTP requests to the services.
type Server struct {
	cfg      *config.Config
	svc      *Services
	mux      goahttp.Muxer
	limiters map[string]*ipLimiter
	now      func() time.Time
}

// New builds the server and mounts every route.
func New(cfg *config.Config, svc *Services) *Server {
	s := &Server{
		cfg:      cfg,
		svc:      svc,
		mux:      goahttp.NewMuxer(),
		limiters: make(map[string]*ipLimiter),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.mountPublic()
	s.mountAuth()
	s.mountInquiries()
	mountContent(s, "blogs", "blog", svc.Blogs, nil)
	mountContent(s, "case-studies", "case study", svc.CaseStudies, nil)
	mountContent(s, "events", "event", svc.Events, s.upcomingScope)
	s.mountFeedback()
	return s
}

// Handler returns the root handler with the middleware chain applied:
// recover -> real IP (behind a trusted proxy) -> request id -> request context -> security headers -> CORS -> access log -> routes.
func (s *Server) Handler() http.Handler {
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			promhttp.Handler().ServeHTTP(w, r)
			return
		}
		s.mux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = s.accessLog(h)
	h = s.cors(h)
	h = s.securityHeaders(h)
	h = middleware.PopulateRequestContext()(h)
	h = middleware.RequestID(middleware.UseXRequestIDHeaderOption(true))(h)
	if s.cfg.App.TrustProxy {
		h = chimw.RealIP(h)
	}
	h = chimw.Recoverer(h)
	return h
}

// handle registers fn under method and pattern with route metrics.
func (s *Server) handle(method, pattern string, fn handlerFunc) {
	h := metrics.Instrument(pattern, s.wrap(fn))
	s.mux.Handle(method, pattern, h.ServeHTTP)
}

// handleAdmin registers fn behind the bearer gate.
func (s *Server) handleAdmin(method, pattern string, fn handlerFunc, scopes ...string) {
	if len(scopes) == 0 {
		scopes = []string{services.ScopeAdmin}
	}
	s.handle(method, pattern, s.bearer(scopes, fn))
}

// handleLimited registers a public write endpoint behind the per-IP limiter
// of group. Each group has its own allowance.
func (s *Server) handleLimited(group, method, pattern string, fn handlerFunc) {
	limiter, ok := s.limiters[group]
	if !ok {
		limiter = newIPLimiter(s.cfg.Limits.PublicRatePerSecond, s.cfg.Limits.PublicBurst)
		s.limiters[group] = limiter
	}
	s.handle(method, pattern, rateLimited(limiter, fn))
}
