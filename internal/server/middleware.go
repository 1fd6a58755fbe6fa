package server

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	goamw "goa.design/goa/v3/middleware"
	"goa.design/goa/v3/security"
	"golang.org/x/time/rate"

	"lumenai/internal/logger"
	apperrors "lumenai/pkg/errors"
)

// maxTrackedClients bounds the limiter map; it is reset when exceeded.
const maxTrackedClients = 10000

// securityHeaders adds security headers to responses
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		// HSTS only when served over TLS outside debug mode
		if !s.cfg.App.Debug && r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// cors answers preflight requests and rejects origins outside ALLOWED_HOSTS.
func (s *Server) cors(next http.Handler) http.Handler {
	allowAll := len(s.cfg.CORS.AllowedOrigins) == 0 || s.cfg.CORS.AllowedOrigins[0] == "*"
	allowed := make(map[string]bool, len(s.cfg.CORS.AllowedOrigins))
	for _, o := range s.cfg.CORS.AllowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !allowAll && !allowed[origin] {
			s.writeError(w, r, apperrors.New(apperrors.ErrCodeForbidden, "origin not allowed"))
			return
		}

		switch {
		case origin == "":
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		default:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(s.cfg.CORS.AllowedMethods, ", "))
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(s.cfg.CORS.AllowedHeaders, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", s.cfg.CORS.MaxAge))

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// accessLog logs every request except health checks and stores a request logger in the context.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, _ := r.Context().Value(goamw.RequestIDKey).(string)
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}
		reqLog := logger.GetLogger().With(zap.String("requestId", requestID))
		r = r.WithContext(logger.WithContext(r.Context(), reqLog))

		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.status),
			zap.Duration("latency", time.Since(start)),
			zap.String("remoteAddr", r.RemoteAddr),
		}
		accessLog := reqLog.Named("http")
		if wrapped.status >= http.StatusInternalServerError {
			accessLog.Error("Request completed", fields...)
			return
		}
		accessLog.Info("Request completed", fields...)
	})
}

// ipLimiter holds one token bucket per client IP.
type ipLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the limiter for ip, creating one if needed.
func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[ip]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok = l.limiters[ip]; ok {
		return limiter
	}
	if len(l.limiters) >= maxTrackedClients {
		l.limiters = make(map[string]*rate.Limiter)
	}
	limiter = rate.NewLimiter(l.rate, l.burst)
	l.limiters[ip] = limiter
	return limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimited rejects requests beyond the client's allowance with RATE_LIMITED.
func rateLimited(limiter *ipLimiter, fn handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if !limiter.get(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "60")
			return apperrors.New(apperrors.ErrCodeRateLimited, "too many requests, try again later")
		}
		return fn(w, r)
	}
}

// bearer verifies the Authorization header before fn runs.
func (s *Server) bearer(scopes []string, fn handlerFunc) handlerFunc {
	scheme := &security.JWTScheme{
		Name:           "jwt",
		Scopes:         []string{"admin", "super-admin"},
		RequiredScopes: scopes,
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx, err := s.svc.Auth.JWTAuth(r.Context(), bearerToken(r), scheme)
		if err != nil {
			return err
		}
		return fn(w, r.WithContext(ctx))
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
