package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/agbru/qsag/internal/logging"
)

// RequestIDHeader carries the identifier that ties a response to its log lines.
const RequestIDHeader = "X-Request-ID"

// ─────────────────────────────────────────────────────────────────────────────
// Server Options for Middleware Integration
// ─────────────────────────────────────────────────────────────────────────────

// WithRateLimiter sets a custom rate limiter for the server.
//
// Parameters:
//   - rl: The rate limiter to use.
//
// Returns:
//   - Option: A functional option that configures the server's rate limiter.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) {
		s.rateLimiter = rl
	}
}

// WithSecurityConfig sets a custom security configuration for the server.
//
// Parameters:
//   - config: The security configuration.
//
// Returns:
//   - Option: A functional option that configures the server's security settings.
func WithSecurityConfig(config SecurityConfig) Option {
	return func(s *Server) {
		s.securityConfig = config
	}
}

// WithLimits sets the largest grid and polynomial order a request may ask
// for. Zero disables a limit. It has no effect when a service is injected
// with WithService.
//
// Parameters:
//   - maxSamples: The maximum grid size along each axis.
//   - maxOrder: The maximum polynomial order.
//
// Returns:
//   - Option: A functional option that configures the request limits.
func WithLimits(maxSamples, maxOrder int) Option {
	return func(s *Server) {
		s.securityConfig.MaxSamples = maxSamples
		s.securityConfig.MaxOrder = maxOrder
	}
}

// requestID returns the client's X-Request-ID when it is a valid UUID and a
// fresh random one otherwise.
func requestID(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// loggingMiddleware tags each request with an ID echoed in the response
// headers, then logs the method, path, remote address and duration.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := requestID(r)
		w.Header().Set(RequestIDHeader, id)
		s.logger.Debug("request received",
			logging.String("request_id", id),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("remote", r.RemoteAddr))

		next(w, r)

		s.logger.Info("request completed",
			logging.String("request_id", id),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(start)))
	}
}
