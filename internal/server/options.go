package server

import (
	"log"
	"time"

	"github.com/agbru/qsag/internal/logging"
	"github.com/agbru/qsag/internal/service"
)

// Option configures a Server at construction time.
type Option func(*Server)

// ─────────────────────────────────────────────────────────────────────────────
// Logging and service injection
// ─────────────────────────────────────────────────────────────────────────────

// WithLogger routes request and build logs to logger. A nil logger keeps the
// default JSON logger tagged with component=server.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdLogger routes request and build logs to a standard library logger,
// rendering fields as key=value pairs.
func WithStdLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewStdLoggerAdapter(logger)
		}
	}
}

// WithService replaces the registry-backed sag service, typically with a
// mock. Limits set through WithLimits and WithCacheBudget are then the
// injected service's concern; the server only uses them in error messages.
//
// Parameters:
//   - svc: The service implementation to use.
//
// Returns:
//   - Option: A functional option that configures the server's service.
func WithService(svc service.Service) Option {
	return func(s *Server) {
		if svc != nil {
			s.service = svc
		}
	}
}

// WithCacheBudget caps the bytes the family caches may hold across requests.
// Zero lets the caches grow without bound, which is only reasonable behind a
// trusted client.
//
// Parameters:
//   - maxBytes: The budget in bytes shared by every family.
//
// Returns:
//   - Option: A functional option that configures the cache budget.
func WithCacheBudget(maxBytes int64) Option {
	return func(s *Server) {
		s.securityConfig.MaxCacheBytes = maxBytes
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Timeouts
// ─────────────────────────────────────────────────────────────────────────────

// writeSlack is the time left after a build deadline to encode and send the
// 504 or the sag map itself.
const writeSlack = 5 * time.Second

// WithTimeouts replaces the server timeouts. A WriteTimeout shorter than
// RequestTimeout is raised so that a build cut off by its deadline can still
// report it.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) {
		s.timeouts = timeouts.normalized()
	}
}

// Timeouts holds the deadlines applied to sag requests and to the listener.
type Timeouts struct {
	// RequestTimeout bounds one sag build, including term generation on a
	// cold cache. The service is serialised, so it also bounds queueing
	// behind other builds.
	RequestTimeout time.Duration
	// ShutdownTimeout is how long in-flight builds get to finish after a
	// termination signal.
	ShutdownTimeout time.Duration
	// ReadTimeout bounds reading the request line, headers and JSON body.
	ReadTimeout time.Duration
	// WriteTimeout bounds the whole exchange up to the last byte of the
	// response, so it must cover RequestTimeout.
	WriteTimeout time.Duration
	// IdleTimeout is how long a keep-alive connection may wait for its next
	// request.
	IdleTimeout time.Duration
}

// DefaultServerTimeouts returns timeouts sized for maps up to the default
// 2048 samples at moderate orders.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  time.Minute,
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    2 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}

// normalized returns t with WriteTimeout raised to RequestTimeout plus
// writeSlack when it would otherwise cut a build's response short.
func (t Timeouts) normalized() Timeouts {
	if t.RequestTimeout > 0 && t.WriteTimeout > 0 && t.WriteTimeout < t.RequestTimeout+writeSlack {
		t.WriteTimeout = t.RequestTimeout + writeSlack
	}
	return t
}
