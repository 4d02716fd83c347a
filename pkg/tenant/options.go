package tenant

import (
	"log/slog"
	"net/http"
)

// ErrorHandler renders tenant-resolution failures to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type options struct {
	errorHandler  ErrorHandler
	skipPaths     []string
	requireActive bool
	logger        *slog.Logger
}

// Option configures the middleware.
type Option func(*options)

// WithErrorHandler overrides how resolution failures are rendered.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.errorHandler = h
		}
	}
}

// WithSkipPaths lists URL path prefixes that bypass tenant resolution
// entirely (health checks, platform-level pages).
func WithSkipPaths(paths ...string) Option {
	return func(o *options) {
		o.skipPaths = append(o.skipPaths, paths...)
	}
}

// WithRequireActive controls whether non-active tenants are rejected.
// Enabled by default; disable for administrative surfaces that must see
// suspended tenants.
func WithRequireActive(require bool) Option {
	return func(o *options) {
		o.requireActive = require
	}
}

// WithLogger sets the middleware logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}
