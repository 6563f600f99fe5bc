package ratekeeper

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// Logger is the interface used for logging inside the rate limiter.
//
// Implement it to plug in your own logging backend, or use one of the
// ready-made adapters under adapters/ (zap, zerolog, logrus, stdlib log).
type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// KeyFunc extracts the rate-limit identifier from an HTTP request: the
// client IP for AUTH endpoints, the API key for BUSINESS endpoints.
type KeyFunc func(r *http.Request) (string, error)

// ErrorHandler handles a request after its rate limit is exceeded, allowing
// custom response bodies, headers, or logging.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error, result Result)

// Config holds the configurable options for the HTTP middleware.
//
// Create one via NewConfig and functional options:
//
//	cfg := ratekeeper.NewConfig(
//	    ratekeeper.WithKeyFunc(ratekeeper.APIKeyFunc("X-API-Key")),
//	    ratekeeper.WithLogger(zapadapter.New(logger)),
//	)
type Config struct {
	KeyFunc      KeyFunc
	ErrorHandler ErrorHandler
	Logger       Logger
}

// Option is a functional option for Config.
type Option func(*Config)

// NewConfig creates a Config with defaults (XFF-aware client IP key,
// Retry-After + 429 error handler, no-op logger), then applies options.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		KeyFunc:      ClientIPKeyFunc(true),
		ErrorHandler: defaultErrorHandler,
		Logger:       &noopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error, result Result) {
	retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
	if retryAfter <= 0 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}

// WithKeyFunc returns an Option to set a custom KeyFunc.
func WithKeyFunc(f KeyFunc) Option {
	return func(c *Config) {
		if f != nil {
			c.KeyFunc = f
		}
	}
}

// WithErrorHandler returns an Option to set a custom ErrorHandler.
func WithErrorHandler(f ErrorHandler) Option {
	return func(c *Config) {
		if f != nil {
			c.ErrorHandler = f
		}
	}
}

// WithLogger returns an Option to set a custom Logger.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// ClientIPKeyFunc builds a KeyFunc returning the client IP. When trustXFF is
// true the first entry of X-Forwarded-For wins (the original client behind
// proxies); otherwise, and as a fallback, the RemoteAddr host is used.
func ClientIPKeyFunc(trustXFF bool) KeyFunc {
	return func(r *http.Request) (string, error) {
		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
					return ip, nil
				}
			}
		}
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host, nil
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr, nil
		}
		return "unknown", nil
	}
}

// APIKeyFunc builds a KeyFunc reading the API key from the given header.
// Requests without the header fall back to the client IP, so anonymous
// traffic is still admitted under the FREE plan rather than rejected.
func APIKeyFunc(header string) KeyFunc {
	ipKey := ClientIPKeyFunc(true)
	return func(r *http.Request) (string, error) {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return v, nil
		}
		return ipKey(r)
	}
}

// noopLogger is the default logger; it discards everything.
type noopLogger struct{}

func (l *noopLogger) Debugf(format string, args ...interface{}) {}
func (l *noopLogger) Errorf(format string, args ...interface{}) {}
