package authentication

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout is used when no timeout or http client is configured.
const DefaultTimeout = 5 * time.Second

type config struct {
	httpClient *http.Client
	timeout    time.Duration
	telemetry  bool
	transport  Transport
	logger     zerolog.Logger
}

func getConfig(options ...Option) *config {
	cfg := &config{
		timeout:   DefaultTimeout,
		telemetry: true,
		logger:    log.Logger,
	}
	for _, o := range options {
		o(cfg)
	}
	return cfg
}

// An Option modifies the config.
type Option func(*config)

// WithHTTPClient returns an option to configure the http client used by Base.
// The client's own Timeout is left untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = client
	}
}

// WithTimeout returns an option to configure the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = timeout
	}
}

// WithTelemetry returns an option to enable or disable the Auth0-Client header.
func WithTelemetry(enabled bool) Option {
	return func(cfg *config) {
		cfg.telemetry = enabled
	}
}

// WithTransport returns an option to replace the default HTTP transport.
func WithTransport(transport Transport) Option {
	return func(cfg *config) {
		cfg.transport = transport
	}
}

// WithLogger returns an option to configure the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
