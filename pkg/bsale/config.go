package bsale

import (
	"net/http"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public Bsale REST endpoint.
const DefaultBaseURL = "https://api.bsale.cl/v1"

// Config contains the configuration required to initialize the client.
type Config struct {
	BaseURL     string        `default:"https://api.bsale.cl/v1" validate:"required,url"`
	AccessToken string        `validate:"required"`
	Timeout     time.Duration `default:"30s" validate:"gt=0"`
}

// Option configures client settings using the functional options pattern.
type Option func(*settings)

type settings struct {
	logger     *zap.Logger
	httpClient *http.Client
	limiter    ratelimit.Limiter
}

// WithLogger sets a custom logger for the client.
// If not provided, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithHTTPClient sets a custom HTTP client for outbound requests.
// If not provided, a client with Config.Timeout is used.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithRateLimit caps outbound requests per second. Zero disables the limit.
func WithRateLimit(perSecond int) Option {
	return func(s *settings) {
		if perSecond > 0 {
			s.limiter = ratelimit.New(perSecond)
		}
	}
}

func applyOptions(cfg Config, opts []Option) settings {
	s := settings{
		logger:  zap.NewNop(),
		limiter: ratelimit.NewUnlimited(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return s
}
