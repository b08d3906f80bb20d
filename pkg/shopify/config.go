package shopify

import (
	"net/http"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Config contains the configuration required to initialize the client.
type Config struct {
	// Store is the shop domain, e.g. example.myshopify.com.
	Store       string        `validate:"required,hostname"`
	AccessToken string        `validate:"required"`
	APIVersion  string        `default:"2024-01" validate:"required"`
	Timeout     time.Duration `default:"30s" validate:"gt=0"`

	// Endpoint overrides the GraphQL URL derived from Store.
	Endpoint string `validate:"omitempty,url"`
}

// Option configures client settings using the functional options pattern.
type Option func(*settings)

type settings struct {
	logger     *zap.Logger
	httpClient *http.Client
	limiter    ratelimit.Limiter
}

// WithLogger sets a custom logger for the client.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithHTTPClient sets a custom HTTP client for outbound requests.
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
