package provider

import (
	"net/http"
	"strings"

	"github.com/metalagman/committo/internal/config"
	"github.com/rs/zerolog/log"
)

type options struct {
	httpClient *http.Client
}

// Option customizes New.
type Option func(*options)

// WithHTTPClient makes HTTP backends use c.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// New returns the backend named by cfg.Provider. An empty or unknown name
// falls back to OpenAI.
func New(cfg config.Config, opts ...Option) Provider {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch name {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg, o.httpClient)
	case config.ProviderOllama:
		return NewOllama(cfg, o.httpClient)
	case config.ProviderGemini:
		return NewGemini(cfg, o.httpClient)
	case config.ProviderMock:
		return NewMock(DefaultMockResponse)
	case "":
		log.Debug().Str("fallback", config.DefaultProvider).Msg("no provider configured")
	default:
		log.Warn().Str("provider", cfg.Provider).Str("fallback", config.DefaultProvider).Msg("unknown provider, falling back")
	}
	return NewOpenAI(cfg, o.httpClient)
}
