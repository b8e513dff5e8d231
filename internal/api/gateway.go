// Package api implements the response gateway: the boundary between the chat
// session and the generative backends (Gemini SDK, Gemini REST, OpenAI, Ollama).
package api

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/diogo/agi/internal/config"
	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

// Gateway produces a model reply for prompt given the prior history and the
// settings in effect. history never contains prompt itself.
type Gateway interface {
	Generate(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error)
}

// GatewayFunc adapts a function to the Gateway interface
type GatewayFunc func(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error)

// Generate calls f
func (f GatewayFunc) Generate(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error) {
	return f(ctx, prompt, history, settings)
}

// Credentials carries what each backend needs to authenticate
type Credentials struct {
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaHost    string
}

// CredentialsFromRuntime extracts the backend credentials from the runtime config
func CredentialsFromRuntime(rt config.Runtime) Credentials {
	return Credentials{
		GeminiAPIKey:  rt.GeminiAPIKey,
		OpenAIAPIKey:  rt.OpenAIAPIKey,
		OpenAIBaseURL: rt.OpenAIBaseURL,
		OllamaHost:    rt.OllamaHost,
	}
}

// BackendFactory builds the gateway for one provider
type BackendFactory func(Credentials) (Gateway, error)

// Router dispatches every request to the backend named by settings.Provider.
// Backends are built on first use and cached, so a provider saved in settings
// takes effect on the next send.
type Router struct {
	mu        sync.Mutex
	creds     Credentials
	factories map[models.Provider]BackendFactory
	backends  map[models.Provider]Gateway
	logger    zerolog.Logger
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithBackend installs a ready-made gateway for provider p
func WithBackend(p models.Provider, g Gateway) RouterOption {
	return func(r *Router) {
		r.backends[p] = g
	}
}

// WithFactory replaces the constructor used for provider p
func WithFactory(p models.Provider, f BackendFactory) RouterOption {
	return func(r *Router) {
		r.factories[p] = f
	}
}

// NewRouter creates a Router with the default backend constructors
func NewRouter(creds Credentials, logger zerolog.Logger, opts ...RouterOption) *Router {
	r := &Router{
		creds: creds,
		factories: map[models.Provider]BackendFactory{
			models.ProviderGemini: func(c Credentials) (Gateway, error) {
				return NewGenAIGateway(context.Background(), c.GeminiAPIKey)
			},
			models.ProviderGeminiREST: func(c Credentials) (Gateway, error) {
				return NewRESTGateway(c.GeminiAPIKey)
			},
			models.ProviderOpenAI: func(c Credentials) (Gateway, error) {
				return NewOpenAIGateway(c.OpenAIAPIKey, c.OpenAIBaseURL)
			},
			models.ProviderOllama: func(c Credentials) (Gateway, error) {
				return NewOllamaGateway(c.OllamaHost, nil)
			},
		},
		backends: make(map[models.Provider]Gateway),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate implements Gateway
func (r *Router) Generate(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}
	g, err := r.backend(models.Provider(settings.Provider))
	if err != nil {
		return "", err
	}
	return g.Generate(ctx, prompt, history, settings)
}

func (r *Router) backend(p models.Provider) (Gateway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.backends[p]; ok {
		return g, nil
	}
	factory, ok := r.factories[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apierrors.ErrUnknownProvider, p)
	}
	g, err := factory(r.creds)
	if err != nil {
		return nil, fmt.Errorf("init %s backend: %w", p, err)
	}
	r.logger.Debug().Str("provider", string(p)).Msg("gateway backend ready")
	r.backends[p] = g
	return g, nil
}

// Close releases every backend that holds resources
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for p, g := range r.backends {
		if c, ok := g.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
		delete(r.backends, p)
	}
	return first
}
