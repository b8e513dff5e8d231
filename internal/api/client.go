package api

import (
	"fmt"
	"strings"
	"sync"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

// HTTPDoer is the slice of tls_client.HttpClient the REST gateway uses
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTGateway calls the generativelanguage REST API directly over a
// browser-profile TLS client. It backs the "gemini-rest" provider.
type RESTGateway struct {
	httpClient HTTPDoer
	apiKey     string
	endpoint   string
	timeout    int
	mu         sync.RWMutex
	closed     bool
}

// RESTOption is a function that configures the REST gateway
type RESTOption func(*RESTGateway)

// WithHTTPClient replaces the TLS client, mostly for tests
func WithHTTPClient(c HTTPDoer) RESTOption {
	return func(g *RESTGateway) {
		g.httpClient = c
	}
}

// WithEndpoint overrides the models base URL
func WithEndpoint(endpoint string) RESTOption {
	return func(g *RESTGateway) {
		g.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithTimeoutSeconds sets the transport timeout of the default client
func WithTimeoutSeconds(seconds int) RESTOption {
	return func(g *RESTGateway) {
		g.timeout = seconds
	}
}

// NewRESTGateway creates a RESTGateway authenticated with apiKey
func NewRESTGateway(apiKey string, opts ...RESTOption) (*RESTGateway, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apierrors.ErrNoAPIKey
	}

	g := &RESTGateway{
		apiKey:   apiKey,
		endpoint: models.EndpointGeminiREST,
		timeout:  300,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(g.timeout),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		g.httpClient = httpClient
	}

	return g, nil
}

// Close marks the gateway closed; later calls fail
func (g *RESTGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// IsClosed reports whether Close was called
func (g *RESTGateway) IsClosed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.closed
}
