package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"github.com/diogo/agi/internal/config"
	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

// OllamaGateway serves the "ollama" provider from a local Ollama server
type OllamaGateway struct {
	host   string
	client *ollama.Client
}

// NewOllamaGateway creates an OllamaGateway for host. A nil httpClient uses a
// fresh http.Client.
func NewOllamaGateway(host string, httpClient *http.Client) (*OllamaGateway, error) {
	if strings.TrimSpace(host) == "" {
		host = models.EndpointOllama
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q: missing scheme or host", host)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaGateway{
		host:   host,
		client: ollama.NewClient(u, httpClient),
	}, nil
}

// Generate implements Gateway
func (g *OllamaGateway) Generate(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}

	turns := flattenTurns(prompt, history, settings, "assistant")
	msgs := make([]ollama.Message, len(turns))
	for i, t := range turns {
		msgs[i] = ollama.Message{Role: t.Role, Content: t.Content}
	}

	stream := false
	req := ollama.ChatRequest{
		Model:    settings.Model,
		Messages: msgs,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": settings.Temperature,
			"num_predict": settings.MaxOutputTokens,
		},
	}

	var sb strings.Builder
	if err := g.client.Chat(ctx, &req, func(res ollama.ChatResponse) error {
		sb.WriteString(res.Message.Content)
		return nil
	}); err != nil {
		return "", g.classify(ctx, err)
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", apierrors.ErrNoContent
	}
	return text, nil
}

func (g *OllamaGateway) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierrors.NewTimeoutError("ollama chat")
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	endpoint := g.host + "/api/chat"

	var statusErr ollama.StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.ErrorMessage
		if msg == "" {
			msg = statusErr.Status
		}
		return statusError(statusErr.StatusCode, endpoint, msg, "")
	}
	return apierrors.NewNetworkError("ollama chat", endpoint, err)
}
