package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/diogo/agi/internal/config"
	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

// OpenAIGateway serves the "openai" provider through the chat completions API.
// A custom base URL makes it usable with any OpenAI-compatible server.
type OpenAIGateway struct {
	client  *openai.Client
	baseURL string
}

// NewOpenAIGateway creates an OpenAIGateway. An API key is required unless a
// custom base URL is given.
func NewOpenAIGateway(apiKey, baseURL string) (*OpenAIGateway, error) {
	if strings.TrimSpace(apiKey) == "" && strings.TrimSpace(baseURL) == "" {
		return nil, apierrors.ErrNoAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIGateway{
		client:  openai.NewClientWithConfig(cfg),
		baseURL: cfg.BaseURL,
	}, nil
}

// Generate implements Gateway
func (g *OpenAIGateway) Generate(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}

	turns := flattenTurns(prompt, history, settings, openai.ChatMessageRoleAssistant)
	msgs := make([]openai.ChatCompletionMessage, len(turns))
	for i, t := range turns {
		msgs[i] = openai.ChatCompletionMessage{Role: t.Role, Content: t.Content}
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       settings.Model,
		Messages:    msgs,
		Temperature: float32(settings.Temperature),
		MaxTokens:   settings.MaxOutputTokens,
	})
	if err != nil {
		return "", g.classify(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", apierrors.ErrNoContent
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", apierrors.NewBlockedError(string(choice.FinishReason))
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", apierrors.ErrNoContent
	}
	return choice.Message.Content, nil
}

func (g *OpenAIGateway) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apierrors.NewTimeoutError("chat completion")
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	endpoint := g.baseURL + "/chat/completions"

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.HTTPStatusCode, endpoint, apiErr.Message, "")
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(reqErr.HTTPStatusCode, endpoint, fmt.Sprint(reqErr.Err), "")
	}
	return apierrors.NewNetworkError("chat completion", endpoint, err)
}
