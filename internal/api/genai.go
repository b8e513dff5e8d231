package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/diogo/agi/internal/config"
	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

// GenAIGateway talks to Gemini through the official Go SDK. It backs the
// default "gemini" provider.
type GenAIGateway struct {
	client *genai.Client
}

// NewGenAIGateway creates the SDK client. Extra options are appended after the
// API key, which lets tests point the client at a local endpoint.
func NewGenAIGateway(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GenAIGateway, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apierrors.ErrNoAPIKey
	}
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GenAIGateway{client: client}, nil
}

// Generate implements Gateway
func (g *GenAIGateway) Generate(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}

	model := g.client.GenerativeModel(settings.Model)
	configureModel(model, settings)

	cs := model.StartChat()
	cs.History = toGenAIHistory(history)

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGenAIError(err, settings.Model)
	}
	return extractText(resp)
}

// Close releases the SDK client
func (g *GenAIGateway) Close() error {
	return g.client.Close()
}

func configureModel(model *genai.GenerativeModel, s config.AppSettings) {
	model.SetTemperature(float32(s.Temperature))

	maxTokens := s.MaxOutputTokens
	if maxTokens > math.MaxInt32 {
		maxTokens = math.MaxInt32
	}
	model.SetMaxOutputTokens(int32(maxTokens)) // #nosec G115

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemInstruction(s))},
	}
}

func toGenAIHistory(history []models.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == models.RoleModel {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}
	return out
}

// extractText joins the text parts of the first candidate
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", apierrors.ErrNoContent
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", apierrors.NewBlockedError(fb.BlockReason.String())
	}
	if len(resp.Candidates) == 0 {
		return "", apierrors.ErrNoContent
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		if cand.FinishReason == genai.FinishReasonSafety {
			return "", apierrors.NewBlockedError(cand.FinishReason.String())
		}
		return "", apierrors.ErrNoContent
	}
	return text, nil
}

func classifyGenAIError(err error, model string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apierrors.NewTimeoutError(model)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return apierrors.NewBlockedError(blocked.Error())
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return statusError(gErr.Code, model, gErr.Message, gErr.Body)
	}

	return apierrors.NewNetworkError("generate", model, err)
}
