package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	"github.com/diogo/agi/internal/config"
	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

const maxResponseBytes = 8 << 20

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type restRequest struct {
	SystemInstruction *restContent         `json:"systemInstruction,omitempty"`
	Contents          []restContent        `json:"contents"`
	GenerationConfig  restGenerationConfig `json:"generationConfig"`
}

// Generate implements Gateway
func (g *RESTGateway) Generate(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}
	if g.IsClosed() {
		return "", fmt.Errorf("gateway is closed")
	}

	payload, err := buildPayload(prompt, history, settings)
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	endpoint := g.generateURL(settings.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apierrors.NewTimeoutError(settings.Model)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apierrors.NewNetworkError("generate content", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", apierrors.NewNetworkError("read response", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		message := gjson.GetBytes(body, PathErrorMessage).String()
		if message == "" {
			message = "generate content failed"
		}
		return "", statusError(resp.StatusCode, endpoint, message, string(body))
	}

	return parseResponse(body)
}

func (g *RESTGateway) generateURL(model string) string {
	return fmt.Sprintf("%s/%s:generateContent", g.endpoint, url.PathEscape(model))
}

// buildPayload creates the generateContent request body
func buildPayload(prompt string, history []models.Message, settings config.AppSettings) ([]byte, error) {
	contents := make([]restContent, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role == models.RoleModel {
			role = "model"
		}
		contents = append(contents, restContent{Role: role, Parts: []restPart{{Text: m.Text}}})
	}
	contents = append(contents, restContent{Role: "user", Parts: []restPart{{Text: prompt}}})

	return json.Marshal(restRequest{
		SystemInstruction: &restContent{Parts: []restPart{{Text: SystemInstruction(settings)}}},
		Contents:          contents,
		GenerationConfig: restGenerationConfig{
			Temperature:     settings.Temperature,
			MaxOutputTokens: settings.MaxOutputTokens,
		},
	})
}

// parseResponse extracts the reply text from a generateContent response
func parseResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}
	parsed := gjson.ParseBytes(body)

	if reason := parsed.Get(PathBlockReason).String(); reason != "" {
		return "", apierrors.NewBlockedError(reason)
	}
	if !parsed.Get("candidates").IsArray() {
		return "", apierrors.NewParseError("response has no candidates list", "candidates")
	}

	var sb strings.Builder
	parsed.Get(PathCandidateParts).ForEach(func(_, part gjson.Result) bool {
		sb.WriteString(part.String())
		return true
	})

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		if reason := parsed.Get(PathFinishReason).String(); blockedFinishReasons[reason] {
			return "", apierrors.NewBlockedError(reason)
		}
		return "", apierrors.ErrNoContent
	}
	return text, nil
}
