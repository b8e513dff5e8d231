package api

import (
	"strings"

	"github.com/diogo/agi/internal/config"
	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

const identity = "You are AGI, an advanced general intelligence assistant. " +
	"You understand, analyze, and respond to questions at a high level of reasoning."

// SystemInstruction assembles the system prompt every backend sends: identity,
// persona, reply language, then the user's custom instructions.
func SystemInstruction(s config.AppSettings) string {
	var sb strings.Builder
	sb.WriteString(identity)

	if p, ok := config.PersonaByName(s.Persona); ok {
		sb.WriteString("\n\n")
		sb.WriteString(p.SystemPrompt)
	}
	if lang := strings.TrimSpace(s.Language); lang != "" {
		sb.WriteString("\n\nAlways respond in ")
		sb.WriteString(lang)
		sb.WriteString(".")
	}
	if custom := strings.TrimSpace(s.CustomInstructions); custom != "" {
		sb.WriteString("\n\nAdditional instructions from the user:\n")
		sb.WriteString(custom)
	}
	return sb.String()
}

func validatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return apierrors.ErrEmptyPrompt
	}
	return nil
}

// chatTurn is a provider-neutral message used by backends whose wire format is a
// flat list of role/content pairs.
type chatTurn struct {
	Role    string
	Content string
}

// flattenTurns renders system + history + prompt with the role names a backend
// expects for the model side ("assistant" for OpenAI and Ollama).
func flattenTurns(prompt string, history []models.Message, s config.AppSettings, modelRole string) []chatTurn {
	turns := make([]chatTurn, 0, len(history)+2)
	turns = append(turns, chatTurn{Role: "system", Content: SystemInstruction(s)})
	for _, m := range history {
		role := "user"
		if m.Role == models.RoleModel {
			role = modelRole
		}
		turns = append(turns, chatTurn{Role: role, Content: m.Text})
	}
	return append(turns, chatTurn{Role: "user", Content: prompt})
}

// statusError maps an HTTP status from any backend onto the typed errors
func statusError(status int, endpoint, message, body string) error {
	switch {
	case status == 401 || status == 403:
		return apierrors.NewAuthError(message)
	case status == 429:
		return apierrors.NewUsageLimitError(message)
	case status == 408 || status == 504:
		return apierrors.NewTimeoutError(message)
	default:
		if message == "" {
			message = "request failed"
		}
		return apierrors.NewAPIErrorWithBody(status, endpoint, message, body)
	}
}
