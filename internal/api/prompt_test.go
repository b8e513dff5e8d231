package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/agi/internal/config"
	"github.com/diogo/agi/internal/models"
)

func TestSystemInstruction(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Persona = config.PersonaConcise
	settings.Language = "Portuguese"
	settings.CustomInstructions = "Call me Ada."

	got := SystemInstruction(settings)

	persona, _ := config.PersonaByName(config.PersonaConcise)
	for _, want := range []string{identity, persona.SystemPrompt, "Always respond in Portuguese.", "Call me Ada."} {
		assert.Contains(t, got, want)
	}

	// Persona first, custom instructions last
	assert.Less(t, strings.Index(got, persona.SystemPrompt), strings.Index(got, "Call me Ada."),
		"custom instructions should follow the persona prompt")
}

func TestSystemInstruction_OmitsEmptyCustomInstructions(t *testing.T) {
	got := SystemInstruction(config.DefaultSettings())
	assert.NotContains(t, got, "Additional instructions")
}

func TestFlattenTurns(t *testing.T) {
	history := []models.Message{models.UserMessage("u1"), models.ModelMessage("m1")}
	turns := flattenTurns("u2", history, config.DefaultSettings(), "assistant")

	want := []chatTurn{
		{Role: "system"},
		{Role: "user", Content: "u1"},
		{Role: "assistant", Content: "m1"},
		{Role: "user", Content: "u2"},
	}
	require.Len(t, turns, len(want))
	assert.Equal(t, want[1:], turns[1:])
	assert.Equal(t, "system", turns[0].Role)
	assert.NotEmpty(t, turns[0].Content, "first turn should carry the system prompt")
}
