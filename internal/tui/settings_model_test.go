package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/agi/internal/config"
	"github.com/diogo/agi/internal/models"
	"github.com/diogo/agi/internal/storage"
)

type failingSaver struct {
	current config.AppSettings
}

func (f *failingSaver) Current() config.AppSettings  { return f.current }
func (f *failingSaver) Save(config.AppSettings) error { return errors.New("disk full") }

func newPanel(t *testing.T) (SettingsModel, *config.SettingsStore) {
	t.Helper()
	store := config.NewSettingsStore(storage.NewMemoryKV(), zerolog.Nop())
	return NewSettingsModel(store), store
}

func pressKey(m SettingsModel, k tea.KeyType) SettingsModel {
	m, _ = m.Update(tea.KeyMsg{Type: k})
	return m
}

func moveTo(m SettingsModel, key string) SettingsModel {
	for i, row := range settingsRows {
		if row.key == key {
			m.cursor = i
		}
	}
	return m
}

func TestCycle(t *testing.T) {
	list := []string{"a", "b", "c"}
	tests := []struct {
		current string
		forward bool
		want    string
	}{
		{"a", true, "b"},
		{"c", true, "a"},
		{"a", false, "c"},
		{"b", false, "a"},
		{"zzz", true, "a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cycle(list, tt.current, tt.forward), "cycle(%q, %v)", tt.current, tt.forward)
	}
	assert.Equal(t, "x", cycle(nil, "x", true))
}

func TestSettingsModel_ProviderChangeSuggestsModel(t *testing.T) {
	m, _ := newPanel(t)
	m = moveTo(m, "provider")

	m = pressKey(m, tea.KeyRight)
	require.Equal(t, string(models.ProviderGeminiREST), m.Draft().Provider)
	assert.Equal(t, models.Model25Flash.Name, m.Draft().Model, "gemini-rest shares the gemini catalog")

	m = pressKey(m, tea.KeyRight)
	require.Equal(t, string(models.ProviderOpenAI), m.Draft().Provider)
	assert.Equal(t, models.ModelGPT4o.Name, m.Draft().Model, "first openai model")
}

func TestSettingsModel_NumberBounds(t *testing.T) {
	m, _ := newPanel(t)

	m = moveTo(m, "temperature")
	for i := 0; i < 30; i++ {
		m = pressKey(m, tea.KeyRight)
	}
	assert.Equal(t, config.MaxTemperature, m.Draft().Temperature)

	m = moveTo(m, "maxOutputTokens")
	for i := 0; i < 20; i++ {
		m = pressKey(m, tea.KeyLeft)
	}
	assert.Equal(t, config.MinMaxOutputTokens, m.Draft().MaxOutputTokens)
}

func TestSettingsModel_TextEdit(t *testing.T) {
	m, store := newPanel(t)
	m = moveTo(m, "language")

	m = pressKey(m, tea.KeyEnter)
	require.True(t, m.editing, "enter should start editing a text field")
	assert.Equal(t, "English", m.input.Value(), "editor should start with the current value")

	m.input.SetValue("Portuguese")
	m = pressKey(m, tea.KeyEnter)
	assert.False(t, m.editing, "enter should commit the edit")
	assert.Equal(t, "Portuguese", m.Draft().Language)
	assert.Equal(t, "English", store.Current().Language, "edits stay in the draft until save")
}

func TestSettingsModel_EditCancel(t *testing.T) {
	m, _ := newPanel(t)
	m = moveTo(m, "model")

	m = pressKey(m, tea.KeyEnter)
	m.input.SetValue("something-else")
	m = pressKey(m, tea.KeyEsc)

	assert.False(t, m.editing, "esc while editing cancels the edit")
	assert.False(t, m.Closed(), "esc while editing keeps the panel open")
	assert.Equal(t, models.DefaultModel.Name, m.Draft().Model, "cancelled edit must not apply")
}

func TestSettingsModel_InvalidNumberReportsError(t *testing.T) {
	m, _ := newPanel(t)
	m = moveTo(m, "temperature")

	m = pressKey(m, tea.KeyEnter)
	m.input.SetValue("warm")
	m = pressKey(m, tea.KeyEnter)

	assert.True(t, m.feedbackErr, "unparseable temperature should report an error")
	assert.Equal(t, 0.7, m.Draft().Temperature)
}

func TestSettingsModel_SaveValidates(t *testing.T) {
	m, store := newPanel(t)

	m = moveTo(m, "language")
	m = pressKey(m, tea.KeyEnter)
	m.input.SetValue("")
	m = pressKey(m, tea.KeyEnter)

	m = moveTo(m, "save")
	m = pressKey(m, tea.KeyEnter)

	assert.False(t, m.Closed(), "an invalid draft must keep the panel open")
	assert.True(t, m.feedbackErr)
	assert.Contains(t, m.feedback, "language")
	assert.Equal(t, "English", store.Current().Language, "invalid draft must not be persisted")
}

func TestSettingsModel_SaveError(t *testing.T) {
	m := NewSettingsModel(&failingSaver{current: config.DefaultSettings()})
	m = moveTo(m, "save")
	m = pressKey(m, tea.KeyEnter)

	assert.False(t, m.Saved())
	assert.False(t, m.Closed(), "a failed save keeps the panel open")
	assert.Contains(t, m.feedback, "disk full")
}

func TestSettingsModel_ResetDraft(t *testing.T) {
	m, store := newPanel(t)
	m = moveTo(m, "persona")
	m = pressKey(m, tea.KeyRight)
	require.NotEqual(t, config.DefaultSettings().Persona, m.Draft().Persona, "persona should change")

	m = moveTo(m, "reset")
	m = pressKey(m, tea.KeyEnter)
	assert.Equal(t, config.DefaultSettings(), m.Draft())
	assert.False(t, m.Closed(), "reset only touches the draft")

	m = moveTo(m, "save")
	m = pressKey(m, tea.KeyEnter)
	assert.True(t, m.Saved(), "save should succeed")
	assert.Equal(t, config.DefaultSettings(), store.Current(), "defaults should be persisted")
}

func TestSettingsModel_View(t *testing.T) {
	m, _ := newPanel(t)
	out := m.View(80)
	for _, want := range []string{"Settings", "Provider", "gemini", "Temperature", "Save"} {
		assert.Contains(t, out, want)
	}
}
