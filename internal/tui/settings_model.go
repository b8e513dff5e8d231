package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/agi/internal/config"
	"github.com/diogo/agi/internal/models"
	"github.com/diogo/agi/internal/render"
)

// SettingsSaver is the part of config.SettingsStore the panel needs
type SettingsSaver interface {
	Current() config.AppSettings
	Save(next config.AppSettings) error
}

type fieldKind int

const (
	kindChoice fieldKind = iota
	kindNumber
	kindText
	kindAction
)

// settingsRow is one line of the panel. key is the config.Apply field name.
type settingsRow struct {
	key   string
	label string
	kind  fieldKind
}

var settingsRows = []settingsRow{
	{key: "provider", label: "Provider", kind: kindChoice},
	{key: "model", label: "Model", kind: kindText},
	{key: "temperature", label: "Temperature", kind: kindNumber},
	{key: "maxOutputTokens", label: "Max output tokens", kind: kindNumber},
	{key: "persona", label: "Persona", kind: kindChoice},
	{key: "language", label: "Language", kind: kindText},
	{key: "customInstructions", label: "Custom instructions", kind: kindText},
	{key: "theme", label: "Theme", kind: kindChoice},
	{key: "save", label: "Save", kind: kindAction},
	{key: "reset", label: "Restore defaults", kind: kindAction},
}

const (
	temperatureStep = 0.1
	maxTokensStep   = 256
)

// SettingsModel edits a draft copy of the settings. Nothing is persisted until
// the user picks Save; closing the panel discards the draft.
type SettingsModel struct {
	store SettingsSaver
	draft config.AppSettings

	cursor  int
	editing bool
	input   textinput.Model

	feedback    string
	feedbackErr bool

	// closed is set when the panel should be dismissed; saved when it was
	// dismissed by a successful save
	closed bool
	saved  bool
}

// NewSettingsModel opens the panel with a draft of the current settings
func NewSettingsModel(store SettingsSaver) SettingsModel {
	ti := textinput.New()
	ti.CharLimit = 2000
	ti.Prompt = "› "

	return SettingsModel{
		store: store,
		draft: store.Current(),
		input: ti,
	}
}

// Draft returns the settings being edited
func (m SettingsModel) Draft() config.AppSettings {
	return m.draft
}

// Closed reports whether the panel asked to be dismissed
func (m SettingsModel) Closed() bool {
	return m.closed
}

// Saved reports whether the panel was dismissed by a successful save
func (m SettingsModel) Saved() bool {
	return m.saved
}

// Update handles key input for the panel
func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.editing {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.editing {
		return m.updateEditing(key)
	}

	switch key.String() {
	case "esc":
		m.closed = true

	case "up", "k":
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(settingsRows) - 1
		}

	case "down", "j":
		m.cursor++
		if m.cursor >= len(settingsRows) {
			m.cursor = 0
		}

	case "left", "h":
		m.step(false)

	case "right", "l":
		m.step(true)

	case "enter", " ":
		return m.handleSelect()
	}

	return m, nil
}

func (m SettingsModel) updateEditing(key tea.KeyMsg) (SettingsModel, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil

	case "enter":
		row := settingsRows[m.cursor]
		m.editing = false
		m.input.Blur()
		m.set(row.key, m.input.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m SettingsModel) handleSelect() (SettingsModel, tea.Cmd) {
	row := settingsRows[m.cursor]
	switch row.kind {
	case kindChoice:
		m.step(true)

	case kindText, kindNumber:
		m.editing = true
		m.input.SetValue(fieldValue(m.draft, row.key))
		m.input.CursorEnd()
		return m, m.input.Focus()

	case kindAction:
		switch row.key {
		case "save":
			if err := m.store.Save(m.draft); err != nil {
				m.feedback = fmt.Sprintf("Error: %v", err)
				m.feedbackErr = true
				return m, nil
			}
			m.saved = true
			m.closed = true
		case "reset":
			m.draft = config.DefaultSettings()
			m.feedback = "Defaults restored in draft, choose Save to keep them"
			m.feedbackErr = false
		}
	}
	return m, nil
}

// set applies one field through config.Apply so the panel and
// `agi settings set` parse values identically
func (m *SettingsModel) set(key, value string) {
	next, err := config.Apply(m.draft, []string{key + "=" + value})
	if err != nil {
		m.feedback = fmt.Sprintf("Error: %v", err)
		m.feedbackErr = true
		return
	}
	m.draft = next
	m.feedback = ""
	m.feedbackErr = false
}

// step moves a choice or number field one notch
func (m *SettingsModel) step(forward bool) {
	row := settingsRows[m.cursor]
	switch row.key {
	case "provider":
		providers := make([]string, 0, len(models.AllProviders()))
		for _, p := range models.AllProviders() {
			providers = append(providers, string(p))
		}
		m.set("provider", cycle(providers, m.draft.Provider, forward))
		suggested := models.ModelsFor(models.Provider(m.draft.Provider))
		if len(suggested) > 0 && !containsString(suggested, m.draft.Model) {
			m.draft.Model = suggested[0]
		}

	case "model":
		suggested := models.ModelsFor(models.Provider(m.draft.Provider))
		if len(suggested) > 0 {
			m.set("model", cycle(suggested, m.draft.Model, forward))
		}

	case "persona":
		m.set("persona", cycle(config.PersonaNames(), m.draft.Persona, forward))

	case "theme":
		m.set("theme", cycle(config.AvailableThemes(), m.draft.Theme, forward))

	case "temperature":
		t := m.draft.Temperature - temperatureStep
		if forward {
			t = m.draft.Temperature + temperatureStep
		}
		t = math.Round(t*10) / 10
		t = math.Max(config.MinTemperature, math.Min(config.MaxTemperature, t))
		m.draft.Temperature = t

	case "maxOutputTokens":
		n := m.draft.MaxOutputTokens - maxTokensStep
		if forward {
			n = m.draft.MaxOutputTokens + maxTokensStep
		}
		if n < config.MinMaxOutputTokens {
			n = config.MinMaxOutputTokens
		}
		if n > config.MaxMaxOutputTokens {
			n = config.MaxMaxOutputTokens
		}
		m.draft.MaxOutputTokens = n
	}
}

// cycle returns the neighbour of current in list. An unknown current yields
// the first element.
func cycle(list []string, current string, forward bool) string {
	if len(list) == 0 {
		return current
	}
	idx := -1
	for i, v := range list {
		if v == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return list[0]
	}
	if forward {
		return list[(idx+1)%len(list)]
	}
	return list[(idx-1+len(list))%len(list)]
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func fieldValue(s config.AppSettings, key string) string {
	switch key {
	case "provider":
		return s.Provider
	case "model":
		return s.Model
	case "temperature":
		return strconv.FormatFloat(s.Temperature, 'f', -1, 64)
	case "maxOutputTokens":
		return strconv.Itoa(s.MaxOutputTokens)
	case "persona":
		return s.Persona
	case "language":
		return s.Language
	case "customInstructions":
		return s.CustomInstructions
	case "theme":
		return s.Theme
	}
	return ""
}

// View renders the panel
func (m SettingsModel) View(width int) string {
	if width < 40 {
		width = 40
	}

	var lines []string
	lines = append(lines, configSectionTitleStyle.Render("⚙ Settings"), "")

	for i, row := range settingsRows {
		if row.kind == kindAction && row.key == "save" {
			lines = append(lines, "")
		}

		cursor := "  "
		style := configMenuItemStyle
		if i == m.cursor {
			cursor = configCursorStyle.Render("▸ ")
			style = configMenuSelectedStyle
		}

		if row.kind == kindAction {
			lines = append(lines, cursor+style.Render(row.label))
			continue
		}

		label := style.Render(fmt.Sprintf("%-20s", row.label))
		var value string
		switch {
		case m.editing && i == m.cursor:
			value = m.input.View()
		case row.key == "customInstructions" && m.draft.CustomInstructions == "":
			value = hintStyle.Render("(none)")
		case row.kind == kindChoice:
			value = configValueStyle.Render("‹ " + fieldValue(m.draft, row.key) + " ›")
		default:
			value = configValueStyle.Render(truncate(fieldValue(m.draft, row.key), width-30))
		}
		lines = append(lines, cursor+label+value)
	}

	if p, ok := config.PersonaByName(m.draft.Persona); ok {
		lines = append(lines, "", hintStyle.Render(p.Description))
	}

	if m.feedback != "" {
		style := configStatusOkStyle
		if m.feedbackErr {
			style = configStatusErrorStyle
		}
		lines = append(lines, "", style.Render(m.feedback))
	}

	lines = append(lines, "", m.renderStatusBar())

	return configPanelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m SettingsModel) renderStatusBar() string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"↑↓", "Navigate"},
		{"←→", "Change"},
		{"Enter", "Edit/Select"},
		{"Esc", "Close"},
	}
	if m.editing {
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"Enter", "Apply"},
			{"Esc", "Cancel"},
		}
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return strings.Join(items, "  │  ")
}

// themeFor returns the TUI theme a draft selects
func themeFor(s config.AppSettings) render.TUITheme {
	return render.ThemeOrDefault(s.Theme)
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
