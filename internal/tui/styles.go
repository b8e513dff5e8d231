// Package tui provides the terminal user interface for agi.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
	"github.com/diogo/agi/internal/render"
)

// Color variables (updated from theme)
var (
	colorSurface lipgloss.Color
	colorBorder  lipgloss.Color

	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color

	colorText     lipgloss.Color
	colorTextDim  lipgloss.Color
	colorTextMute lipgloss.Color
)

// Style variables (rebuilt when theme changes)
var (
	headerStyle   lipgloss.Style
	titleStyle    lipgloss.Style
	subtitleStyle lipgloss.Style
	hintStyle     lipgloss.Style

	// Navigation tabs
	tabStyle       lipgloss.Style
	activeTabStyle lipgloss.Style

	contentAreaStyle lipgloss.Style
	pageTitleStyle   lipgloss.Style
	cardStyle        lipgloss.Style
	cardTitleStyle   lipgloss.Style
	promptStyle      lipgloss.Style
	promptActive     lipgloss.Style

	userBubbleStyle      lipgloss.Style
	userLabelStyle       lipgloss.Style
	assistantBubbleStyle lipgloss.Style
	assistantLabelStyle  lipgloss.Style

	inputPanelStyle lipgloss.Style
	inputLabelStyle lipgloss.Style
	loadingStyle    lipgloss.Style

	statusBarStyle  lipgloss.Style
	statusKeyStyle  lipgloss.Style
	statusDescStyle lipgloss.Style
	noticeStyle     lipgloss.Style

	errorStyle lipgloss.Style

	// Settings panel
	configPanelStyle        lipgloss.Style
	configSectionTitleStyle lipgloss.Style
	configMenuItemStyle     lipgloss.Style
	configMenuSelectedStyle lipgloss.Style
	configCursorStyle       lipgloss.Style
	configValueStyle        lipgloss.Style
	configEditStyle         lipgloss.Style
	configStatusOkStyle     lipgloss.Style
	configStatusErrorStyle  lipgloss.Style
)

// activeThemeName is the name of the theme the styles were last built from
var activeThemeName string

func init() {
	ApplyTheme(render.TokyoNightTheme)
}

// ApplyTheme sets the colors from theme and rebuilds every style
func ApplyTheme(theme render.TUITheme) {
	colorSurface = theme.Surface
	colorBorder = theme.Border
	colorPrimary = theme.Primary
	colorSecondary = theme.Secondary
	colorAccent = theme.Accent
	colorWarning = theme.Warning
	colorError = theme.Error
	colorText = theme.Text
	colorTextDim = theme.TextDim
	colorTextMute = theme.TextMute
	activeThemeName = theme.Name

	rebuildStyles()
}

// ApplyThemeName applies the named theme, falling back to the default
func ApplyThemeName(name string) {
	if name == activeThemeName {
		return
	}
	ApplyTheme(render.ThemeOrDefault(name))
}

func rebuildStyles() {
	headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
		Foreground(colorTextMute).
		Italic(true)

	tabStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
		Foreground(colorSurface).
		Background(colorPrimary).
		Bold(true).
		Padding(0, 1)

	contentAreaStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1)

	pageTitleStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSecondary).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(1)

	cardTitleStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true)

	promptStyle = lipgloss.NewStyle().
		Foreground(colorText).
		PaddingLeft(2)

	promptActive = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	userBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorSecondary).
		Padding(0, 1).
		MarginLeft(4)

	userLabelStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true).
		MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Foreground(colorText).
		Padding(0, 1).
		MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)

	inputPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	inputLabelStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	statusBarStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	statusKeyStyle = lipgloss.NewStyle().
		Foreground(colorTextDim).
		Bold(true)

	statusDescStyle = lipgloss.NewStyle().
		Foreground(colorTextMute)

	noticeStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Italic(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true)

	configPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	configSectionTitleStyle = lipgloss.NewStyle().
		Foreground(colorSecondary).
		Bold(true)

	configMenuItemStyle = lipgloss.NewStyle().
		Foreground(colorText)

	configMenuSelectedStyle = lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true)

	configCursorStyle = lipgloss.NewStyle().
		Foreground(colorAccent)

	configValueStyle = lipgloss.NewStyle().
		Foreground(colorTextDim)

	configEditStyle = lipgloss.NewStyle().
		Foreground(colorWarning).
		Underline(true)

	configStatusOkStyle = lipgloss.NewStyle().
		Foreground(colorSecondary)

	configStatusErrorStyle = lipgloss.NewStyle().
		Foreground(colorError)
}

// AssistantBubble renders a model reply as a labelled markdown bubble of the
// given width in the active theme
func AssistantBubble(text string, width int) string {
	opts := render.ForTheme(activeThemeName).WithWidth(width - 4)
	label := assistantLabelStyle.Render("✦ " + models.RoleModel.Label())
	return label + "\n" + assistantBubbleStyle.Width(width).Render(render.Reply(text, opts))
}

// ThinkingText styles the thinking indicator for output outside the TUI
func ThinkingText(s string) string {
	return loadingStyle.Render(s)
}

// SuccessText styles a confirmation line
func SuccessText(s string) string {
	return configStatusOkStyle.Render(s)
}

// WarningText styles a non-fatal failure line
func WarningText(s string) string {
	return configStatusErrorStyle.Render(s)
}

// FormatError returns a styled error message with a hint for the common failure kinds
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	errStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := errors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case errors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: set GEMINI_API_KEY (or the key for your provider) and try again"))
	case errors.IsRateLimitError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: you've hit the usage limit. Try again later or use a different model"))
	case errors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: check your internet connection and try again"))
	case errors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: request timed out. Try again or raise AGI_REQUEST_TIMEOUT"))
	case errors.IsBlockedError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: the provider refused this prompt"))
	}

	return sb.String()
}
