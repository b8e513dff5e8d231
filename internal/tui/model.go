package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/agi/internal/chat"
	"github.com/diogo/agi/internal/history"
	"github.com/diogo/agi/internal/models"
	"github.com/diogo/agi/internal/thinking"
	"github.com/diogo/agi/internal/views"
)

// ChatStore is the conversation surface the TUI drives. *chat.Store implements it.
type ChatStore interface {
	Begin(text string) (*chat.Request, error)
	Execute(ctx context.Context, req *chat.Request) (string, error)
	Settle(req *chat.Request, reply string, err error) *chat.Request
	ResetSession()
	Messages() []models.Message
	Pending() bool
	Queued() int
	SessionID() string
	LastReply() (string, bool)
	LastError() error
}

// Message types for the TUI
type (
	replyMsg struct {
		req   *chat.Request
		reply string
		err   error
	}
	thinkingFrameMsg struct {
		frames <-chan string
		text   string
		ok     bool
	}
	noticeClearMsg struct {
		seq int
	}
)

const noticeTimeout = 3 * time.Second

// Config wires the model to the application services
type Config struct {
	Chat      ChatStore
	Views     *views.Controller
	Settings  SettingsSaver
	Indicator *thinking.Indicator

	// Active returns the settings requests are sent with, which may carry
	// session overrides on top of Settings.Current. Defaults to Settings.Current.
	Active chat.SettingsFunc

	// ExportDir receives /export transcripts
	ExportDir string

	// Copy writes text to the clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error

	// Context bounds every gateway call. Defaults to context.Background.
	Context context.Context
}

// pageRenderer draws the content panel of one view
type pageRenderer func(m Model, width int) string

// pageRenderers is the closed dispatch table for views.All()
var pageRenderers = map[views.View]pageRenderer{
	views.Home:         renderHome,
	views.Conversation: renderConversation,
	views.Features:     renderFeatures,
	views.Examples:     renderExamples,
	views.Safety:       renderSafety,
}

// Model represents the TUI state
type Model struct {
	chat      ChatStore
	views     *views.Controller
	settings  SettingsSaver
	active    chat.SettingsFunc
	indicator *thinking.Indicator
	frames    <-chan string
	exportDir string
	copy      func(string) error
	ctx       context.Context

	// UI components
	viewport viewport.Model
	textarea textarea.Model

	// State
	ready        bool
	thinkingText string
	promptCursor int
	settingsOpen bool
	panel        SettingsModel
	renderedLen  int
	err          error
	notice       string
	noticeSeq    int

	// Dimensions
	width  int
	height int
}

// NewModel creates the TUI model
func NewModel(cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask AGI anything..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	m := Model{
		chat:      cfg.Chat,
		views:     cfg.Views,
		settings:  cfg.Settings,
		active:    cfg.Active,
		indicator: cfg.Indicator,
		exportDir: cfg.ExportDir,
		copy:      cfg.Copy,
		ctx:       cfg.Context,
		textarea:  ta,
		viewport:  viewport.New(76, 10),
	}
	if m.views == nil {
		m.views = views.NewController()
	}
	if m.indicator == nil {
		m.indicator = thinking.New()
	}
	if m.active == nil {
		m.active = m.settings.Current
	}
	if m.copy == nil {
		m.copy = clipboard.WriteAll
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	m.thinkingText = thinking.Base

	ApplyThemeName(m.settings.Current().Theme)
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case replyMsg:
		cmd := m.handleReply(msg)
		return m, cmd

	case thinkingFrameMsg:
		if !msg.ok || msg.frames != m.frames {
			return m, nil
		}
		m.thinkingText = msg.text
		return m, waitForFrame(m.frames)

	case noticeClearMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.indicator.Stop()
			return m, tea.Quit
		}
		if m.settingsOpen {
			return m.updateSettings(msg)
		}
		if handled, next, cmd := m.handleKey(msg); handled {
			return next, cmd
		}
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		if m.views.Active() == views.Conversation {
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	if m.settingsOpen {
		m.panel, cmd = m.panel.Update(msg)
		return m, cmd
	}
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleKey processes the application key bindings. It reports false for
// keys that belong to the text area.
func (m Model) handleKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc":
		m.indicator.Stop()
		return true, m, tea.Quit

	case "tab":
		m.views.Cycle(true)
		m.promptCursor = 0
		return true, m, nil

	case "shift+tab":
		m.views.Cycle(false)
		m.promptCursor = 0
		return true, m, nil

	case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5":
		idx := int(key[len(key)-1] - '1')
		if all := views.All(); idx < len(all) {
			m.views.Navigate(all[idx])
			m.promptCursor = 0
		}
		return true, m, nil

	case "ctrl+n":
		m.chat.ResetSession()
		m.err = nil
		m.promptCursor = 0
		m.renderedLen = -1
		if !m.chat.Pending() {
			m.stopThinking()
		}
		m.refreshViewport()
		cmd := m.setNotice("New chat started")
		return true, m, cmd

	case "ctrl+s":
		m.settingsOpen = true
		m.panel = NewSettingsModel(m.settings)
		m.textarea.Blur()
		return true, m, nil

	case "ctrl+y":
		reply, ok := m.chat.LastReply()
		if !ok {
			cmd := m.setNotice("Nothing to copy yet")
			return true, m, cmd
		}
		if err := m.copy(reply); err != nil {
			cmd := m.setNotice(fmt.Sprintf("Copy failed: %v", err))
			return true, m, cmd
		}
		cmd := m.setNotice("Reply copied to clipboard")
		return true, m, cmd

	case "up", "down":
		if prompts := m.selectablePrompts(); len(prompts) > 0 && m.inputEmpty() {
			if key == "up" {
				m.promptCursor = (m.promptCursor - 1 + len(prompts)) % len(prompts)
			} else {
				m.promptCursor = (m.promptCursor + 1) % len(prompts)
			}
			return true, m, nil
		}

	case "enter":
		input := strings.TrimSpace(m.textarea.Value())
		if input == "" {
			if prompts := m.selectablePrompts(); len(prompts) > 0 {
				p := prompts[m.promptCursor%len(prompts)]
				cmd := m.submit(p.Prompt)
				return true, m, cmd
			}
			return true, m, nil
		}
		m.textarea.Reset()
		cmd := m.runInput(input)
		return true, m, cmd
	}
	return false, m, nil
}

// runInput handles slash commands, then sends anything else
func (m *Model) runInput(input string) tea.Cmd {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/exit", "/quit":
		m.indicator.Stop()
		return tea.Quit
	case "/new":
		m.chat.ResetSession()
		m.renderedLen = -1
		if !m.chat.Pending() {
			m.stopThinking()
		}
		m.refreshViewport()
		return m.setNotice("New chat started")
	case "/export":
		name := ""
		if len(fields) > 1 {
			name = fields[1]
		}
		return m.export(name)
	}
	return m.submit(input)
}

// submit starts a send. A send made while a reply is outstanding is queued by
// the store and dispatched when the reply ahead of it settles.
func (m *Model) submit(text string) tea.Cmd {
	req, err := m.chat.Begin(text)
	if err != nil {
		return m.setNotice(err.Error())
	}
	m.err = nil
	m.promptCursor = 0
	m.refreshViewport()
	m.viewport.GotoBottom()

	if req == nil {
		return m.setNotice(fmt.Sprintf("Queued (%d waiting)", m.chat.Queued()))
	}
	return tea.Batch(m.execute(req), m.startThinking())
}

func (m Model) execute(req *chat.Request) tea.Cmd {
	store, ctx := m.chat, m.ctx
	return func() tea.Msg {
		reply, err := store.Execute(ctx, req)
		return replyMsg{req: req, reply: reply, err: err}
	}
}

func (m *Model) handleReply(msg replyMsg) tea.Cmd {
	next := m.chat.Settle(msg.req, msg.reply, msg.err)
	m.err = m.chat.LastError()
	m.refreshViewport()
	m.viewport.GotoBottom()

	if next != nil {
		return m.execute(next)
	}
	if !m.chat.Pending() {
		m.stopThinking()
	}
	return nil
}

func (m *Model) startThinking() tea.Cmd {
	if m.indicator.Running() {
		return nil
	}
	m.frames = m.indicator.Start()
	m.thinkingText = thinking.Base
	return waitForFrame(m.frames)
}

func (m *Model) stopThinking() {
	m.indicator.Stop()
	m.frames = nil
	m.thinkingText = thinking.Base
}

// waitForFrame blocks on the indicator channel and delivers the next frame.
// A closed channel yields ok=false, which ends the chain.
func waitForFrame(frames <-chan string) tea.Cmd {
	if frames == nil {
		return nil
	}
	return func() tea.Msg {
		text, ok := <-frames
		return thinkingFrameMsg{frames: frames, text: text, ok: ok}
	}
}

func (m *Model) export(name string) tea.Cmd {
	format, err := history.ParseFormat(name)
	if err != nil {
		return m.setNotice(err.Error())
	}
	msgs := m.chat.Messages()
	if len(msgs) == 0 {
		return m.setNotice("Nothing to export yet")
	}
	t := history.NewTranscript(m.chat.SessionID(), msgs, m.active(), time.Now())
	path, err := history.WriteFile(m.exportDir, t, format)
	if err != nil {
		return m.setNotice(fmt.Sprintf("Export failed: %v", err))
	}
	return m.setNotice("Exported to " + path)
}

func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	seq := m.noticeSeq
	return tea.Tick(noticeTimeout, func(time.Time) tea.Msg {
		return noticeClearMsg{seq: seq}
	})
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.closeSettings()
		return m, nil
	}

	var cmd tea.Cmd
	m.panel, cmd = m.panel.Update(msg)
	if m.panel.Closed() {
		saved := m.panel.Saved()
		m.closeSettings()
		if saved {
			ApplyTheme(themeFor(m.settings.Current()))
			m.renderedLen = -1
			m.refreshViewport()
			cmd := m.setNotice("Settings saved")
			return m, cmd
		}
	}
	return m, cmd
}

func (m *Model) closeSettings() {
	m.settingsOpen = false
	m.textarea.Focus()
}

// selectablePrompts returns the prompts offered on the active page. The
// conversation suggestions are only offered while the session is empty.
func (m Model) selectablePrompts() []views.Suggestion {
	v := m.views.Active()
	page, ok := views.PageFor(v)
	if !ok {
		return nil
	}
	if v == views.Conversation && len(m.chat.Messages()) > 0 {
		return nil
	}
	return page.Prompts
}

func (m Model) inputEmpty() bool {
	return strings.TrimSpace(m.textarea.Value()) == ""
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4 // title + tabs inside a border
	inputHeight := 5  // label + textarea inside a border
	statusHeight := 1
	chrome := 4 // content border and padding

	vpHeight := height - headerHeight - inputHeight - statusHeight - chrome
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	m.viewport.Width = contentWidth - 2
	m.viewport.Height = vpHeight
	m.textarea.SetWidth(contentWidth - 4)
	m.ready = true
	m.renderedLen = -1
	m.refreshViewport()
}

// refreshViewport re-renders the transcript into the viewport
func (m *Model) refreshViewport() {
	msgs := m.chat.Messages()
	if len(msgs) == m.renderedLen {
		return
	}
	m.renderedLen = len(msgs)
	m.viewport.SetContent(m.renderMessages(msgs))
}

func (m Model) renderMessages(msgs []models.Message) string {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	for i, msg := range msgs {
		if i > 0 {
			content.WriteString("\n")
		}
		if msg.Role == models.RoleUser {
			label := userLabelStyle.Render("⬤ " + msg.Role.Label())
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Text)
			content.WriteString(label + "\n" + bubble)
		} else {
			content.WriteString(AssistantBubble(msg.Text, bubbleWidth))
		}
		content.WriteString("\n")
	}
	return content.String()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	sections := []string{m.renderHeader(contentWidth)}

	if m.settingsOpen {
		sections = append(sections, m.panel.View(contentWidth))
	} else {
		active := m.views.Active()
		renderer, ok := pageRenderers[active]
		if !ok {
			renderer = renderHome
		}
		body := renderer(m, contentWidth-4)
		sections = append(sections,
			contentAreaStyle.Width(contentWidth).Height(m.viewport.Height).Render(body))
		sections = append(sections, m.renderInput(contentWidth))
	}

	sections = append(sections, m.renderStatusBar(contentWidth))
	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	s := m.active()
	title := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ AGI"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(fmt.Sprintf("%s/%s", s.Provider, s.Model)),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(s.Persona),
	)

	active := m.views.Active()
	tabs := make([]string, 0, len(views.All()))
	for i, v := range views.All() {
		page, _ := views.PageFor(v)
		label := fmt.Sprintf("%d %s", i+1, page.NavLabel)
		if v == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	return headerStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	))
}

func (m Model) renderInput(width int) string {
	label := inputLabelStyle.Render("You")
	if m.chat.Pending() {
		label = lipgloss.JoinHorizontal(lipgloss.Center, label, loadingStyle.Render(m.thinkingText))
	}
	return inputPanelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, label, m.textarea.View()))
}

func (m Model) renderStatusBar(width int) string {
	if m.notice != "" {
		return noticeStyle.Width(width).Align(lipgloss.Center).Render(m.notice)
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Tab", "Views"},
		{"^N", "New chat"},
		{"^S", "Settings"},
		{"^Y", "Copy"},
		{"Esc", "Quit"},
	}
	if m.settingsOpen {
		shortcuts = shortcuts[3:4]
		shortcuts[0].desc = "Close settings"
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

func renderCards(cards []views.Card, width int) string {
	if len(cards) == 0 {
		return ""
	}
	cardWidth := width/len(cards) - 2
	if cardWidth < 18 {
		cardWidth = width - 2
	}

	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		rendered = append(rendered, cardStyle.Width(cardWidth).Render(
			cardTitleStyle.Render(c.Title)+"\n"+c.Description))
	}
	if cardWidth == width-2 {
		return lipgloss.JoinVertical(lipgloss.Left, rendered...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func renderPrompts(prompts []views.Suggestion, cursor int) string {
	lines := make([]string, 0, len(prompts))
	for i, p := range prompts {
		if i == cursor%len(prompts) {
			lines = append(lines, configCursorStyle.Render("▸ ")+promptActive.Render(p.Label))
			continue
		}
		lines = append(lines, promptStyle.Render(p.Label))
	}
	return strings.Join(lines, "\n")
}

func pageHeading(page views.Page) string {
	heading := pageTitleStyle.Render(page.Title)
	if page.Subtitle != "" {
		heading += "\n" + subtitleStyle.Render(page.Subtitle) + "\n"
	}
	return heading
}

func renderHome(m Model, width int) string {
	page, _ := views.PageFor(views.Home)
	return lipgloss.JoinVertical(lipgloss.Left,
		pageHeading(page),
		renderCards(page.Cards, width),
		"",
		hintStyle.Render("Press Tab to explore, or start typing to chat"),
	)
}

func renderConversation(m Model, width int) string {
	if len(m.chat.Messages()) > 0 {
		return m.viewport.View()
	}
	page, _ := views.PageFor(views.Conversation)
	return lipgloss.JoinVertical(lipgloss.Left,
		pageHeading(page),
		renderPrompts(page.Prompts, m.promptCursor),
		"",
		hintStyle.Render("↑↓ to choose a suggestion, Enter to send"),
	)
}

func renderFeatures(m Model, width int) string {
	page, _ := views.PageFor(views.Features)
	half := (len(page.Cards) + 1) / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		pageHeading(page),
		renderCards(page.Cards[:half], width),
		renderCards(page.Cards[half:], width),
	)
}

func renderExamples(m Model, width int) string {
	page, _ := views.PageFor(views.Examples)
	return lipgloss.JoinVertical(lipgloss.Left,
		pageHeading(page),
		renderPrompts(page.Prompts, m.promptCursor),
		"",
		hintStyle.Render("↑↓ to choose an example, Enter to send it"),
	)
}

func renderSafety(m Model, width int) string {
	page, _ := views.PageFor(views.Safety)
	return lipgloss.JoinVertical(lipgloss.Left,
		pageHeading(page),
		renderCards(page.Cards, width-2),
	)
}

// Run starts the TUI and blocks until the user quits
func Run(cfg Config) error {
	m := NewModel(cfg)
	defer m.indicator.Stop()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(m.ctx),
	)

	_, err := p.Run()
	return err
}
