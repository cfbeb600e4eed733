package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/log"
	"github.com/felixgeelhaar/valuation/internal/theme"
)

// ThemeStore persists the display theme
type ThemeStore interface {
	Current() theme.Theme
	Toggle() (theme.Theme, error)
}

// memoryThemes keeps the theme for the lifetime of the process only
type memoryThemes struct {
	current theme.Theme
}

func (m *memoryThemes) Current() theme.Theme {
	if m.current == "" {
		return theme.Default
	}
	return m.current
}

func (m *memoryThemes) Toggle() (theme.Theme, error) {
	m.current = m.Current().Opposite()
	return m.current, nil
}

// ChatOptions configures a Chat
type ChatOptions struct {
	// Context bounds submissions and pending pacing steps
	Context    context.Context
	Submitter  conversation.Submitter
	Pacing     time.Duration
	Messages   conversation.Messages
	HistoryURL string
	Themes     ThemeStore
	Logger     *log.Logger
}

type speaker int

const (
	speakerBot speaker = iota
	speakerUser
)

type line struct {
	speaker speaker
	text    string
}

// stepMsg carries a deferred driver step back onto the event loop
type stepMsg struct {
	fn func()
}

// submissionMsg carries a backend reply back onto the event loop
type submissionMsg struct {
	sub conversation.Submission
	res conversation.Result
}

// chatKeys defines the keyboard shortcuts
type chatKeys struct {
	Send       key.Binding
	Prev       key.Binding
	Next       key.Binding
	Submit     key.Binding
	Theme      key.Binding
	Reset      key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
}

func defaultChatKeys() chatKeys {
	return chatKeys{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "enviar"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "up", "shift+tab"),
			key.WithHelp("←/→", "escolher"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "down", "tab"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "calcular"),
		),
		Theme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "tema"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "reiniciar"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup/pgdn", "rolar"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "sair"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k chatKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Prev, k.Submit, k.Theme, k.Reset, k.ScrollUp, k.Quit}
}

// Chat is the terminal front-end of a conversation. It renders what the
// driver presents and feeds key presses back to it. Every driver call,
// including deferred pacing steps and submission results, happens on the
// bubbletea event loop.
type Chat struct {
	driver *conversation.Driver
	ctx    context.Context
	logger *log.Logger
	themes ThemeStore
	theme  theme.Theme
	styles Styles
	keys   chatKeys

	transcript []line
	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	help       help.Model

	choices   []string
	choiceIdx int
	actions   []conversation.Action
	actionIdx int

	inputEnabled  bool
	submitEnabled bool
	submitLabel   string
	feedback      *conversation.Feedback
	notice        string

	pending  []tea.Cmd
	schedule func(delay time.Duration, msg tea.Msg) tea.Cmd
	dispatch func(sub conversation.Submission) tea.Cmd

	width    int
	height   int
	quitting bool
	openURL  string
}

const (
	defaultWidth  = 80
	defaultHeight = 24
	// chromeHeight is the number of lines around the transcript
	chromeHeight = 10
)

// NewChat creates a chat over questions. Nothing is shown until the
// program calls Init.
func NewChat(questions []conversation.Question, opts ChatOptions) (*Chat, error) {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Themes == nil {
		opts.Themes = &memoryThemes{}
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 200

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	c := &Chat{
		ctx:      opts.Context,
		logger:   opts.Logger.With("component", "tui"),
		themes:   opts.Themes,
		keys:     defaultChatKeys(),
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		input:    input,
		spinner:  spin,
		help:     help.New(),
		schedule: func(delay time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(delay, func(time.Time) tea.Msg { return msg })
		},
	}
	c.dispatch = func(sub conversation.Submission) tea.Cmd {
		return func() tea.Msg {
			return submissionMsg{sub: sub, res: c.driver.Dispatch(c.ctx, sub)}
		}
	}
	c.applyTheme(opts.Themes.Current())

	driver, err := conversation.NewDriver(questions, c, conversation.Options{
		Submitter:  opts.Submitter,
		Deferrer:   c,
		Pacing:     opts.Pacing,
		Messages:   opts.Messages,
		HistoryURL: opts.HistoryURL,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	c.driver = driver
	c.submitLabel = driver.Messages().SubmitLabel
	c.input.Placeholder = driver.Messages().InputPlaceholder
	c.resize(defaultWidth, defaultHeight)

	return c, nil
}

// Driver returns the conversation driver behind the chat
func (c *Chat) Driver() *conversation.Driver {
	return c.driver
}

// Theme returns the active theme
func (c *Chat) Theme() theme.Theme {
	return c.theme
}

// OpenedURL returns the navigation target chosen by the user, if any
func (c *Chat) OpenedURL() string {
	return c.openURL
}

// Init presents the first question
func (c *Chat) Init() tea.Cmd {
	c.driver.PresentCurrentQuestion()
	return c.flush(textinput.Blink)
}

// Update handles messages and updates the model
func (c *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.resize(msg.Width, msg.Height)

	case stepMsg:
		if c.ctx.Err() == nil {
			msg.fn()
		}

	case submissionMsg:
		c.driver.CompleteSubmission(msg.sub, msg.res)

	case spinner.TickMsg:
		if c.driver.Phase() == conversation.PhaseSubmitting {
			var cmd tea.Cmd
			c.spinner, cmd = c.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		cmds = append(cmds, c.handleKey(msg))

	default:
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return c, c.flush(cmds...)
}

func (c *Chat) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, c.keys.Quit):
		c.quitting = true
		return tea.Quit
	case key.Matches(msg, c.keys.Theme):
		c.toggleTheme()
		return nil
	case key.Matches(msg, c.keys.Reset):
		c.notice = ""
		c.driver.Reset()
		return nil
	case key.Matches(msg, c.keys.Submit):
		return c.submit()
	case key.Matches(msg, c.keys.ScrollUp, c.keys.ScrollDown):
		var cmd tea.Cmd
		c.viewport, cmd = c.viewport.Update(msg)
		return cmd
	}

	switch {
	case len(c.actions) > 0:
		return c.handleActionKey(msg)
	case len(c.choices) > 0:
		c.handleChoiceKey(msg)
		return nil
	case c.inputEnabled:
		return c.handleInputKey(msg)
	case c.submitEnabled && key.Matches(msg, c.keys.Send):
		return c.submit()
	}
	return nil
}

func (c *Chat) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, c.keys.Send) {
		err := c.driver.SubmitFreeText(c.input.Value())
		if conversation.IsIgnored(err) {
			return nil
		}
		c.input.Reset()
		return nil
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *Chat) handleChoiceKey(msg tea.KeyMsg) {
	if n, ok := digit(msg); ok {
		if n < len(c.choices) {
			c.choose(c.choices[n])
		}
		return
	}

	switch {
	case key.Matches(msg, c.keys.Prev):
		c.choiceIdx = (c.choiceIdx + len(c.choices) - 1) % len(c.choices)
	case key.Matches(msg, c.keys.Next):
		c.choiceIdx = (c.choiceIdx + 1) % len(c.choices)
	case key.Matches(msg, c.keys.Send):
		c.choose(c.choices[c.choiceIdx])
	}
}

func (c *Chat) choose(label string) {
	if err := c.driver.SubmitChoice(label); err != nil {
		c.logger.Debug("choice dropped", "label", label, "error", err)
	}
}

func (c *Chat) handleActionKey(msg tea.KeyMsg) tea.Cmd {
	if n, ok := digit(msg); ok {
		if n < len(c.actions) {
			return c.act(c.actions[n])
		}
		return nil
	}

	switch {
	case key.Matches(msg, c.keys.Prev):
		c.actionIdx = (c.actionIdx + len(c.actions) - 1) % len(c.actions)
	case key.Matches(msg, c.keys.Next):
		c.actionIdx = (c.actionIdx + 1) % len(c.actions)
	case key.Matches(msg, c.keys.Send):
		return c.act(c.actions[c.actionIdx])
	}
	return nil
}

func (c *Chat) act(a conversation.Action) tea.Cmd {
	switch a.Kind {
	case conversation.ActionHistory:
		c.openURL = a.URL
		c.quitting = true
		return tea.Quit
	case conversation.ActionStartNew:
		c.driver.StartNew()
	}
	return nil
}

func (c *Chat) submit() tea.Cmd {
	sub, err := c.driver.BeginSubmission()
	if err != nil {
		return nil
	}
	return tea.Batch(c.spinner.Tick, c.dispatch(sub))
}

func (c *Chat) toggleTheme() {
	t, err := c.themes.Toggle()
	if err != nil {
		c.logger.WithError(err).Warn("theme not saved")
		c.notice = fmt.Sprintf("Tema não salvo: %v", err)
	} else {
		c.notice = ""
	}
	c.applyTheme(t)
}

func (c *Chat) applyTheme(t theme.Theme) {
	c.theme = t
	c.styles = StylesFor(t)
	c.spinner.Style = c.styles.Info
	c.help.Styles.ShortKey = c.styles.Key
	c.help.Styles.ShortDesc = c.styles.Help
	c.help.Styles.ShortSeparator = c.styles.Muted
	c.refresh()
}

func (c *Chat) resize(width, height int) {
	c.width = width
	c.height = height
	c.viewport.Width = width
	c.viewport.Height = max(height-chromeHeight, 3)
	c.input.Width = max(width-4, 10)
	c.help.Width = width
	c.refresh()
}

// flush batches cmds with the steps scheduled while handling a message
func (c *Chat) flush(cmds ...tea.Cmd) tea.Cmd {
	cmds = append(cmds, c.pending...)
	c.pending = nil
	return tea.Batch(cmds...)
}

func digit(msg tea.KeyMsg) (int, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '1'), true
}

// Defer implements conversation.Deferrer by scheduling the step as a
// message, so it runs on the event loop.
func (c *Chat) Defer(delay time.Duration, fn func()) {
	c.pending = append(c.pending, c.schedule(delay, stepMsg{fn: fn}))
}

// ShowBotMessage implements conversation.Presenter
func (c *Chat) ShowBotMessage(text string) {
	c.transcript = append(c.transcript, line{speaker: speakerBot, text: text})
	c.refresh()
}

// ShowUserMessage implements conversation.Presenter
func (c *Chat) ShowUserMessage(text string) {
	c.transcript = append(c.transcript, line{speaker: speakerUser, text: text})
	c.refresh()
}

// ShowChoices implements conversation.Presenter
func (c *Chat) ShowChoices(labels []string) {
	c.choices = append([]string(nil), labels...)
	c.choiceIdx = 0
}

// ClearChoices implements conversation.Presenter
func (c *Chat) ClearChoices() {
	c.choices = nil
	c.choiceIdx = 0
}

// SetInputEnabled implements conversation.Presenter
func (c *Chat) SetInputEnabled(enabled bool) {
	c.inputEnabled = enabled
	if enabled {
		c.pending = append(c.pending, c.input.Focus())
		return
	}
	c.input.Blur()
}

// SetSubmitEnabled implements conversation.Presenter
func (c *Chat) SetSubmitEnabled(enabled bool, label string) {
	c.submitEnabled = enabled
	c.submitLabel = label
}

// ShowFeedback implements conversation.Presenter
func (c *Chat) ShowFeedback(f conversation.Feedback) {
	c.feedback = &f
}

// ClearFeedback implements conversation.Presenter
func (c *Chat) ClearFeedback() {
	c.feedback = nil
}

// ClearConversation implements conversation.Presenter
func (c *Chat) ClearConversation() {
	c.transcript = nil
	c.actions = nil
	c.actionIdx = 0
	c.refresh()
}

// ShowNextActions implements conversation.Presenter
func (c *Chat) ShowNextActions(actions []conversation.Action) {
	c.actions = append([]conversation.Action(nil), actions...)
	c.actionIdx = 0
}

// RunChat starts the terminal chat and blocks until the user quits. It
// returns the navigation target the user chose, if any.
func RunChat(ctx context.Context, chat *Chat) (string, error) {
	p := tea.NewProgram(chat, tea.WithAltScreen(), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("run TUI: %w", err)
	}

	m, ok := finalModel.(*Chat)
	if !ok {
		return "", fmt.Errorf("invalid final model type")
	}
	return m.OpenedURL(), nil
}
