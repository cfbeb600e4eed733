package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/log"
	"github.com/felixgeelhaar/valuation/internal/theme"
)

const historyURL = "http://localhost:8000/reports/history/"

var rating = []string{"BAIXO", "NÃO CONSIGO AVALIAR", "MÉDIO", "ALTO", "ELEVADO"}

func chatQuestions() []conversation.Question {
	return []conversation.Question{
		{ID: "faturamento_mensal", Prompt: "Qual foi o faturamento bruto aproximado no último mês?", Kind: conversation.KindNumberPositive},
		{ID: "setor_atuacao", Prompt: "Em qual setor principal sua empresa atua?", Kind: conversation.KindFreeText},
		{ID: "pmf", Prompt: "Como você avalia o Product Market Fit (PMF)?", Kind: conversation.KindSingleChoice, Choices: rating},
	}
}

type fakeSubmitter struct {
	result conversation.Result
	calls  []conversation.Submission
}

func (f *fakeSubmitter) Submit(_ context.Context, sub conversation.Submission) conversation.Result {
	f.calls = append(f.calls, sub)
	return f.result
}

// harness drives a Chat without a running program. Scheduled steps and
// submission replies are queued and delivered by settle.
type harness struct {
	t         *testing.T
	chat      *Chat
	store     *theme.Store
	submitter *fakeSubmitter
	queue     []tea.Msg
	delays    []time.Duration
}

func newHarness(t *testing.T, result conversation.Result) *harness {
	t.Helper()

	h := &harness{
		t:         t,
		store:     theme.NewStore(filepath.Join(t.TempDir(), "preferences.yaml")),
		submitter: &fakeSubmitter{result: result},
	}

	chat, err := NewChat(chatQuestions(), ChatOptions{
		Submitter:  h.submitter,
		Pacing:     conversation.DefaultPacing,
		HistoryURL: historyURL,
		Themes:     h.store,
		Logger:     log.Discard(),
	})
	require.NoError(t, err)

	chat.schedule = func(delay time.Duration, msg tea.Msg) tea.Cmd {
		h.delays = append(h.delays, delay)
		h.queue = append(h.queue, msg)
		return nil
	}
	chat.dispatch = func(sub conversation.Submission) tea.Cmd {
		h.queue = append(h.queue, submissionMsg{sub: sub, res: h.submitter.Submit(context.Background(), sub)})
		return nil
	}

	h.chat = chat
	chat.Init()
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.chat.Update(msg)
	return cmd
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	return h.send(tea.KeyMsg{Type: k})
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) settle() {
	for len(h.queue) > 0 {
		msg := h.queue[0]
		h.queue = h.queue[1:]
		h.send(msg)
	}
}

func (h *harness) answer(s string) {
	h.typeText(s)
	h.press(tea.KeyEnter)
	h.settle()
}

func (h *harness) complete() {
	h.answer("1500")
	h.answer("Varejo")
	h.typeText("4")
	h.settle()
	require.True(h.t, h.chat.Driver().IsComplete())
}

func (h *harness) lastLine() line {
	require.NotEmpty(h.t, h.chat.transcript)
	return h.chat.transcript[len(h.chat.transcript)-1]
}

func TestChatPresentsFirstQuestion(t *testing.T) {
	h := newHarness(t, conversation.Result{})
	msgs := h.chat.Driver().Messages()

	require.Len(t, h.chat.transcript, 1)
	assert.Equal(t, line{speaker: speakerBot, text: chatQuestions()[0].Prompt}, h.chat.transcript[0])
	assert.True(t, h.chat.inputEnabled)
	assert.True(t, h.chat.input.Focused())
	assert.False(t, h.chat.submitEnabled)
	assert.Equal(t, msgs.SubmitLabel, h.chat.submitLabel)

	view := h.chat.View()
	assert.Contains(t, view, "Valuation")
	assert.Contains(t, view, "0/3")
	assert.Contains(t, view, msgs.SubmitLabel)
}

func TestChatRejectsInvalidNumber(t *testing.T) {
	h := newHarness(t, conversation.Result{})
	msgs := h.chat.Driver().Messages()

	h.answer("-5")

	assert.Equal(t, line{speaker: speakerBot, text: msgs.InvalidPositive}, h.lastLine())
	assert.Equal(t, 0, h.chat.Driver().Cursor())
	assert.True(t, h.chat.inputEnabled)
	assert.Empty(t, h.chat.input.Value())

	h.answer("1500")

	assert.Equal(t, 1, h.chat.Driver().Cursor())
	assert.Equal(t, 1500.0, h.chat.Driver().Answers()["faturamento_mensal"])
	n := len(h.chat.transcript)
	assert.Equal(t, line{speaker: speakerUser, text: "1500"}, h.chat.transcript[n-2])
	assert.Equal(t, chatQuestions()[1].Prompt, h.chat.transcript[n-1].text)
}

func TestChatPacingHoldsNextPrompt(t *testing.T) {
	h := newHarness(t, conversation.Result{})

	h.typeText("1500")
	h.press(tea.KeyEnter)

	require.Len(t, h.queue, 1)
	assert.Equal(t, []time.Duration{conversation.DefaultPacing}, h.delays)
	assert.False(t, h.chat.inputEnabled)
	assert.Equal(t, speakerUser, h.lastLine().speaker)

	// typing during the pacing window is dropped
	h.typeText("Varejo")
	h.press(tea.KeyEnter)
	assert.Equal(t, 1, h.chat.Driver().Cursor())

	h.settle()
	assert.Equal(t, chatQuestions()[1].Prompt, h.lastLine().text)
	assert.True(t, h.chat.inputEnabled)
}

func TestChatChoiceWithArrows(t *testing.T) {
	h := newHarness(t, conversation.Result{})
	h.answer("1500")
	h.answer("Varejo")

	assert.Equal(t, rating, h.chat.choices)
	assert.False(t, h.chat.inputEnabled)
	assert.Contains(t, h.chat.View(), "1 BAIXO")

	h.press(tea.KeyRight)
	h.press(tea.KeyRight)
	h.press(tea.KeyLeft)
	h.press(tea.KeyRight)
	assert.Equal(t, 2, h.chat.choiceIdx)

	h.press(tea.KeyEnter)
	h.settle()

	assert.Equal(t, "MÉDIO", h.chat.Driver().Answers()["pmf"])
	assert.Empty(t, h.chat.choices)
	assert.True(t, h.chat.submitEnabled)
}

func TestChatChoiceWithDigit(t *testing.T) {
	h := newHarness(t, conversation.Result{})
	h.answer("1500")
	h.answer("Varejo")

	h.typeText("9")
	assert.Equal(t, 2, h.chat.Driver().Cursor())

	h.typeText("4")
	h.settle()
	assert.Equal(t, "ALTO", h.chat.Driver().Answers()["pmf"])
}

func TestChatSubmitBeforeCompleteIsIgnored(t *testing.T) {
	h := newHarness(t, conversation.Result{})

	h.press(tea.KeyCtrlS)
	h.settle()

	assert.Empty(t, h.submitter.calls)
	assert.Nil(t, h.chat.feedback)
}

func TestChatSubmitSuccess(t *testing.T) {
	h := newHarness(t, conversation.Result{Outcome: conversation.OutcomeSuccess, Message: "ok", StatusCode: 200})
	msgs := h.chat.Driver().Messages()
	h.complete()

	h.press(tea.KeyCtrlS)

	assert.Equal(t, conversation.PhaseSubmitting, h.chat.Driver().Phase())
	assert.Equal(t, msgs.ProcessingLabel, h.chat.submitLabel)
	require.NotNil(t, h.chat.feedback)
	assert.Equal(t, conversation.FeedbackInfo, h.chat.feedback.Kind)

	// a second trigger while in flight does nothing
	h.press(tea.KeyCtrlS)
	h.settle()

	require.Len(t, h.submitter.calls, 1)
	assert.Equal(t, conversation.Answers{
		"faturamento_mensal": 1500.0,
		"setor_atuacao":      "Varejo",
		"pmf":                "ALTO",
	}, h.submitter.calls[0].Answers)

	require.NotNil(t, h.chat.feedback)
	assert.Equal(t, conversation.FeedbackSuccess, h.chat.feedback.Kind)
	assert.Equal(t, "ok", h.chat.feedback.Message)
	assert.Equal(t, []line{{speaker: speakerBot, text: msgs.AnalysisStarted}}, h.chat.transcript)
	require.Len(t, h.chat.actions, 2)
	assert.False(t, h.chat.submitEnabled)
	assert.Contains(t, h.chat.View(), msgs.HistoryLabel)

	h.press(tea.KeyEnter)
	assert.Equal(t, historyURL, h.chat.OpenedURL())
	assert.Empty(t, h.chat.View())
}

func TestChatEnterSubmitsWhenComplete(t *testing.T) {
	h := newHarness(t, conversation.Result{Outcome: conversation.OutcomeSuccess, Message: "ok"})
	h.complete()

	h.press(tea.KeyEnter)
	h.settle()

	assert.Len(t, h.submitter.calls, 1)
	assert.Equal(t, conversation.PhaseSubmitted, h.chat.Driver().Phase())
}

func TestChatSubmitFailureAllowsRetry(t *testing.T) {
	h := newHarness(t, conversation.Result{Outcome: conversation.OutcomeFailure, Message: "db down", StatusCode: 500})
	msgs := h.chat.Driver().Messages()
	h.complete()

	h.press(tea.KeyCtrlS)
	h.settle()

	require.NotNil(t, h.chat.feedback)
	assert.Equal(t, conversation.FeedbackError, h.chat.feedback.Kind)
	assert.Equal(t, "db down", h.chat.feedback.Message)
	assert.True(t, h.chat.submitEnabled)
	assert.Equal(t, msgs.RetryLabel, h.chat.submitLabel)
	assert.Len(t, h.chat.Driver().Answers(), 3)
	assert.Contains(t, h.chat.View(), "db down")

	h.submitter.result = conversation.Result{Outcome: conversation.OutcomeSuccess, Message: "ok"}
	h.press(tea.KeyCtrlS)
	h.settle()

	assert.Len(t, h.submitter.calls, 2)
	assert.Equal(t, conversation.PhaseSubmitted, h.chat.Driver().Phase())
}

func TestChatStartNewAction(t *testing.T) {
	h := newHarness(t, conversation.Result{Outcome: conversation.OutcomeSuccess, Message: "ok"})
	h.complete()
	h.press(tea.KeyCtrlS)
	h.settle()

	h.press(tea.KeyRight)
	h.press(tea.KeyEnter)

	assert.Equal(t, 0, h.chat.Driver().Cursor())
	assert.Empty(t, h.chat.Driver().Answers())
	assert.Empty(t, h.chat.actions)
	assert.Nil(t, h.chat.feedback)
	assert.Equal(t, []line{{speaker: speakerBot, text: chatQuestions()[0].Prompt}}, h.chat.transcript)
	assert.Empty(t, h.chat.OpenedURL())
}

func TestChatResetDropsPendingStep(t *testing.T) {
	h := newHarness(t, conversation.Result{})

	h.typeText("1500")
	h.press(tea.KeyEnter)
	h.press(tea.KeyCtrlN)
	h.settle()

	assert.Equal(t, 0, h.chat.Driver().Cursor())
	assert.Equal(t, []line{{speaker: speakerBot, text: chatQuestions()[0].Prompt}}, h.chat.transcript)
	assert.True(t, h.chat.inputEnabled)
}

func TestChatThemeToggle(t *testing.T) {
	h := newHarness(t, conversation.Result{})
	assert.Equal(t, theme.Light, h.chat.Theme())
	assert.Contains(t, h.chat.View(), theme.Light.Label())

	h.press(tea.KeyCtrlT)

	assert.Equal(t, theme.Dark, h.chat.Theme())
	assert.Equal(t, theme.Dark, h.store.Current())
	assert.Contains(t, h.chat.View(), theme.Dark.Label())

	// theme changes never touch the conversation
	assert.Equal(t, 0, h.chat.Driver().Cursor())
	assert.Len(t, h.chat.transcript, 1)
}

func TestChatStartsWithStoredTheme(t *testing.T) {
	store := theme.NewStore(filepath.Join(t.TempDir(), "preferences.yaml"))
	require.NoError(t, store.Set(theme.Dark))

	chat, err := NewChat(chatQuestions(), ChatOptions{Themes: store, Logger: log.Discard()})
	require.NoError(t, err)
	assert.Equal(t, theme.Dark, chat.Theme())
}

func TestChatWindowResize(t *testing.T) {
	h := newHarness(t, conversation.Result{})

	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, 100, h.chat.viewport.Width)
	assert.Equal(t, 40-chromeHeight, h.chat.viewport.Height)

	h.send(tea.WindowSizeMsg{Width: 20, Height: 5})
	assert.Equal(t, 3, h.chat.viewport.Height)
}

func TestChatQuit(t *testing.T) {
	h := newHarness(t, conversation.Result{})

	cmd := h.press(tea.KeyCtrlC)

	require.NotNil(t, cmd)
	assert.True(t, h.chat.quitting)
	assert.Empty(t, h.chat.View())
}

func TestChatWithoutSubmitter(t *testing.T) {
	chat, err := NewChat(chatQuestions(), ChatOptions{Logger: log.Discard()})
	require.NoError(t, err)
	chat.Init()

	assert.True(t, strings.Contains(chat.View(), chatQuestions()[0].Prompt))
}

func TestNewChatRejectsInvalidQuestions(t *testing.T) {
	_, err := NewChat(nil, ChatOptions{Logger: log.Discard()})
	assert.Error(t, err)
}
