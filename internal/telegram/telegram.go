// Package telegram runs conversations in Telegram chats, one conversation
// per chat.
package telegram

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/errors"
	"github.com/felixgeelhaar/valuation/internal/log"
	"github.com/felixgeelhaar/valuation/internal/metrics"
)

// frontend labels this package's metrics
const frontend = "telegram"

// Callback data prefixes
const (
	callbackChoice   = "c"
	callbackSubmit   = "s"
	callbackStartNew = "n"
)

const helpText = `Responda às perguntas para calcular o valuation da sua empresa.

/start inicia uma nova simulação
/reset recomeça do zero
/help mostra esta ajuda`

const staleChoiceText = "Esta pergunta já foi respondida."

// Sender is the part of the Bot API the handler uses. *bot.Bot implements it.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Options configures the conversations the handler starts
type Options struct {
	Submitter  conversation.Submitter
	Pacing     time.Duration
	Messages   conversation.Messages
	HistoryURL string
	Logger     *log.Logger
	// Metrics is optional
	Metrics *metrics.Metrics
}

// Handler routes Telegram updates to per-chat conversations
type Handler struct {
	ctx       context.Context
	sender    Sender
	questions []conversation.Question
	opts      Options
	logger    *log.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewHandler creates a handler. ctx bounds the lifetime of pending pacing
// steps and outgoing messages they trigger.
func NewHandler(ctx context.Context, sender Sender, questions []conversation.Question, opts Options) (*Handler, error) {
	if sender == nil {
		return nil, errors.New(errors.ErrCodeConfigTelegram, "telegram sender is required")
	}
	if err := conversation.ValidateQuestions(questions); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}

	return &Handler{
		ctx:       ctx,
		sender:    sender,
		questions: questions,
		opts:      opts,
		logger:    opts.Logger.With("component", "telegram"),
		sessions:  make(map[int64]*session),
	}, nil
}

// Run connects to Telegram with token and serves updates until ctx is done
func Run(ctx context.Context, token string, questions []conversation.Question, opts Options) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.NewTelegramTokenMissingError()
	}

	var h *Handler
	b, err := bot.New(token, bot.WithDefaultHandler(func(ctx context.Context, _ *bot.Bot, update *models.Update) {
		h.HandleUpdate(ctx, update)
	}))
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigTelegram, "create telegram bot", err).
			WithSuggestion("Check that TELEGRAM_BOT_TOKEN is a valid bot token")
	}

	h, err = NewHandler(ctx, b, questions, opts)
	if err != nil {
		return err
	}

	h.logger.Info("telegram bot started")
	b.Start(ctx)
	h.logger.Info("telegram bot stopped")
	return nil
}

// Sessions returns the number of chats with a conversation
func (h *Handler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// HandleUpdate processes one update. Updates may arrive concurrently; calls
// for the same chat are serialized.
func (h *Handler) HandleUpdate(ctx context.Context, update *models.Update) {
	switch {
	case update == nil:
		return
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *models.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch command(text) {
	case "/help":
		h.send(ctx, chatID, helpText)
		return
	case "/start", "/reset":
		s, created, err := h.session(chatID)
		if err != nil {
			h.logger.WithError(err).Error("start conversation", "chat_id", chatID)
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if created {
			s.driver.PresentCurrentQuestion()
		} else {
			s.driver.Reset()
			h.opts.Metrics.ObserveConversation(frontend)
		}
		s.flush(ctx)
		return
	}

	s, created, err := h.session(chatID)
	if err != nil {
		h.logger.WithError(err).Error("start conversation", "chat_id", chatID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if created {
		s.driver.PresentCurrentQuestion()
	} else if err := s.driver.SubmitFreeText(msg.Text); !conversation.IsIgnored(err) {
		h.opts.Metrics.ObserveAnswer(frontend, err == nil)
	}
	s.flush(ctx)
}

func (h *Handler) handleCallback(ctx context.Context, cq *models.CallbackQuery) {
	chatID := cq.From.ID
	if cq.Message.Message != nil {
		chatID = cq.Message.Message.Chat.ID
	}

	h.mu.Lock()
	s := h.sessions[chatID]
	h.mu.Unlock()

	notice := ""
	if s == nil {
		notice = "Use /start para iniciar uma simulação."
	} else {
		notice = h.dispatchCallback(ctx, s, cq.Data)
	}

	if _, err := h.sender.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            notice,
	}); err != nil {
		h.logger.WithError(err).Warn("answer callback query", "chat_id", chatID)
	}
}

// dispatchCallback applies a button press and returns a notice for the user
func (h *Handler) dispatchCallback(ctx context.Context, s *session, data string) string {
	kind, rest, _ := strings.Cut(data, ":")

	switch kind {
	case callbackChoice:
		cursor, index, ok := parseChoice(rest)
		if !ok {
			return ""
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		q, current := s.driver.CurrentQuestion()
		if !current || s.driver.Cursor() != cursor || index >= len(q.Choices) {
			return staleChoiceText
		}
		err := s.driver.SubmitChoice(q.Choices[index])
		if err != nil {
			s.logger.Debug("choice dropped", "error", err)
		}
		h.opts.Metrics.ObserveAnswer(frontend, err == nil)
		s.flush(ctx)

	case callbackSubmit:
		s.submit(ctx)

	case callbackStartNew:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.driver.Phase() == conversation.PhaseSubmitted {
			s.driver.StartNew()
			h.opts.Metrics.ObserveConversation(frontend)
			s.flush(ctx)
		}
	}
	return ""
}

// session returns the conversation of chatID, creating it when needed
func (h *Handler) session(chatID int64) (*session, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sessions[chatID]; ok {
		return s, false, nil
	}

	s := &session{
		chatID:   chatID,
		sender:   h.sender,
		lifetime: h.ctx,
		logger:   h.logger.With("chat_id", chatID),
	}
	s.timers = conversation.NewTimers(h.ctx, &s.mu)

	driver, err := conversation.NewDriver(h.questions, s, conversation.Options{
		Submitter:  h.opts.Submitter,
		Deferrer:   s,
		Pacing:     h.opts.Pacing,
		Messages:   h.opts.Messages,
		HistoryURL: h.opts.HistoryURL,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, false, err
	}
	s.driver = driver
	h.sessions[chatID] = s
	h.opts.Metrics.ObserveConversation(frontend)
	h.opts.Metrics.SetSessions(frontend, len(h.sessions))
	return s, true, nil
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if _, err := h.sender.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.logger.WithError(err).Warn("send message", "chat_id", chatID)
	}
}

// command returns the bot command in text without arguments or bot mention
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}

func choiceData(cursor, index int) string {
	return fmt.Sprintf("%s:%d:%d", callbackChoice, cursor, index)
}

func parseChoice(s string) (cursor, index int, ok bool) {
	a, b, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	cursor, err := strconv.Atoi(a)
	if err != nil || cursor < 0 {
		return 0, 0, false
	}
	index, err = strconv.Atoi(b)
	if err != nil || index < 0 {
		return 0, 0, false
	}
	return cursor, index, true
}

// buttonURL reports whether Telegram accepts u in a URL button. Loopback
// and private hosts are rejected by the Bot API.
func buttonURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return false
	}
	host := parsed.Hostname()
	return host != "" && host != "localhost" && !strings.HasPrefix(host, "127.") && host != "::1"
}
