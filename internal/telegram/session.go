package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/felixgeelhaar/valuation/internal/conversation"
	"github.com/felixgeelhaar/valuation/internal/log"
)

// outgoing is a message waiting to be sent, with its inline keyboard
type outgoing struct {
	text string
	rows [][]models.InlineKeyboardButton
}

// session is one chat's conversation. It is the driver's Presenter and
// Deferrer: presentation calls are buffered and sent by flush, and pacing
// steps run under mu like every other call into the driver.
type session struct {
	mu       sync.Mutex
	chatID   int64
	driver   *conversation.Driver
	sender   Sender
	timers   *conversation.Timers
	lifetime context.Context
	logger   *log.Logger

	outbox []outgoing
}

// submit sends the answers without holding the lock during the request
func (s *session) submit(ctx context.Context) {
	s.mu.Lock()
	sub, err := s.driver.BeginSubmission()
	s.flush(ctx)
	s.mu.Unlock()
	if err != nil {
		return
	}

	res := s.driver.Dispatch(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.driver.CompleteSubmission(sub, res)
	s.flush(ctx)
}

// flush sends buffered messages in order. Callers hold mu.
func (s *session) flush(ctx context.Context) {
	outbox := s.outbox
	s.outbox = nil

	for _, m := range outbox {
		params := &bot.SendMessageParams{ChatID: s.chatID, Text: m.text}
		if len(m.rows) > 0 {
			params.ReplyMarkup = &models.InlineKeyboardMarkup{InlineKeyboard: m.rows}
		}
		if _, err := s.sender.SendMessage(ctx, params); err != nil {
			s.logger.WithError(err).Warn("send message")
		}
	}
}

func (s *session) push(text string) {
	s.outbox = append(s.outbox, outgoing{text: text})
}

// attach adds keyboard rows to the last buffered message, buffering
// fallback when there is none
func (s *session) attach(fallback string, rows ...[]models.InlineKeyboardButton) {
	if len(s.outbox) == 0 {
		s.push(fallback)
	}
	last := &s.outbox[len(s.outbox)-1]
	last.rows = append(last.rows, rows...)
}

// Defer implements conversation.Deferrer
func (s *session) Defer(delay time.Duration, fn func()) {
	s.timers.Defer(delay, func() {
		fn()
		s.flush(s.lifetime)
	})
}

// ShowBotMessage implements conversation.Presenter
func (s *session) ShowBotMessage(text string) {
	s.push(text)
}

// ShowUserMessage implements conversation.Presenter. The chat already shows
// what the user typed.
func (s *session) ShowUserMessage(string) {}

// ShowChoices implements conversation.Presenter
func (s *session) ShowChoices(labels []string) {
	cursor := s.driver.Cursor()
	rows := make([][]models.InlineKeyboardButton, len(labels))
	for i, label := range labels {
		rows[i] = []models.InlineKeyboardButton{{Text: label, CallbackData: choiceData(cursor, i)}}
	}
	s.attach("Escolha uma opção:", rows...)
}

// ClearChoices implements conversation.Presenter. Old keyboards stay
// visible; presses on them are rejected by their cursor.
func (s *session) ClearChoices() {}

// SetInputEnabled implements conversation.Presenter
func (s *session) SetInputEnabled(bool) {}

// SetSubmitEnabled implements conversation.Presenter
func (s *session) SetSubmitEnabled(enabled bool, label string) {
	if !enabled {
		return
	}
	s.attach(label, []models.InlineKeyboardButton{{Text: label, CallbackData: callbackSubmit}})
}

// ShowFeedback implements conversation.Presenter
func (s *session) ShowFeedback(f conversation.Feedback) {
	if f.Title != "" {
		s.push(f.Title + " " + f.Message)
		return
	}
	s.push(f.Message)
}

// ClearFeedback implements conversation.Presenter
func (s *session) ClearFeedback() {}

// ClearConversation implements conversation.Presenter. Sent messages stay
// in the chat history.
func (s *session) ClearConversation() {}

// ShowNextActions implements conversation.Presenter
func (s *session) ShowNextActions(actions []conversation.Action) {
	var rows [][]models.InlineKeyboardButton
	for _, a := range actions {
		switch a.Kind {
		case conversation.ActionHistory:
			if buttonURL(a.URL) {
				rows = append(rows, []models.InlineKeyboardButton{{Text: a.Label, URL: a.URL}})
			} else if a.URL != "" {
				s.push(a.Label + ": " + a.URL)
			}
		case conversation.ActionStartNew:
			rows = append(rows, []models.InlineKeyboardButton{{Text: a.Label, CallbackData: callbackStartNew}})
		}
	}
	if len(rows) > 0 {
		s.attach(actions[0].Label, rows...)
	}
}
