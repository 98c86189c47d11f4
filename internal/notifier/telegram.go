package notifier

import (
	"context"
	"net/http"
	"time"

	"FxSentinel/internal/recorder"
	"FxSentinel/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Telegram delivers alerts and serves the admin command interface.
type Telegram struct {
	bot   *tgbotapi.BotAPI
	store *store.Manager
	rec   recorder.Recorder
	log   *zap.Logger
}

// NewTelegram authorizes the bot against the Telegram API. The client is
// timeout-bounded so a stuck delivery fails instead of hanging the scheduler;
// the timeout leaves room for the 30s long-poll of the update loop.
func NewTelegram(token string, st *store.Manager, rec recorder.Recorder, log *zap.Logger) (*Telegram, error) {
	client := &http.Client{Timeout: 45 * time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "telegram authorize")
	}
	return &Telegram{bot: bot, store: st, rec: rec, log: log}, nil
}

// Send sends an HTML-formatted message to the given chat.
func (t *Telegram) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrap(err, "send message")
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *Telegram) SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(chatID, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			t.log.Warn("telegram send failed",
				zap.Int("attempt", i+1),
				zap.Int("max", maxRetries+1),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return errors.Wrapf(lastErr, "all %d retries exhausted", maxRetries+1)
}

// Deliver is the scheduler-facing send path: bounded retries, error returned
// for logging only, never fatal.
func (t *Telegram) Deliver(ctx context.Context, chatID int64, text string) error {
	return t.SendWithRetry(ctx, chatID, text, 3)
}
