package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var validTimeframes = map[string]bool{
	"1min":  true,
	"5min":  true,
	"15min": true,
	"30min": true,
	"60min": true,
}

const usageText = `Commands:
/add PAIR — watch a pair (e.g. /add GBPUSD)
/remove PAIR — stop watching a pair
/setema trend|entry PERIOD — change an EMA period
/settimeframe TF — 1min, 5min, 15min, 30min or 60min
/status — current configuration
/history — recent signals`

// Run consumes Telegram updates until ctx is cancelled. All configuration
// mutations happen here, at the admin boundary, and are validated before
// they reach the store.
func (t *Telegram) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.log.Info("telegram command loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(update)
		}
	}
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		t.handleCallback(update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		t.handleCommand(update.Message)
	}
}

func (t *Telegram) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())
	t.log.Info("received command",
		zap.String("command", msg.Command()),
		zap.Int64("chat_id", chatID))

	switch msg.Command() {
	case "start":
		if err := t.store.SetChatID(chatID); err != nil {
			t.replyError(chatID, err)
			return
		}
		reply := tgbotapi.NewMessage(chatID, "Hello! EMA signal bot ready.\nUse the buttons below.")
		reply.ReplyMarkup = controlKeyboard(t.store.Snapshot().Running)
		t.send(reply)

	case "add":
		if len(args) == 0 {
			t.reply(chatID, "Usage: /add PAIR e.g. /add GBPUSD")
			return
		}
		pair := strings.ToUpper(args[0])
		if !validPair(pair) {
			t.reply(chatID, fmt.Sprintf("%s doesn't look like a forex pair (expected e.g. GBPUSD).", pair))
			return
		}
		added, err := t.store.AddPair(pair)
		if err != nil {
			t.replyError(chatID, err)
			return
		}
		if !added {
			t.reply(chatID, fmt.Sprintf("%s already monitored.", pair))
			return
		}
		t.reply(chatID, fmt.Sprintf("Added %s.", pair))

	case "remove":
		if len(args) == 0 {
			t.reply(chatID, "Usage: /remove PAIR")
			return
		}
		pair := strings.ToUpper(args[0])
		removed, err := t.store.RemovePair(pair)
		if err != nil {
			t.replyError(chatID, err)
			return
		}
		if !removed {
			t.reply(chatID, fmt.Sprintf("%s not in watchlist.", pair))
			return
		}
		t.reply(chatID, fmt.Sprintf("Removed %s.", pair))

	case "setema":
		if len(args) < 2 {
			t.reply(chatID, "Usage: /setema trend|entry PERIOD")
			return
		}
		period, err := strconv.Atoi(args[1])
		if err != nil || period < 1 {
			t.reply(chatID, "Period must be a positive integer.")
			return
		}
		switch strings.ToLower(args[0]) {
		case "trend":
			err = t.store.SetTrendPeriod(period)
		case "entry", "exit", "entry_exit":
			err = t.store.SetEntryPeriod(period)
		default:
			t.reply(chatID, "First argument must be 'trend' or 'entry'.")
			return
		}
		if err != nil {
			t.replyError(chatID, err)
			return
		}
		t.reply(chatID, fmt.Sprintf("Set %s EMA to %d.", strings.ToLower(args[0]), period))

	case "settimeframe":
		if len(args) == 0 || !validTimeframes[args[0]] {
			t.reply(chatID, "Usage: /settimeframe 1min|5min|15min|30min|60min")
			return
		}
		if err := t.store.SetTimeframe(args[0]); err != nil {
			t.replyError(chatID, err)
			return
		}
		t.reply(chatID, fmt.Sprintf("Timeframe set to %s.", args[0]))

	case "status":
		t.reply(chatID, FormatStatus(t.store.Snapshot()))

	case "history":
		recs, err := t.rec.RecentSignals(10)
		if err != nil {
			t.replyError(chatID, err)
			return
		}
		t.reply(chatID, FormatHistory(recs))

	default:
		t.reply(chatID, usageText)
	}
}

func (t *Telegram) handleCallback(cb *tgbotapi.CallbackQuery) {
	// Answer first so the client stops its spinner.
	if _, err := t.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		t.log.Warn("answer callback", zap.Error(err))
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	switch cb.Data {
	case "start":
		if err := t.store.SetRunning(true); err != nil {
			t.replyError(chatID, err)
			return
		}
		t.editWithKeyboard(chatID, cb.Message.MessageID, "▶️ Bot started.", true)
	case "stop":
		if err := t.store.SetRunning(false); err != nil {
			t.replyError(chatID, err)
			return
		}
		t.editWithKeyboard(chatID, cb.Message.MessageID, "🛑 Bot stopped.", false)
	case "status":
		snap := t.store.Snapshot()
		t.editWithKeyboard(chatID, cb.Message.MessageID, FormatStatus(snap), snap.Running)
	}
}

func (t *Telegram) editWithKeyboard(chatID int64, messageID int, text string, running bool) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	kb := controlKeyboard(running)
	edit.ReplyMarkup = &kb
	t.send(edit)
}

func controlKeyboard(running bool) tgbotapi.InlineKeyboardMarkup {
	toggle := tgbotapi.NewInlineKeyboardButtonData("▶️ Start Bot", "start")
	if running {
		toggle = tgbotapi.NewInlineKeyboardButtonData("🛑 Stop Bot", "stop")
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(toggle),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔁 Status", "status")),
	)
}

func (t *Telegram) reply(chatID int64, text string) {
	if err := t.Send(chatID, text); err != nil {
		t.log.Error("send reply", zap.Error(err))
	}
}

func (t *Telegram) replyError(chatID int64, err error) {
	t.log.Error("admin command failed", zap.Error(err))
	t.reply(chatID, "Something went wrong, check the logs.")
}

func (t *Telegram) send(c tgbotapi.Chattable) {
	if _, err := t.bot.Send(c); err != nil {
		t.log.Error("telegram send", zap.Error(err))
	}
}

func validPair(pair string) bool {
	if len(pair) != 6 {
		return false
	}
	for _, r := range pair {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
