package notifier

import (
	"fmt"
	"strings"
	"time"

	"FxSentinel/internal/model"
	"FxSentinel/internal/recorder"
)

// FormatAlert formats a trade signal into a Telegram message, matching the
// original alert layout: pair and timeframe, the action, a UTC timestamp.
func FormatAlert(sig *model.Signal) string {
	emoji := "✅"
	if sig.Action == model.ActionExitLong || sig.Action == model.ActionExitShort {
		emoji = "❌"
	}
	ts := time.Now().UTC().Format("2006-01-02 15:04 UTC")
	return fmt.Sprintf("<b>%s — %s</b>\n%s <b>%s</b>\n<i>%s</i>",
		sig.Pair, sig.Timeframe, emoji, sig.Action.Alert(), ts)
}

// FormatStatus formats the current configuration and per-pair trade state.
func FormatStatus(state *model.BotState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Pairs: %s\n", strings.Join(state.Pairs, ", ")))
	b.WriteString(fmt.Sprintf("Trend EMA: %d\n", state.TrendEMA))
	b.WriteString(fmt.Sprintf("Entry/Exit EMA: %d\n", state.EntryExitEMA))
	b.WriteString(fmt.Sprintf("Timeframe: %s\n", state.Timeframe))
	b.WriteString(fmt.Sprintf("Running: %v\n", state.Running))

	open := make([]string, 0, len(state.PerPair))
	for _, p := range state.Pairs {
		st := state.PerPair[p]
		if st.InTrade {
			open = append(open, fmt.Sprintf("%s (%s)", p, st.Side))
		}
	}
	if len(open) > 0 {
		b.WriteString(fmt.Sprintf("Open trades: %s\n", strings.Join(open, ", ")))
	}
	return b.String()
}

// FormatHistory formats recent signal records for the /history command.
func FormatHistory(recs []recorder.SignalRecord) string {
	if len(recs) == 0 {
		return "No signals recorded yet."
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent signals</b>\n\n")
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("%s  %s %s @ %.5f\n",
			r.Time.Format("2006-01-02 15:04"), r.Pair, r.Action.Alert(), r.Price))
	}
	return b.String()
}

// FormatDigest formats the daily summary message.
func FormatDigest(state *model.BotState, signals24h int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Daily digest</b> | %s\n\n", time.Now().UTC().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Watching: %s (%s)\n", strings.Join(state.Pairs, ", "), state.Timeframe))
	b.WriteString(fmt.Sprintf("Running: %v\n", state.Running))
	b.WriteString(fmt.Sprintf("Signals in last 24h: %d\n", signals24h))
	return b.String()
}
