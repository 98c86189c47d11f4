package scheduler

import (
	"context"
	"time"

	"FxSentinel/internal/collector"
	"FxSentinel/internal/model"
	"FxSentinel/internal/notifier"
	"FxSentinel/internal/recorder"
	"FxSentinel/internal/store"
	"FxSentinel/internal/strategy"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	idleBackoff    = 5 * time.Second
	fetchTimeout   = 30 * time.Second
	saveRetries    = 3
	saveRetryDelay = time.Second
)

// Notifier is the delivery side the scheduler needs: a bounded, non-fatal
// send to one chat.
type Notifier interface {
	Deliver(ctx context.Context, chatID int64, text string) error
}

// Scheduler drives the evaluation loop: every check interval it takes a
// state snapshot, evaluates each watched pair in watchlist order, delivers
// alerts and persists transitions. It is the only active control loop.
type Scheduler struct {
	Collector *collector.Collector
	Store     *store.Manager
	Notifier  Notifier
	Recorder  recorder.Recorder
	Cron      *cron.Cron
	Ctx       context.Context

	log           *zap.Logger
	checkInterval time.Duration
}

// NewScheduler creates a Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, st *store.Manager, n Notifier, rec recorder.Recorder, log *zap.Logger, checkInterval time.Duration) *Scheduler {
	return &Scheduler{
		Collector:     col,
		Store:         st,
		Notifier:      n,
		Recorder:      rec,
		Cron:          cron.New(cron.WithSeconds()),
		Ctx:           ctx,
		log:           log,
		checkInterval: checkInterval,
	}
}

// Run executes the polling loop until the scheduler context is cancelled.
// While the bot is stopped or no chat is registered it idles on a short
// backoff so flag changes are picked up quickly.
func (s *Scheduler) Run() {
	s.log.Info("scheduler started", zap.Duration("check_interval", s.checkInterval))
	for {
		state := s.Store.Snapshot()

		wait := idleBackoff
		if state.Running && state.DefaultChatID != 0 {
			s.runCycle(state)
			wait = s.checkInterval
		}

		select {
		case <-s.Ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-time.After(wait):
		}
	}
}

// RunCycleNow evaluates the whole watchlist once against a fresh snapshot,
// regardless of the running flag. Used for manual triggers.
func (s *Scheduler) RunCycleNow() {
	s.runCycle(s.Store.Snapshot())
}

// runCycle evaluates every pair in watchlist order. A pair's failure is
// logged and skipped; it never aborts the rest of the cycle.
func (s *Scheduler) runCycle(state *model.BotState) {
	stats := recorder.CycleRecord{}
	for _, pair := range state.Pairs {
		if s.Ctx.Err() != nil {
			return
		}
		stats.PairsChecked++
		signaled, err := s.evaluatePair(state, pair)
		if err != nil {
			stats.PairsFailed++
			s.log.Warn("pair evaluation failed, skipping this cycle",
				zap.String("pair", pair), zap.Error(err))
			continue
		}
		if signaled {
			stats.Signals++
		}
	}
	if err := s.Recorder.RecordCycle(&stats); err != nil {
		s.log.Warn("record cycle", zap.Error(err))
	}
}

func (s *Scheduler) evaluatePair(state *model.BotState, pair string) (bool, error) {
	ctx, cancel := context.WithTimeout(s.Ctx, fetchTimeout)
	defer cancel()

	snap, err := s.Collector.Collect(ctx, pair, state.Timeframe, state.TrendEMA, state.EntryExitEMA)
	if err != nil {
		return false, err
	}

	newState, action := strategy.Evaluate(strategy.Input{
		PrevClose:   snap.PrevClose,
		LatestClose: snap.LatestClose,
		TrendEMA:    snap.TrendEMA,
		EntryEMA:    snap.EntryEMA,
	}, state.PerPair[pair])
	if action == model.ActionNone {
		return false, nil
	}

	sig := &model.Signal{
		Pair:      pair,
		Timeframe: state.Timeframe,
		Action:    action,
		Price:     snap.LatestClose,
		TrendEMA:  snap.TrendEMA,
		EntryEMA:  snap.EntryEMA,
	}
	s.log.Info("signal",
		zap.String("pair", pair),
		zap.String("action", string(action)),
		zap.Float64("price", sig.Price))

	// Delivery failure is logged but never blocks persistence: losing the
	// message is recoverable, losing the state transition is not.
	if err := s.Notifier.Deliver(s.Ctx, state.DefaultChatID, notifier.FormatAlert(sig)); err != nil {
		s.log.Error("deliver alert", zap.String("pair", pair), zap.Error(err))
	}

	if err := s.persistTransition(pair, newState); err != nil {
		s.log.Error("persist failed, trade state may be stale after restart",
			zap.String("pair", pair),
			zap.String("action", string(action)),
			zap.Error(err))
	}

	if err := s.Recorder.RecordSignal(sig); err != nil {
		s.log.Warn("record signal", zap.Error(err))
	}
	return true, nil
}

// persistTransition retries the durable write aggressively; a failure here
// means duplicate or missed alerts after a restart.
func (s *Scheduler) persistTransition(pair string, st model.PairState) error {
	var lastErr error
	for i := 0; i < saveRetries; i++ {
		if lastErr = s.Store.ApplyTransition(pair, st); lastErr == nil {
			return nil
		}
		select {
		case <-s.Ctx.Done():
			return lastErr
		case <-time.After(saveRetryDelay * time.Duration(i+1)):
		}
	}
	return errors.Wrapf(lastErr, "persist %s after %d attempts", pair, saveRetries)
}

// RegisterDigest schedules the daily digest message.
func (s *Scheduler) RegisterDigest(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.dailyDigest); err != nil {
		return errors.Wrap(err, "register digest")
	}
	return nil
}

// StartCron starts the cron tasks.
func (s *Scheduler) StartCron() { s.Cron.Start() }

// StopCron stops the cron tasks gracefully.
func (s *Scheduler) StopCron() { s.Cron.Stop() }

func (s *Scheduler) dailyDigest() {
	state := s.Store.Snapshot()
	if state.DefaultChatID == 0 {
		return
	}
	count, err := s.Recorder.CountSignalsSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		s.log.Warn("count signals for digest", zap.Error(err))
	}
	if err := s.Notifier.Deliver(s.Ctx, state.DefaultChatID, notifier.FormatDigest(state, count)); err != nil {
		s.log.Error("deliver digest", zap.Error(err))
	}
}
