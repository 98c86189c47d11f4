package strategy

import "FxSentinel/internal/model"

// Input carries everything the crossover machine needs for one evaluation:
// the two most recent closes and the two EMA values at the latest bar.
// When only one bar is available the caller sets PrevClose = LatestClose,
// which makes a crossover impossible for that cycle.
type Input struct {
	PrevClose   float64
	LatestClose float64
	TrendEMA    float64
	EntryEMA    float64
}

// Evaluate runs one step of the per-pair crossover state machine and returns
// the new pair state plus the action taken. At most one transition happens
// per call. The trend EMA gates entries only: exits are decided on the entry
// EMA alone, so a pair can be stopped out while still on the right side of
// the trend. That fast-exit asymmetry is part of the strategy, not a bug.
func Evaluate(in Input, st model.PairState) (model.PairState, model.Action) {
	if !st.InTrade {
		// Long entry: price above trend, crossing up through the entry EMA.
		if in.LatestClose > in.TrendEMA && in.PrevClose <= in.EntryEMA && in.LatestClose > in.EntryEMA {
			return model.PairState{InTrade: true, Side: model.SideBuy}, model.ActionEnterLong
		}
		// Short entry: price below trend, crossing down through the entry EMA.
		if in.LatestClose < in.TrendEMA && in.PrevClose >= in.EntryEMA && in.LatestClose < in.EntryEMA {
			return model.PairState{InTrade: true, Side: model.SideSell}, model.ActionEnterShort
		}
		return st, model.ActionNone
	}

	switch st.Side {
	case model.SideBuy:
		if in.PrevClose >= in.EntryEMA && in.LatestClose < in.EntryEMA {
			return model.PairState{}, model.ActionExitLong
		}
	case model.SideSell:
		if in.PrevClose <= in.EntryEMA && in.LatestClose > in.EntryEMA {
			return model.PairState{}, model.ActionExitShort
		}
	}
	return st, model.ActionNone
}
