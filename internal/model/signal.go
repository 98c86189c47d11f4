package model

// Action is the outcome of one crossover evaluation.
type Action string

const (
	ActionNone       Action = ""
	ActionEnterLong  Action = "ENTER_LONG"
	ActionEnterShort Action = "ENTER_SHORT"
	ActionExitLong   Action = "EXIT_LONG"
	ActionExitShort  Action = "EXIT_SHORT"
)

// Alert returns the alert text for the action, empty for ActionNone.
func (a Action) Alert() string {
	switch a {
	case ActionEnterLong:
		return "BUY NOW"
	case ActionEnterShort:
		return "SELL NOW"
	case ActionExitLong:
		return "EXIT BUY"
	case ActionExitShort:
		return "EXIT SELL"
	default:
		return ""
	}
}

// Signal is an emitted trade alert together with the inputs that produced it.
type Signal struct {
	Pair      string
	Timeframe string
	Action    Action
	Price     float64
	TrendEMA  float64
	EntryEMA  float64
}
