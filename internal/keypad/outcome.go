package keypad

// Outcome is the single logical result of a tracked contact, decided on release.
type Outcome uint8

const (
	// OutcomeNone means the release did not belong to a tracked gesture.
	OutcomeNone Outcome = iota
	// OutcomeTap dispatches the key as press immediately followed by release.
	OutcomeTap
	// OutcomeLongPress releases a key whose key-down was sent by the timer.
	OutcomeLongPress
	// OutcomePowerRelease sends only a key-up for the on/power key.
	OutcomePowerRelease
	// OutcomeUpCombo dispatches the 2nd key together with the touched key.
	OutcomeUpCombo
	// OutcomeDownCombo dispatches the alpha key together with the touched key.
	OutcomeDownCombo
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTap:
		return "tap"
	case OutcomeLongPress:
		return "long-press"
	case OutcomePowerRelease:
		return "power-release"
	case OutcomeUpCombo:
		return "up-combo"
	case OutcomeDownCombo:
		return "down-combo"
	default:
		return "none"
	}
}

// resolve reconciles the flags accumulated by a tracker into one outcome.
// Priority: long press, power key, up swipe, down swipe, tap.
func resolve(t *touchTracker, onKey KeyCode) Outcome {
	switch {
	case t.longPressFired:
		return OutcomeLongPress
	case t.startKeyCode == onKey:
		return OutcomePowerRelease
	case t.swipe() == SwipeUp:
		return OutcomeUpCombo
	case t.swipe() == SwipeDown:
		return OutcomeDownCombo
	default:
		return OutcomeTap
	}
}
