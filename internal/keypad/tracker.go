package keypad

import "math"

// Swipe is the direction of a detected vertical swipe.
type Swipe uint8

const (
	SwipeNone Swipe = iota
	SwipeUp
	SwipeDown
)

func (s Swipe) String() string {
	switch s {
	case SwipeUp:
		return "up"
	case SwipeDown:
		return "down"
	default:
		return "none"
	}
}

// IsSwipeUp reports whether moving from (startX, startY) to (x, y) travels at
// least threshold upwards and more vertically than horizontally. Screen y grows
// downwards.
func IsSwipeUp(startX, startY, threshold, x, y float64) bool {
	deltaY := startY - y
	deltaX := math.Abs(x - startX)
	if deltaY < threshold {
		return false
	}
	return deltaY > deltaX
}

// IsSwipeDown is the downward counterpart of IsSwipeUp.
func IsSwipeDown(startX, startY, threshold, x, y float64) bool {
	deltaY := startY - y
	deltaX := math.Abs(x - startX)
	if -deltaY < threshold {
		return false
	}
	return -deltaY > deltaX
}

// touchTracker is the per-pointer gesture state, from contact-down until
// contact-up or cancellation. Guarded by the session lock.
type touchTracker struct {
	pointerID      int
	startX, startY float64
	startKeyCode   KeyCode
	swipeThreshold float64

	upSwipe        bool
	downSwipe      bool
	longPressFired bool

	longPress *pending
}

func newTouchTracker(pointerID int, x, y float64, code KeyCode, threshold float64) *touchTracker {
	return &touchTracker{
		pointerID:      pointerID,
		startX:         x,
		startY:         y,
		startKeyCode:   code,
		swipeThreshold: threshold,
	}
}

// swipeResolved reports whether a direction has latched. Latched trackers are
// not classified again.
func (t *touchTracker) swipeResolved() bool {
	return t.upSwipe || t.downSwipe
}

// classify evaluates both swipe predicates for a movement sample and latches
// whichever holds. It returns the direction latched by this sample, if any.
func (t *touchTracker) classify(x, y float64) Swipe {
	latched := SwipeNone
	if IsSwipeUp(t.startX, t.startY, t.swipeThreshold, x, y) {
		t.upSwipe = true
		t.cancelLongPress()
		latched = SwipeUp
	}
	if IsSwipeDown(t.startX, t.startY, t.swipeThreshold, x, y) {
		t.downSwipe = true
		t.cancelLongPress()
		if latched == SwipeNone {
			latched = SwipeDown
		}
	}
	return latched
}

func (t *touchTracker) cancelLongPress() {
	t.longPress.cancel()
	t.longPress = nil
}

// swipe returns the latched direction, up taking priority over down.
func (t *touchTracker) swipe() Swipe {
	switch {
	case t.upSwipe:
		return SwipeUp
	case t.downSwipe:
		return SwipeDown
	default:
		return SwipeNone
	}
}
