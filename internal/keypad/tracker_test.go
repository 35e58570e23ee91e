package keypad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwipePredicates(t *testing.T) {
	const startX, startY, threshold = 100.0, 100.0, 20.0

	tests := []struct {
		name     string
		x, y     float64
		wantUp   bool
		wantDown bool
	}{
		{name: "no movement", x: 100, y: 100},
		{name: "short upward", x: 100, y: 81},
		{name: "exact threshold upward", x: 100, y: 80, wantUp: true},
		{name: "long upward", x: 105, y: 40, wantUp: true},
		{name: "upward but too horizontal", x: 140, y: 75},
		{name: "upward diagonal tie", x: 125, y: 75},
		{name: "exact threshold downward", x: 100, y: 120, wantDown: true},
		{name: "long downward", x: 90, y: 170, wantDown: true},
		{name: "downward but too horizontal", x: 60, y: 125},
		{name: "horizontal only", x: 200, y: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantUp, IsSwipeUp(startX, startY, threshold, tt.x, tt.y))
			assert.Equal(t, tt.wantDown, IsSwipeDown(startX, startY, threshold, tt.x, tt.y))
		})
	}
}

func TestTracker_ClassifyLatchesFirstDirection(t *testing.T) {
	tr := newTouchTracker(1, 100, 100, keyDigit, 20)

	assert.Equal(t, SwipeNone, tr.classify(100, 90))
	assert.False(t, tr.swipeResolved())

	assert.Equal(t, SwipeUp, tr.classify(100, 70))
	assert.True(t, tr.swipeResolved())
	assert.Equal(t, SwipeUp, tr.swipe())
}

func TestTracker_UpWinsWhenBothLatched(t *testing.T) {
	tr := newTouchTracker(1, 100, 100, keyDigit, 20)
	tr.classify(100, 130)
	tr.classify(100, 70)

	assert.True(t, tr.upSwipe)
	assert.True(t, tr.downSwipe)
	assert.Equal(t, SwipeUp, tr.swipe())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		tracker touchTracker
		want    Outcome
	}{
		{name: "plain tap", tracker: touchTracker{startKeyCode: keyDigit}, want: OutcomeTap},
		{name: "long press", tracker: touchTracker{startKeyCode: keyDigit, longPressFired: true}, want: OutcomeLongPress},
		{name: "long press beats swipe", tracker: touchTracker{startKeyCode: keyDigit, longPressFired: true, upSwipe: true}, want: OutcomeLongPress},
		{name: "power key", tracker: touchTracker{startKeyCode: keyOn}, want: OutcomePowerRelease},
		{name: "power key ignores swipe", tracker: touchTracker{startKeyCode: keyOn, upSwipe: true}, want: OutcomePowerRelease},
		{name: "up swipe", tracker: touchTracker{startKeyCode: keyDigit, upSwipe: true}, want: OutcomeUpCombo},
		{name: "down swipe", tracker: touchTracker{startKeyCode: keyDigit, downSwipe: true}, want: OutcomeDownCombo},
		{name: "up before down", tracker: touchTracker{startKeyCode: keyDigit, upSwipe: true, downSwipe: true}, want: OutcomeUpCombo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(&tt.tracker, keyOn))
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "tap", OutcomeTap.String())
	assert.Equal(t, "up-combo", OutcomeUpCombo.String())
	assert.Equal(t, "none", Outcome(200).String())
}
