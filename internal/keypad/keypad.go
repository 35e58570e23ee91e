// Package keypad turns raw multi-touch pointer events on a virtual calculator
// keypad into key-press and key-release events for an emulation engine.
//
// Each contact is classified as a tap, a long press, or a vertical swipe. An
// upward swipe dispatches the device's "2nd" key together with the touched key,
// a downward swipe dispatches the "alpha" key with it.
package keypad

// KeyCode identifies a calculator key as understood by the emulation engine.
type KeyCode int

// MaxKeyCode is the exclusive upper bound for valid key codes.
const MaxKeyCode KeyCode = 255

// NoKey is reported by a Skin for special keys the device does not have.
const NoKey KeyCode = -1

// Substituted when the skin does not expose a 2nd or alpha key (TI-89 values).
const (
	FallbackSecondKey KeyCode = 7
	FallbackAlphaKey  KeyCode = 79
)

// Valid reports whether k lies in [0, MaxKeyCode).
func (k KeyCode) Valid() bool {
	return k >= 0 && k < MaxKeyCode
}

// KeyPress associates one logical key with one physical touch.
type KeyPress struct {
	KeyCode KeyCode
	TouchID int
	X, Y    float64
}

// Region is the on-screen geometry of a button.
type Region struct {
	CenterX, CenterY float64
	Width, Height    float64
}

// Skin resolves coordinates to keys and exposes device-specific special keys.
type Skin interface {
	// KeyAt returns the key under (x, y), or false when nothing is hit.
	KeyAt(x, y float64) (KeyCode, bool)

	// ButtonRegion returns the geometry of the button for code.
	ButtonRegion(code KeyCode) (Region, bool)

	// SecondKey, AlphaKey and OnKey return NoKey when unsupported.
	SecondKey() KeyCode
	AlphaKey() KeyCode
	OnKey() KeyCode
}

// ScreenSwapper is implemented by skins with a screen swap mode. SwapScreenAt
// reports whether the contact at (x, y) was consumed by the swap.
type ScreenSwapper interface {
	SwapScreenAt(x, y float64) bool
}

// Engine is the logical key-emission boundary.
//
// Implementations are called with the session lock held and must not call back
// into the Session or Registry, nor block for long.
type Engine interface {
	SendKey(code KeyCode, down bool)

	// SendKeyCombo presses all codes in order, holds briefly, then releases them.
	SendKeyCombo(codes []KeyCode)
}

// Display receives a redraw request after every registry mutation. It may be
// called at high frequency; coalescing is up to the implementation.
type Display interface {
	Invalidate()
}

// Feedback produces haptic/acoustic feedback. Fire and forget.
type Feedback interface {
	Trigger()
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func()

func (f DisplayFunc) Invalidate() { f() }

// FeedbackFunc adapts a function to Feedback.
type FeedbackFunc func()

func (f FeedbackFunc) Trigger() { f() }

type nopDisplay struct{}

func (nopDisplay) Invalidate() {}

type nopFeedback struct{}

func (nopFeedback) Trigger() {}
