// Package device defines the input surfaces that can host a calculator keypad.
//
// A surface owns the platform input (a window, a Stream Deck, a touchscreen),
// translates it into pointer events in skin canvas coordinates, and forwards
// them to a PointerSink.
package device

import (
	"context"
	"image"

	"github.com/phinze/calcpad/internal/keypad"
)

// PointerSink consumes pointer events. *keypad.Session satisfies it.
type PointerSink interface {
	OnPointerDown(pointerID int, x, y float64)
	OnPointerMoves(samples []keypad.PointerSample)
	OnPointerUp(pointerID int) keypad.Outcome
	OnCancelAll()
}

// Surface is an input source hosting the keypad.
type Surface interface {
	Name() string
	Open() error
	Close() error

	// Run delivers events to sink until ctx is done or the surface fails.
	Run(ctx context.Context, sink PointerSink) error
}

// Renderer is implemented by surfaces that can show the keypad.
type Renderer interface {
	SetFrame(img image.Image) error
}

// Flasher is implemented by surfaces that can show key-tap feedback.
type Flasher interface {
	Flash()
}
