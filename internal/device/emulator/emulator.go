// Package emulator hosts the keypad in a desktop window.
package emulator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"

	"github.com/phinze/calcpad/internal/device"
)

const (
	flashDuration = 80 * time.Millisecond
	flashBorder   = 3

	// mousePointerID is the pointer id of the left mouse button. Touches use
	// ids starting at firstTouchPointerID.
	mousePointerID      = 0
	firstTouchPointerID = 1
)

var colorFlash = color.RGBA{255, 200, 50, 255}

var errNotOpen = errors.New("emulator: window is not open")

// Emulator implements device.Surface with an Ebitengine window. The mouse is
// one pointer and every touch is another, so multi-touch works on touch
// screens.
type Emulator struct {
	mu sync.RWMutex

	title  string
	width  int
	height int
	scale  float64

	open       bool
	frame      *image.RGBA
	dirty      bool
	flashUntil time.Time
	sink       device.PointerSink

	stopCh  chan struct{}
	guiDone chan struct{}
	log     logrus.FieldLogger

	// Input state, owned by the game loop.
	contacts *device.Contacts
	focused  bool
	screen   *ebiten.Image
}

// New creates an emulator window for a canvas of the given size. scale
// multiplies the window size only; pointer coordinates stay in canvas pixels.
func New(title string, width, height int, scale float64, log logrus.FieldLogger) *Emulator {
	if scale <= 0 {
		scale = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Emulator{
		title:    title,
		width:    width,
		height:   height,
		scale:    scale,
		log:      log,
		frame:    image.NewRGBA(image.Rect(0, 0, width, height)),
		contacts: device.NewContacts(),
		focused:  true,
	}
}

// Name returns the surface name.
func (e *Emulator) Name() string {
	return "emulator"
}

// Open prepares the window. The window itself appears with RunGUI. Opening an
// open emulator is a no-op, so the GUI can be prepared before the surface is
// handed to a coordinator.
func (e *Emulator) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		return nil
	}
	e.open = true
	e.stopCh = make(chan struct{})
	e.guiDone = make(chan struct{})
	return nil
}

// Close asks the window to close.
func (e *Emulator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return nil
	}
	e.open = false
	close(e.stopCh)
	return nil
}

// Run routes window input to sink. It blocks until ctx is done or the window
// is closed.
func (e *Emulator) Run(ctx context.Context, sink device.PointerSink) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return errNotOpen
	}
	e.sink = sink
	guiDone := e.guiDone
	e.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-guiDone:
	}

	e.mu.Lock()
	e.sink = nil
	e.mu.Unlock()
	return nil
}

// Done is closed when the window has been closed.
func (e *Emulator) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.guiDone
}

// SetFrame replaces the displayed keypad image.
func (e *Emulator) SetFrame(img image.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rgba := image.NewRGBA(image.Rect(0, 0, e.width, e.height))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	e.frame = rgba
	e.dirty = true
	return nil
}

// Flash briefly outlines the window as key-tap feedback.
func (e *Emulator) Flash() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flashUntil = time.Now().Add(flashDuration)
}

// RunGUI starts the Ebitengine loop. This MUST be called from the main goroutine
// on macOS due to Cocoa threading requirements. It blocks until the window is closed.
func (e *Emulator) RunGUI() error {
	e.mu.RLock()
	if !e.open {
		e.mu.RUnlock()
		return errNotOpen
	}
	guiDone := e.guiDone
	e.mu.RUnlock()
	defer close(guiDone)

	ebiten.SetWindowSize(int(float64(e.width)*e.scale), int(float64(e.height)*e.scale))
	ebiten.SetWindowTitle(e.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(false)

	err := ebiten.RunGame(&game{emu: e})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// game implements ebiten.Game for the emulator.
type game struct {
	emu *Emulator
}

func (g *game) Update() error {
	select {
	case <-g.emu.stopCh:
		return ebiten.Termination
	default:
	}

	g.emu.mu.RLock()
	sink := g.emu.sink
	g.emu.mu.RUnlock()
	if sink == nil {
		return nil
	}

	g.emu.handleInput(sink)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	e := g.emu
	e.mu.Lock()
	if e.screen == nil {
		e.screen = ebiten.NewImage(e.width, e.height)
		e.dirty = true
	}
	if e.dirty {
		e.screen.WritePixels(e.frame.Pix)
		e.dirty = false
	}
	flashing := time.Now().Before(e.flashUntil)
	e.mu.Unlock()

	screen.DrawImage(e.screen, nil)
	if flashing {
		drawRect(screen, 0, 0, e.width, flashBorder, colorFlash)
		drawRect(screen, 0, e.height-flashBorder, e.width, flashBorder, colorFlash)
		drawRect(screen, 0, 0, flashBorder, e.height, colorFlash)
		drawRect(screen, e.width-flashBorder, 0, flashBorder, e.height, colorFlash)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.emu.width, g.emu.height
}

// handleInput polls the mouse and touches and forwards the frame to sink.
// Losing window focus cancels every gesture in flight.
func (e *Emulator) handleInput(sink device.PointerSink) {
	focused := ebiten.IsFocused()
	if !focused {
		if e.focused && e.contacts.Len() > 0 {
			e.log.Debug("Window lost focus, cancelling gestures")
			e.contacts.Cancel(sink)
		}
		e.focused = false
		return
	}
	e.focused = true

	var frame []device.Contact
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		frame = append(frame, device.Contact{ID: mousePointerID, X: float64(mx), Y: float64(my)})
	}
	for _, id := range ebiten.AppendTouchIDs(nil) {
		tx, ty := ebiten.TouchPosition(id)
		frame = append(frame, device.Contact{
			ID: firstTouchPointerID + int(id),
			X:  float64(tx),
			Y:  float64(ty),
		})
	}
	e.contacts.Frame(sink, frame)
}

// drawRect draws a filled rectangle.
func drawRect(screen *ebiten.Image, x, y, w, h int, c color.Color) {
	rect := ebiten.NewImage(w, h)
	rect.Fill(c)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(rect, op)
}
