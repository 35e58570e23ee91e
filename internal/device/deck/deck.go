// Package deck hosts the keypad on an Elgato Stream Deck: each bound deck key
// acts as one calculator button and shows that button's face.
package deck

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"rafaelmartins.com/p/streamdeck"

	"github.com/phinze/calcpad/internal/device"
	"github.com/phinze/calcpad/internal/keypad"
)

// pointerBase offsets deck key indexes into their own pointer id range so
// they cannot collide with mouse or touch pointers.
const pointerBase = 1000

const brightness = 80

// Binding maps a deck key (zero-based) to a calculator key.
type Binding struct {
	Key  int
	Code keypad.KeyCode
}

// Locator resolves calculator keys to their on-screen buttons.
type Locator interface {
	ButtonRegion(code keypad.KeyCode) (keypad.Region, bool)
}

// releaser is the part of a pressed deck key the press handler needs.
type releaser interface {
	WaitForRelease() time.Duration
}

// Deck implements device.Surface and device.Renderer on Stream Deck hardware.
// Swipes are impossible by construction, so deck keys produce taps and long
// presses only.
type Deck struct {
	serial   string
	bindings []Binding
	skin     Locator
	log      logrus.FieldLogger

	mu  sync.Mutex
	dev *streamdeck.Device
}

// New creates a deck surface. An empty serial selects the first device found.
func New(serial string, bindings []Binding, skin Locator, log logrus.FieldLogger) *Deck {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Deck{
		serial:   serial,
		bindings: bindings,
		skin:     skin,
		log:      log.WithField("surface", "deck"),
	}
}

// Name returns the surface name.
func (d *Deck) Name() string {
	return "deck"
}

// Open finds and opens the Stream Deck and blanks its keys.
func (d *Deck) Open() error {
	dev, err := streamdeck.GetDevice(d.serial)
	if err != nil {
		return fmt.Errorf("finding stream deck: %w", err)
	}
	if err := dev.Open(); err != nil {
		return fmt.Errorf("opening stream deck: %w", err)
	}

	if err := dev.SetBrightness(brightness); err != nil {
		d.log.WithError(err).Warn("Failed to set brightness")
	}
	dev.ForEachKey(func(key streamdeck.KeyID) error {
		return dev.ClearKey(key)
	})

	d.mu.Lock()
	d.dev = dev
	d.mu.Unlock()

	d.log.WithField("model", dev.GetModelName()).Info("Connected")
	return nil
}

// Probe reports whether a Stream Deck can be found and opened within timeout.
// The timeout guards against a wedged USB subsystem, where enumeration can
// block indefinitely.
func Probe(serial string, timeout time.Duration) bool {
	ch := make(chan bool, 1)
	go func() {
		dev, err := streamdeck.GetDevice(serial)
		if err != nil {
			ch <- false
			return
		}
		if err := dev.Open(); err != nil {
			ch <- false
			return
		}
		_ = dev.Close()
		ch <- true
	}()

	select {
	case ok := <-ch:
		return ok
	case <-time.After(timeout):
		return false
	}
}

// Close closes the device.
func (d *Deck) Close() error {
	d.mu.Lock()
	dev := d.dev
	d.dev = nil
	d.mu.Unlock()

	if dev == nil {
		return nil
	}
	return dev.Close()
}

// Run registers a handler per bound key and listens until ctx is done or the
// device disconnects.
func (d *Deck) Run(ctx context.Context, sink device.PointerSink) error {
	d.mu.Lock()
	dev := d.dev
	d.mu.Unlock()
	if dev == nil {
		return errors.New("deck: device is not open")
	}

	for _, b := range d.bindings {
		region, ok := d.skin.ButtonRegion(b.Code)
		if !ok {
			d.log.WithFields(logrus.Fields{"deck_key": b.Key, "key": b.Code}).Warn("Binding has no button, skipping")
			continue
		}
		pointerID := pointerBase + b.Key
		err := dev.AddKeyHandler(streamdeck.KeyID(b.Key+1), func(_ *streamdeck.Device, k *streamdeck.Key) error {
			press(sink, pointerID, region, k)
			return nil
		})
		if err != nil {
			return fmt.Errorf("binding deck key %d: %w", b.Key, err)
		}
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- dev.Listen(nil)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("deck disconnected: %w", err)
		}
		return nil
	}
}

// press forwards one key press as a contact at the button center, held until
// the deck key is released.
func press(sink device.PointerSink, pointerID int, region keypad.Region, k releaser) {
	sink.OnPointerDown(pointerID, region.CenterX, region.CenterY)
	k.WaitForRelease()
	sink.OnPointerUp(pointerID)
}

// SetFrame shows each bound button's face on its deck key.
func (d *Deck) SetFrame(frame image.Image) error {
	d.mu.Lock()
	dev := d.dev
	d.mu.Unlock()
	if dev == nil {
		return nil
	}

	keyRect, err := dev.GetKeyImageRectangle()
	if err != nil {
		return err
	}
	for _, b := range d.bindings {
		region, ok := d.skin.ButtonRegion(b.Code)
		if !ok {
			continue
		}
		if err := dev.SetKeyImage(streamdeck.KeyID(b.Key+1), keyImage(frame, region, keyRect)); err != nil {
			return fmt.Errorf("setting key %d image: %w", b.Key, err)
		}
	}
	return nil
}

// keyImage crops the button region out of frame and scales it to keyRect.
func keyImage(frame image.Image, region keypad.Region, keyRect image.Rectangle) image.Image {
	src := image.Rect(
		int(region.CenterX-region.Width/2),
		int(region.CenterY-region.Height/2),
		int(region.CenterX+region.Width/2),
		int(region.CenterY+region.Height/2),
	).Add(frame.Bounds().Min).Intersect(frame.Bounds())

	dst := image.NewRGBA(image.Rect(0, 0, keyRect.Dx(), keyRect.Dy()))
	if src.Empty() {
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, src, draw.Src, nil)
	return dst
}
