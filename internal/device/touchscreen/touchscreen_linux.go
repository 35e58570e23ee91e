//go:build linux

package touchscreen

import (
	"context"
	"errors"
	"fmt"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/sirupsen/logrus"

	"github.com/phinze/calcpad/internal/device"
)

// Touchscreen implements device.Surface on a Linux multi-touch screen.
type Touchscreen struct {
	path  string
	scale Scale
	log   logrus.FieldLogger

	mu  sync.Mutex
	dev *evdev.InputDevice
}

// New creates a touchscreen surface. An empty path selects the first device
// that reports multi-touch slots.
func New(path string, scale Scale, log logrus.FieldLogger) *Touchscreen {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Touchscreen{
		path:  path,
		scale: scale,
		log:   log.WithField("surface", "touchscreen"),
	}
}

// Name returns the surface name.
func (t *Touchscreen) Name() string {
	return "touchscreen"
}

// Open opens and grabs the evdev node.
func (t *Touchscreen) Open() error {
	path := t.path
	if path == "" {
		found, err := findMultitouch()
		if err != nil {
			return err
		}
		path = found
	}

	dev, err := evdev.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if err := dev.Grab(); err != nil {
		t.log.WithError(err).Warn("Failed to grab device, events will also reach the desktop")
	}

	t.mu.Lock()
	t.dev = dev
	t.mu.Unlock()

	t.log.WithFields(logrus.Fields{"path": path, "name": dev.Name}).Info("Connected")
	return nil
}

// Close releases and closes the device.
func (t *Touchscreen) Close() error {
	t.mu.Lock()
	dev := t.dev
	t.dev = nil
	t.mu.Unlock()

	if dev == nil {
		return nil
	}
	_ = dev.Release()
	return dev.File.Close()
}

// Run decodes events until ctx is done or the device stops reading.
func (t *Touchscreen) Run(ctx context.Context, sink device.PointerSink) error {
	t.mu.Lock()
	dev := t.dev
	t.mu.Unlock()
	if dev == nil {
		return errors.New("touchscreen: device is not open")
	}

	decoder := NewDecoder(t.scale)
	readErr := make(chan error, 1)
	go func() {
		for {
			events, err := dev.Read()
			if err != nil {
				readErr <- err
				return
			}
			for _, ev := range events {
				decoder.Feed(sink, Event{Type: ev.Type, Code: ev.Code, Value: ev.Value})
			}
		}
	}()

	select {
	case <-ctx.Done():
		// Closing the file unblocks the reader.
		return t.Close()
	case err := <-readErr:
		return fmt.Errorf("touchscreen read: %w", err)
	}
}

func findMultitouch() (string, error) {
	devices, err := evdev.ListInputDevices()
	if err != nil {
		return "", fmt.Errorf("listing input devices: %w", err)
	}
	for _, d := range devices {
		for capType, codes := range d.Capabilities {
			if capType.Type != evdev.EV_ABS {
				continue
			}
			for _, c := range codes {
				if c.Code == evdev.ABS_MT_SLOT {
					return d.Fn, nil
				}
			}
		}
	}
	return "", errors.New("no multi-touch device found")
}
