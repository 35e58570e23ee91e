// Package coordinator wires a keypad session to an input surface, the key
// engine and the renderer, and manages their lifecycle.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/phinze/calcpad/internal/config"
	"github.com/phinze/calcpad/internal/device"
	"github.com/phinze/calcpad/internal/keypad"
	"github.com/phinze/calcpad/internal/skin"
)

// Engine is a keypad engine that must be drained on shutdown.
type Engine interface {
	keypad.Engine
	Close() error
}

// Options configure a Coordinator. Config, Skin, Engine and Surface are
// required.
type Options struct {
	Config  *config.Config
	Skin    *skin.Skin
	Engine  Engine
	Surface device.Surface

	// Scheduler defaults to keypad.SystemScheduler.
	Scheduler keypad.Scheduler
	Log       logrus.FieldLogger
}

// Coordinator hosts one keypad session on one surface.
type Coordinator struct {
	skin    *skin.Skin
	engine  Engine
	surface device.Surface
	session *keypad.Session
	log     logrus.FieldLogger

	// Live settings, updated by ApplyConfig.
	gestures atomic.Bool
	haptic   atomic.Bool
	audio    atomic.Bool

	// redraw holds at most one pending request; further invalidations
	// collapse into it.
	redraw chan struct{}

	// Lifecycle
	mu       sync.Mutex
	cancel   context.CancelFunc
	stopped  bool
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a Coordinator and its session.
func New(opts Options) *Coordinator {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Coordinator{
		skin:    opts.Skin,
		engine:  opts.Engine,
		surface: opts.Surface,
		log:     log.WithField("surface", opts.Surface.Name()),
		redraw:  make(chan struct{}, 1),
	}
	c.ApplyConfig(opts.Config)

	c.session = keypad.NewSession(opts.Config.Keypad(), keypad.Options{
		Skin:           opts.Skin,
		Engine:         opts.Engine,
		Display:        keypad.DisplayFunc(c.Invalidate),
		Feedback:       keypad.FeedbackFunc(c.Trigger),
		Scheduler:      opts.Scheduler,
		GestureEnabled: c.gestures.Load,
		Logger:         log,
	})
	return c
}

// Session returns the hosted keypad session.
func (c *Coordinator) Session() *keypad.Session {
	return c.session
}

// ApplyConfig updates the settings that take effect without a restart.
// Gesture timing changes need a new session and are not applied.
func (c *Coordinator) ApplyConfig(cfg *config.Config) {
	c.gestures.Store(cfg.Gestures.Enabled)
	c.haptic.Store(cfg.Feedback.Haptic)
	c.audio.Store(cfg.Feedback.Audio)
	c.log.WithFields(logrus.Fields{
		"gestures": cfg.Gestures.Enabled,
		"haptic":   cfg.Feedback.Haptic,
		"audio":    cfg.Feedback.Audio,
	}).Debug("Settings applied")
}

// Invalidate requests a redraw. It never blocks.
func (c *Coordinator) Invalidate() {
	select {
	case c.redraw <- struct{}{}:
	default:
	}
}

// Trigger produces key-tap feedback when enabled.
func (c *Coordinator) Trigger() {
	haptic, audio := c.haptic.Load(), c.audio.Load()
	if !haptic && !audio {
		return
	}
	c.log.WithFields(logrus.Fields{"haptic": haptic, "audio": audio}).Debug("Key feedback")
	if f, ok := c.surface.(device.Flasher); ok {
		f.Flash()
	}
}

// Start opens the surface and runs it until ctx is done or the surface fails.
func (c *Coordinator) Start(ctx context.Context) error {
	if err := c.surface.Open(); err != nil {
		return fmt.Errorf("opening %s: %w", c.surface.Name(), err)
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	c.mu.Unlock()

	go c.renderLoop(ctx)

	c.log.Info("Keypad started")
	return c.surface.Run(ctx, c.session)
}

// Stop shuts down in dependency order: the session releases held keys into
// the engine, the engine drains, then the surface closes.
func (c *Coordinator) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		cancel := c.cancel
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		c.wg.Wait()

		c.session.Close()
		if cerr := c.engine.Close(); cerr != nil {
			c.log.WithError(cerr).Warn("Engine close failed")
		}
		err = c.surface.Close()
		c.log.Info("Keypad stopped")
	})
	return err
}

// renderLoop redraws the keypad on every invalidation.
func (c *Coordinator) renderLoop(ctx context.Context) {
	defer c.wg.Done()

	r, ok := c.surface.(device.Renderer)
	if !ok {
		return
	}

	// Initial render
	c.render(r)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.redraw:
			c.render(r)
		}
	}
}

func (c *Coordinator) render(r device.Renderer) {
	frame := c.skin.Render(c.session.Pressed())
	if err := r.SetFrame(frame); err != nil {
		c.log.WithError(err).Warn("Failed to render keypad")
	}
}
