package keypad

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Touch ids reserved for the temporary highlight shown on combo dispatch.
// Platform pointer ids are never negative.
const (
	SecondHighlightTouchID = -999
	AlphaHighlightTouchID  = -998
)

// Config holds the timing and geometry parameters of gesture recognition.
type Config struct {
	// LongPressDelay is how long a contact must be held before the key-down
	// is sent on its own. Default: 300ms.
	LongPressDelay time.Duration

	// SwipeThresholdRatio is the fraction of the button height a contact must
	// travel vertically to count as a swipe. Default: 0.5.
	SwipeThresholdRatio float64

	// DefaultButtonHeight is used when the skin has no geometry for a key.
	DefaultButtonHeight float64

	// ComboHighlight is how long the 2nd/alpha key stays highlighted after a
	// combo dispatch. Default: 100ms.
	ComboHighlight time.Duration
}

// DefaultConfig returns the standard gesture parameters.
func DefaultConfig() Config {
	return Config{
		LongPressDelay:      300 * time.Millisecond,
		SwipeThresholdRatio: 0.5,
		DefaultButtonHeight: 50,
		ComboHighlight:      100 * time.Millisecond,
	}
}

// Options are the collaborators of a Session. Skin and Engine are required.
type Options struct {
	Skin     Skin
	Engine   Engine
	Display  Display
	Feedback Feedback

	// Scheduler defaults to SystemScheduler.
	Scheduler Scheduler

	// GestureEnabled is consulted on every contact-down. Nil means enabled.
	GestureEnabled func() bool

	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// PointerSample is one pointer position within a movement batch.
type PointerSample struct {
	ID   int
	X, Y float64
}

// Session is the input state of one hosted keypad: the pressed-key registry,
// the per-pointer gesture trackers and their long-press timers. It is created
// when a surface starts hosting the keypad and closed when it stops.
//
// All methods are safe for concurrent use. Pointer events and timer callbacks
// are serialized behind the registry lock.
type Session struct {
	cfg      Config
	skin     Skin
	engine   Engine
	feedback Feedback
	sched    Scheduler
	gestures func() bool
	log      logrus.FieldLogger

	reg *Registry

	// Guarded by reg.mu.
	trackers   map[int]*touchTracker
	highlights map[int]*pending
	closed     bool
}

// NewSession creates a session for the given collaborators.
func NewSession(cfg Config, opts Options) *Session {
	def := DefaultConfig()
	if cfg.LongPressDelay <= 0 {
		cfg.LongPressDelay = def.LongPressDelay
	}
	if cfg.SwipeThresholdRatio <= 0 {
		cfg.SwipeThresholdRatio = def.SwipeThresholdRatio
	}
	if cfg.DefaultButtonHeight <= 0 {
		cfg.DefaultButtonHeight = def.DefaultButtonHeight
	}
	if cfg.ComboHighlight <= 0 {
		cfg.ComboHighlight = def.ComboHighlight
	}

	s := &Session{
		cfg:        cfg,
		skin:       opts.Skin,
		engine:     opts.Engine,
		feedback:   opts.Feedback,
		sched:      opts.Scheduler,
		gestures:   opts.GestureEnabled,
		log:        opts.Logger,
		reg:        NewRegistry(opts.Engine, opts.Display),
		trackers:   make(map[int]*touchTracker),
		highlights: make(map[int]*pending),
	}
	if s.feedback == nil {
		s.feedback = nopFeedback{}
	}
	if s.sched == nil {
		s.sched = SystemScheduler()
	}
	if s.gestures == nil {
		s.gestures = func() bool { return true }
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Registry returns the session's pressed-key registry.
func (s *Session) Registry() *Registry {
	return s.reg
}

// Pressed returns the keys to highlight.
func (s *Session) Pressed() []KeyPress {
	return s.reg.Snapshot()
}

// Active returns the number of pointers currently tracked as gestures.
func (s *Session) Active() int {
	s.lock()
	defer s.unlock()
	return len(s.trackers)
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.lock()
	defer s.unlock()
	return s.closed
}

// OnPointerDown handles a new contact at (x, y).
func (s *Session) OnPointerDown(pointerID int, x, y float64) {
	if s.Closed() {
		return
	}
	if sw, ok := s.skin.(ScreenSwapper); ok && sw.SwapScreenAt(x, y) {
		s.log.WithField("pointer", pointerID).Debug("screen swap")
		s.reg.display.Invalidate()
		return
	}

	code, ok := s.skin.KeyAt(x, y)
	if !ok || !code.Valid() {
		return
	}
	key := KeyPress{KeyCode: code, TouchID: pointerID, X: x, Y: y}

	if !s.gestures() {
		s.lock()
		if s.closed {
			s.unlock()
			return
		}
		s.reg.pressLocked(key)
		s.unlock()
		s.reg.display.Invalidate()
		s.feedback.Trigger()
		return
	}

	threshold := s.buttonHeight(code) * s.cfg.SwipeThresholdRatio

	s.lock()
	if s.closed || s.trackers[pointerID] != nil {
		s.unlock()
		return
	}
	t := newTouchTracker(pointerID, x, y, code, threshold)
	s.trackers[pointerID] = t
	s.reg.pressVisualOnlyLocked(key)
	s.armLongPressLocked(t)
	s.unlock()

	s.reg.display.Invalidate()
	s.feedback.Trigger()
}

// OnPointerMove handles a movement sample for one pointer.
func (s *Session) OnPointerMove(pointerID int, x, y float64) {
	s.OnPointerMoves([]PointerSample{{ID: pointerID, X: x, Y: y}})
}

// OnPointerMoves handles one frame of movement samples, one per active pointer.
func (s *Session) OnPointerMoves(samples []PointerSample) {
	s.lock()
	defer s.unlock()
	for _, sample := range samples {
		t := s.trackers[sample.ID]
		if t == nil || t.swipeResolved() {
			continue
		}
		if dir := t.classify(sample.X, sample.Y); dir != SwipeNone {
			s.log.WithFields(logrus.Fields{
				"pointer": sample.ID,
				"key":     t.startKeyCode,
				"swipe":   dir,
			}).Debug("swipe detected")
		}
	}
}

// OnPointerUp handles the end of a contact and reports how it was resolved.
// Pointers that were never tracked fall back to a plain registry release.
func (s *Session) OnPointerUp(pointerID int) Outcome {
	s.lock()
	if s.closed {
		s.unlock()
		return OutcomeNone
	}

	t := s.trackers[pointerID]
	if t == nil {
		removed := s.reg.releaseLocked(pointerID)
		s.unlock()
		if removed {
			s.reg.display.Invalidate()
		}
		return OutcomeNone
	}

	t.cancelLongPress()
	s.reg.releaseVisualOnlyLocked(pointerID)
	outcome := resolve(t, s.skin.OnKey())
	highlighted := s.dispatchLocked(t, outcome)
	delete(s.trackers, pointerID)
	s.unlock()

	s.reg.display.Invalidate()
	if highlighted {
		s.feedback.Trigger()
	}
	s.log.WithFields(logrus.Fields{
		"pointer": pointerID,
		"key":     t.startKeyCode,
		"outcome": outcome,
	}).Debug("gesture resolved")
	return outcome
}

// OnCancelAll discards every in-flight gesture. Contacts whose long press
// already sent a key-down get their key-up; all others emit nothing. That
// key-up is the one event a cancel emits, so no key is left down.
func (s *Session) OnCancelAll() {
	s.lock()
	n := s.cancelAllLocked()
	s.unlock()
	if n > 0 {
		s.reg.display.Invalidate()
		s.log.WithField("trackers", n).Debug("gestures cancelled")
	}
}

// Close cancels all gestures, releases every pressed key and makes the session
// ignore further events.
func (s *Session) Close() {
	s.lock()
	if s.closed {
		s.unlock()
		return
	}
	s.cancelAllLocked()
	for id, p := range s.highlights {
		p.cancel()
		s.reg.releaseVisualOnlyLocked(id)
		delete(s.highlights, id)
	}
	s.reg.releaseAllLocked()
	s.closed = true
	s.unlock()
	s.reg.display.Invalidate()
}

func (s *Session) lock()   { s.reg.mu.Lock() }
func (s *Session) unlock() { s.reg.mu.Unlock() }

func (s *Session) cancelAllLocked() int {
	n := len(s.trackers)
	for id, t := range s.trackers {
		t.cancelLongPress()
		s.reg.releaseVisualOnlyLocked(id)
		if t.longPressFired {
			s.engine.SendKey(t.startKeyCode, false)
		}
		delete(s.trackers, id)
	}
	return n
}

func (s *Session) buttonHeight(code KeyCode) float64 {
	if r, ok := s.skin.ButtonRegion(code); ok && r.Height > 0 {
		return r.Height
	}
	return s.cfg.DefaultButtonHeight
}

func (s *Session) armLongPressLocked(t *touchTracker) {
	p := &pending{}
	p.timer = s.sched.AfterFunc(s.cfg.LongPressDelay, func() {
		s.fireLongPress(t, p)
	})
	t.longPress = p
}

func (s *Session) fireLongPress(t *touchTracker, p *pending) {
	s.lock()
	defer s.unlock()
	if t.longPress != p || !p.fire() {
		return
	}
	t.longPress = nil
	t.longPressFired = true
	s.engine.SendKey(t.startKeyCode, true)
	s.log.WithFields(logrus.Fields{
		"pointer": t.pointerID,
		"key":     t.startKeyCode,
	}).Debug("long press")
}

// dispatchLocked emits the logical key events for outcome. It reports whether
// a combo highlight was shown.
func (s *Session) dispatchLocked(t *touchTracker, outcome Outcome) bool {
	code := t.startKeyCode
	switch outcome {
	case OutcomeLongPress, OutcomePowerRelease:
		s.engine.SendKey(code, false)
	case OutcomeUpCombo:
		second := s.skin.SecondKey()
		shown := s.highlightLocked(second, SecondHighlightTouchID)
		s.engine.SendKeyCombo([]KeyCode{orFallback(second, FallbackSecondKey), code})
		return shown
	case OutcomeDownCombo:
		alpha := s.skin.AlphaKey()
		shown := s.highlightLocked(alpha, AlphaHighlightTouchID)
		s.engine.SendKeyCombo([]KeyCode{orFallback(alpha, FallbackAlphaKey), code})
		return shown
	case OutcomeTap:
		s.engine.SendKeyCombo([]KeyCode{code})
	}
	return false
}

// highlightLocked briefly highlights code under the reserved touchID. A
// highlight still showing for the same touchID is replaced and re-armed.
func (s *Session) highlightLocked(code KeyCode, touchID int) bool {
	if !code.Valid() {
		return false
	}
	region, ok := s.skin.ButtonRegion(code)
	if !ok {
		return false
	}
	if prev := s.highlights[touchID]; prev != nil {
		prev.cancel()
		s.reg.releaseVisualOnlyLocked(touchID)
	}
	s.reg.pressVisualOnlyLocked(KeyPress{
		KeyCode: code,
		TouchID: touchID,
		X:       region.CenterX,
		Y:       region.CenterY,
	})

	p := &pending{}
	p.timer = s.sched.AfterFunc(s.cfg.ComboHighlight, func() {
		s.clearHighlight(touchID, p)
	})
	s.highlights[touchID] = p
	return true
}

func (s *Session) clearHighlight(touchID int, p *pending) {
	s.lock()
	if s.highlights[touchID] != p || !p.fire() {
		s.unlock()
		return
	}
	delete(s.highlights, touchID)
	s.reg.releaseVisualOnlyLocked(touchID)
	s.unlock()
	s.reg.display.Invalidate()
}

func orFallback(code, fallback KeyCode) KeyCode {
	if code.Valid() {
		return code
	}
	return fallback
}
