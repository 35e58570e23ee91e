package keypad

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// manualScheduler fires callbacks only when advanced.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{s: m, at: m.now + d, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every callback that became due.
func (m *manualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired && t.at <= m.now {
			t.fired = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// pendingCount returns the number of armed, unfired timers.
func (m *manualScheduler) pendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// recordingEngine records every logical key event as a string.
type recordingEngine struct {
	mu     sync.Mutex
	events []string
}

func (e *recordingEngine) SendKey(code KeyCode, down bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if down {
		e.events = append(e.events, fmt.Sprintf("down %d", code))
	} else {
		e.events = append(e.events, fmt.Sprintf("up %d", code))
	}
}

func (e *recordingEngine) SendKeyCombo(codes []KeyCode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, fmt.Sprintf("combo %v", codes))
}

func (e *recordingEngine) Events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	copy(out, e.events)
	return out
}

type countingDisplay struct {
	n atomic.Int64
}

func (d *countingDisplay) Invalidate() { d.n.Add(1) }

func (d *countingDisplay) Count() int64 { return d.n.Load() }

type countingFeedback struct {
	n atomic.Int64
}

func (f *countingFeedback) Trigger() { f.n.Add(1) }

// fakeSkin is a grid of square buttons.
type fakeSkin struct {
	buttons map[KeyCode]Region
	second  KeyCode
	alpha   KeyCode
	on      KeyCode
}

const (
	keyDigit KeyCode = 10
	keyOther KeyCode = 11
	keyOn    KeyCode = 70
)

func newFakeSkin() *fakeSkin {
	return &fakeSkin{
		buttons: map[KeyCode]Region{
			FallbackSecondKey: {CenterX: 20, CenterY: 20, Width: 40, Height: 40},
			FallbackAlphaKey:  {CenterX: 60, CenterY: 20, Width: 40, Height: 40},
			keyDigit:          {CenterX: 100, CenterY: 100, Width: 40, Height: 40},
			keyOther:          {CenterX: 140, CenterY: 100, Width: 40, Height: 40},
			keyOn:             {CenterX: 200, CenterY: 200, Width: 40, Height: 40},
		},
		second: FallbackSecondKey,
		alpha:  FallbackAlphaKey,
		on:     keyOn,
	}
}

func (s *fakeSkin) KeyAt(x, y float64) (KeyCode, bool) {
	for code, r := range s.buttons {
		if x >= r.CenterX-r.Width/2 && x < r.CenterX+r.Width/2 &&
			y >= r.CenterY-r.Height/2 && y < r.CenterY+r.Height/2 {
			return code, true
		}
	}
	return NoKey, false
}

func (s *fakeSkin) ButtonRegion(code KeyCode) (Region, bool) {
	r, ok := s.buttons[code]
	return r, ok
}

func (s *fakeSkin) SecondKey() KeyCode { return s.second }
func (s *fakeSkin) AlphaKey() KeyCode  { return s.alpha }
func (s *fakeSkin) OnKey() KeyCode     { return s.on }

// swapSkin consumes contacts in its screen area.
type swapSkin struct {
	*fakeSkin
	swaps int
}

func (s *swapSkin) SwapScreenAt(x, y float64) bool {
	if y < 10 {
		s.swaps++
		return true
	}
	return false
}

type harness struct {
	session  *Session
	sched    *manualScheduler
	engine   *recordingEngine
	display  *countingDisplay
	feedback *countingFeedback
	skin     *fakeSkin
	gestures atomic.Bool
}

func newHarness() *harness {
	return newHarnessWithSkin(newFakeSkin())
}

func newHarnessWithSkin(skin Skin) *harness {
	h := &harness{
		sched:    &manualScheduler{},
		engine:   &recordingEngine{},
		display:  &countingDisplay{},
		feedback: &countingFeedback{},
	}
	if fs, ok := skin.(*fakeSkin); ok {
		h.skin = fs
	}
	h.gestures.Store(true)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h.session = NewSession(DefaultConfig(), Options{
		Skin:           skin,
		Engine:         h.engine,
		Display:        h.display,
		Feedback:       h.feedback,
		Scheduler:      h.sched,
		GestureEnabled: h.gestures.Load,
		Logger:         logger,
	})
	return h
}

func touchIDs(keys []KeyPress) []int {
	ids := make([]int, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k.TouchID)
	}
	return ids
}
