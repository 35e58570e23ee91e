// Package engine delivers logical calculator key events to an output backend.
//
// The keypad core calls into the engine with its lock held, so a Player never
// performs I/O on the caller's goroutine: events are queued and replayed in
// order by a single worker.
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/phinze/calcpad/internal/keypad"
)

// ErrClosed is reported for events sent after Close.
var ErrClosed = errors.New("engine closed")

// DefaultHold is how long the keys of a combo stay down.
const DefaultHold = 30 * time.Millisecond

// Sender performs the actual key output.
type Sender interface {
	KeyDown(code keypad.KeyCode) error
	KeyUp(code keypad.KeyCode) error
}

type actionKind int

const (
	actionDown actionKind = iota
	actionUp
	actionCombo
)

type action struct {
	kind  actionKind
	codes []keypad.KeyCode
}

// Player implements keypad.Engine on top of a Sender.
type Player struct {
	sender Sender
	hold   time.Duration
	log    logrus.FieldLogger

	mu     sync.Mutex
	queue  []action
	closed bool

	wake chan struct{}
	done chan struct{}
}

// NewPlayer starts a player. hold is the combo hold time; zero or negative
// releases combo keys immediately after pressing them.
func NewPlayer(sender Sender, hold time.Duration, log logrus.FieldLogger) *Player {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Player{
		sender: sender,
		hold:   hold,
		log:    log,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// SendKey queues a single key-down or key-up.
func (p *Player) SendKey(code keypad.KeyCode, down bool) {
	kind := actionUp
	if down {
		kind = actionDown
	}
	p.enqueue(action{kind: kind, codes: []keypad.KeyCode{code}})
}

// SendKeyCombo queues a combo: all codes pressed in order, held, then
// released in reverse order.
func (p *Player) SendKeyCombo(codes []keypad.KeyCode) {
	if len(codes) == 0 {
		return
	}
	c := make([]keypad.KeyCode, len(codes))
	copy(c, codes)
	p.enqueue(action{kind: actionCombo, codes: c})
}

func (p *Player) enqueue(a action) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.WithError(ErrClosed).WithField("keys", a.codes).Warn("Dropping key event")
		return
	}
	p.queue = append(p.queue, a)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting events, waits for queued events to be sent, and
// closes the sender if it is closable.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	<-p.done

	if c, ok := p.sender.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (p *Player) run() {
	defer close(p.done)
	for range p.wake {
		for {
			p.mu.Lock()
			if len(p.queue) == 0 {
				closed := p.closed
				p.mu.Unlock()
				if closed {
					return
				}
				break
			}
			a := p.queue[0]
			p.queue = p.queue[1:]
			p.mu.Unlock()

			p.play(a)
		}
	}
}

func (p *Player) play(a action) {
	switch a.kind {
	case actionDown:
		p.down(a.codes[0])
	case actionUp:
		p.up(a.codes[0])
	case actionCombo:
		for _, c := range a.codes {
			p.down(c)
		}
		if p.hold > 0 {
			time.Sleep(p.hold)
		}
		for i := len(a.codes) - 1; i >= 0; i-- {
			p.up(a.codes[i])
		}
	}
}

func (p *Player) down(code keypad.KeyCode) {
	if err := p.sender.KeyDown(code); err != nil {
		p.log.WithError(err).WithField("key", code).Warn("Failed to press key")
	}
}

func (p *Player) up(code keypad.KeyCode) {
	if err := p.sender.KeyUp(code); err != nil {
		p.log.WithError(err).WithField("key", code).Warn("Failed to release key")
	}
}
