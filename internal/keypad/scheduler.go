package keypad

import "time"

// Timer is a pending deferred callback.
type Timer interface {
	// Stop prevents the callback from running. It reports false when the
	// callback already ran or was already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay. *time.Timer satisfies Timer, so the
// system scheduler is a thin wrapper around time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler returns a Scheduler backed by the runtime timer.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

// pending is a cancellable handle for one armed callback. The callback runs on
// a timer goroutine and must take the session lock before calling fire; cancel
// is only ever called with the lock held, so whichever of the two acquires the
// lock first decides the race.
type pending struct {
	timer Timer
	done  bool
}

// cancel stops the callback. Calling it after the callback fired is a no-op.
func (p *pending) cancel() {
	if p == nil || p.done {
		return
	}
	p.done = true
	p.timer.Stop()
}

// fire marks the handle as completed and reports whether the callback should
// proceed.
func (p *pending) fire() bool {
	if p == nil || p.done {
		return false
	}
	p.done = true
	return true
}
