package keypad

import "sync"

// Registry records which keys are currently down for highlighting purposes,
// independently of whether a key-down reached the engine.
//
// All methods are safe for concurrent use. The Session shares the registry's
// lock so tracker and registry mutations are serialized behind one mutex.
type Registry struct {
	mu      sync.Mutex
	pressed []KeyPress

	engine  Engine
	display Display
}

// NewRegistry creates an empty registry. A nil display is allowed.
func NewRegistry(engine Engine, display Display) *Registry {
	if display == nil {
		display = nopDisplay{}
	}
	return &Registry{
		engine:  engine,
		display: display,
	}
}

// Press records key and emits a logical key-down, unless an entry already
// exists for the same key code or touch id.
func (r *Registry) Press(key KeyPress) {
	if !key.KeyCode.Valid() {
		return
	}
	r.mu.Lock()
	r.pressLocked(key)
	r.mu.Unlock()
	r.display.Invalidate()
}

// PressVisualOnly records key for highlighting without emitting anything,
// unless an entry already exists for the same touch id.
func (r *Registry) PressVisualOnly(key KeyPress) {
	if !key.KeyCode.Valid() {
		return
	}
	r.mu.Lock()
	r.pressVisualOnlyLocked(key)
	r.mu.Unlock()
	r.display.Invalidate()
}

// Release emits a logical key-up for the entry owned by touchID and removes it.
// Unknown touch ids are ignored.
func (r *Registry) Release(touchID int) {
	r.mu.Lock()
	removed := r.releaseLocked(touchID)
	r.mu.Unlock()
	if removed {
		r.display.Invalidate()
	}
}

// ReleaseVisualOnly removes the entry owned by touchID without emitting anything.
func (r *Registry) ReleaseVisualOnly(touchID int) {
	r.mu.Lock()
	r.releaseVisualOnlyLocked(touchID)
	r.mu.Unlock()
	r.display.Invalidate()
}

// ReleaseAll emits a logical key-up for every entry and clears the registry.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	r.releaseAllLocked()
	r.mu.Unlock()
	r.display.Invalidate()
}

// Snapshot returns a copy of the pressed entries in insertion order.
func (r *Registry) Snapshot() []KeyPress {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]KeyPress, len(r.pressed))
	copy(out, r.pressed)
	return out
}

// Len returns the number of pressed entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pressed)
}

func (r *Registry) pressLocked(key KeyPress) bool {
	if !key.KeyCode.Valid() {
		return false
	}
	for _, p := range r.pressed {
		if p.KeyCode == key.KeyCode || p.TouchID == key.TouchID {
			return false
		}
	}
	r.pressed = append(r.pressed, key)
	r.engine.SendKey(key.KeyCode, true)
	return true
}

func (r *Registry) pressVisualOnlyLocked(key KeyPress) bool {
	if !key.KeyCode.Valid() {
		return false
	}
	if r.indexLocked(key.TouchID) >= 0 {
		return false
	}
	r.pressed = append(r.pressed, key)
	return true
}

func (r *Registry) releaseLocked(touchID int) bool {
	i := r.indexLocked(touchID)
	if i < 0 {
		return false
	}
	r.engine.SendKey(r.pressed[i].KeyCode, false)
	r.removeLocked(i)
	return true
}

func (r *Registry) releaseVisualOnlyLocked(touchID int) bool {
	i := r.indexLocked(touchID)
	if i < 0 {
		return false
	}
	r.removeLocked(i)
	return true
}

func (r *Registry) releaseAllLocked() {
	for _, p := range r.pressed {
		r.engine.SendKey(p.KeyCode, false)
	}
	r.pressed = r.pressed[:0]
}

func (r *Registry) indexLocked(touchID int) int {
	for i, p := range r.pressed {
		if p.TouchID == touchID {
			return i
		}
	}
	return -1
}

func (r *Registry) removeLocked(i int) {
	r.pressed = append(r.pressed[:i], r.pressed[i+1:]...)
}
