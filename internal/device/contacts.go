package device

import "github.com/phinze/calcpad/internal/keypad"

// Contact is one active pointer in a frame.
type Contact struct {
	ID   int
	X, Y float64
}

// Contacts turns successive frames of active pointers into pointer events.
// Each frame is flushed as downs for new pointers, one batch of moves for
// continuing pointers, then ups for pointers that went away, so the sink
// always sees a pointer's down before its moves and up.
//
// A Contacts is not safe for concurrent use.
type Contacts struct {
	active map[int]Contact
	order  []int
}

// NewContacts returns an empty tracker.
func NewContacts() *Contacts {
	return &Contacts{active: make(map[int]Contact)}
}

// Frame applies the set of pointers active in the current frame. Duplicate
// ids within a frame keep the last position.
func (c *Contacts) Frame(sink PointerSink, frame []Contact) {
	current := make(map[int]Contact, len(frame))
	var ids []int
	for _, ct := range frame {
		if _, dup := current[ct.ID]; !dup {
			ids = append(ids, ct.ID)
		}
		current[ct.ID] = ct
	}

	var moves []keypad.PointerSample
	for _, id := range ids {
		ct := current[id]
		if _, ok := c.active[id]; !ok {
			sink.OnPointerDown(id, ct.X, ct.Y)
			continue
		}
		moves = append(moves, keypad.PointerSample{ID: id, X: ct.X, Y: ct.Y})
	}
	if len(moves) > 0 {
		sink.OnPointerMoves(moves)
	}

	for _, id := range c.order {
		if _, still := current[id]; !still {
			sink.OnPointerUp(id)
		}
	}

	c.active = current
	c.order = ids
}

// Cancel forgets every active pointer and tells the sink to drop all gestures.
func (c *Contacts) Cancel(sink PointerSink) {
	c.active = make(map[int]Contact)
	c.order = nil
	sink.OnCancelAll()
}

// Len returns the number of active pointers.
func (c *Contacts) Len() int {
	return len(c.active)
}
