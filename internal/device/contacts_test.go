package device

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phinze/calcpad/internal/keypad"
)

type recordingSink struct {
	events []string
}

func (s *recordingSink) OnPointerDown(id int, x, y float64) {
	s.events = append(s.events, fmt.Sprintf("down %d %.0f,%.0f", id, x, y))
}

func (s *recordingSink) OnPointerMoves(samples []keypad.PointerSample) {
	out := "moves"
	for _, m := range samples {
		out += fmt.Sprintf(" %d:%.0f,%.0f", m.ID, m.X, m.Y)
	}
	s.events = append(s.events, out)
}

func (s *recordingSink) OnPointerUp(id int) keypad.Outcome {
	s.events = append(s.events, fmt.Sprintf("up %d", id))
	return keypad.OutcomeNone
}

func (s *recordingSink) OnCancelAll() {
	s.events = append(s.events, "cancel")
}

func TestContacts_FrameOrdering(t *testing.T) {
	sink := &recordingSink{}
	c := NewContacts()

	c.Frame(sink, []Contact{{ID: 1, X: 10, Y: 10}})
	c.Frame(sink, []Contact{{ID: 1, X: 10, Y: 5}, {ID: 2, X: 50, Y: 50}})
	c.Frame(sink, []Contact{{ID: 3, X: 70, Y: 70}, {ID: 2, X: 50, Y: 40}})
	c.Frame(sink, nil)

	assert.Equal(t, []string{
		"down 1 10,10",
		"down 2 50,50",
		"moves 1:10,5",
		"down 3 70,70",
		"moves 2:50,40",
		"up 1",
		"up 3",
		"up 2",
	}, sink.events)
	assert.Zero(t, c.Len())
}

func TestContacts_DuplicateIDKeepsLastPosition(t *testing.T) {
	sink := &recordingSink{}
	c := NewContacts()

	c.Frame(sink, []Contact{{ID: 4, X: 1, Y: 1}, {ID: 4, X: 2, Y: 2}})
	assert.Equal(t, []string{"down 4 2,2"}, sink.events)
	assert.Equal(t, 1, c.Len())
}

func TestContacts_Cancel(t *testing.T) {
	sink := &recordingSink{}
	c := NewContacts()

	c.Frame(sink, []Contact{{ID: 1, X: 1, Y: 1}})
	c.Cancel(sink)
	c.Frame(sink, []Contact{{ID: 1, X: 3, Y: 3}})

	assert.Equal(t, []string{"down 1 1,1", "cancel", "down 1 3,3"}, sink.events)
}
