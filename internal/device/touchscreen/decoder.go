// Package touchscreen hosts the keypad on a Linux multi-touch screen read
// through evdev.
package touchscreen

import (
	"sort"

	"github.com/phinze/calcpad/internal/device"
)

// Event type and code values from linux/input-event-codes.h.
const (
	evSyn = 0x00
	evAbs = 0x03

	synReport  = 0x00
	synDropped = 0x03

	absMTSlot       = 0x2f
	absMTPositionX  = 0x35
	absMTPositionY  = 0x36
	absMTTrackingID = 0x39
)

// Event is one raw input event.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Scale maps device axis ranges onto the skin canvas.
type Scale struct {
	MaxX, MaxY    int32
	Width, Height float64
}

func (s Scale) apply(x, y int32) (float64, float64) {
	fx, fy := float64(x), float64(y)
	if s.MaxX > 0 {
		fx = fx * s.Width / float64(s.MaxX)
	}
	if s.MaxY > 0 {
		fy = fy * s.Height / float64(s.MaxY)
	}
	return fx, fy
}

type slot struct {
	trackingID int32
	x, y       int32
}

// Decoder reassembles multi-touch protocol B events into frames. Tracking ids
// become pointer ids; each SYN_REPORT flushes one frame to the sink.
type Decoder struct {
	scale    Scale
	slots    map[int32]*slot
	current  int32
	contacts *device.Contacts
	dropped  bool
}

// NewDecoder creates a decoder with all slots empty.
func NewDecoder(scale Scale) *Decoder {
	return &Decoder{
		scale:    scale,
		slots:    make(map[int32]*slot),
		contacts: device.NewContacts(),
	}
}

// Feed consumes one event.
func (d *Decoder) Feed(sink device.PointerSink, ev Event) {
	switch ev.Type {
	case evAbs:
		d.feedAbs(ev)
	case evSyn:
		switch ev.Code {
		case synReport:
			if d.dropped {
				// Events up to and including this report are incomplete.
				d.dropped = false
				return
			}
			d.flush(sink)
		case synDropped:
			d.dropped = true
			for _, s := range d.slots {
				s.trackingID = -1
			}
			d.contacts.Cancel(sink)
		}
	}
}

func (d *Decoder) feedAbs(ev Event) {
	switch ev.Code {
	case absMTSlot:
		d.current = ev.Value
	case absMTTrackingID:
		// A lifted slot keeps its last position: the kernel only reports
		// axes that change, so the next contact may inherit x or y.
		d.slot().trackingID = ev.Value
	case absMTPositionX:
		d.slot().x = ev.Value
	case absMTPositionY:
		d.slot().y = ev.Value
	}
}

func (d *Decoder) slot() *slot {
	s, ok := d.slots[d.current]
	if !ok {
		s = &slot{trackingID: -1}
		d.slots[d.current] = s
	}
	return s
}

func (d *Decoder) flush(sink device.PointerSink) {
	keys := make([]int32, 0, len(d.slots))
	for k, s := range d.slots {
		if s.trackingID >= 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	frame := make([]device.Contact, 0, len(keys))
	for _, k := range keys {
		s := d.slots[k]
		x, y := d.scale.apply(s.x, s.y)
		frame = append(frame, device.Contact{ID: int(s.trackingID), X: x, Y: y})
	}
	d.contacts.Frame(sink, frame)
}
