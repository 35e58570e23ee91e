//go:build !linux

package engine

import (
	"errors"

	"github.com/phinze/calcpad/internal/keypad"
)

// DefaultUinputPath is the uinput control device.
const DefaultUinputPath = "/dev/uinput"

// UinputSender is only available on Linux.
type UinputSender struct{}

// NewUinputSender always fails outside Linux.
func NewUinputSender(string, map[keypad.KeyCode]int) (*UinputSender, error) {
	return nil, errors.New("uinput is only supported on linux")
}

func (*UinputSender) KeyDown(keypad.KeyCode) error { return nil }
func (*UinputSender) KeyUp(keypad.KeyCode) error   { return nil }
func (*UinputSender) Close() error                 { return nil }
