//go:build linux

package engine

import (
	"fmt"

	"github.com/bendahl/uinput"

	"github.com/phinze/calcpad/internal/keypad"
)

// DefaultUinputPath is the uinput control device.
const DefaultUinputPath = "/dev/uinput"

// UinputSender emits calculator keys as host key events through a virtual
// keyboard.
type UinputSender struct {
	keyboard  uinput.Keyboard
	scancodes map[keypad.KeyCode]int
}

// NewUinputSender creates a virtual keyboard named "calcpad". scancodes maps
// calculator keys to Linux input event codes.
func NewUinputSender(path string, scancodes map[keypad.KeyCode]int) (*UinputSender, error) {
	kb, err := uinput.CreateKeyboard(path, []byte("calcpad"))
	if err != nil {
		return nil, fmt.Errorf("creating virtual keyboard: %w", err)
	}
	return &UinputSender{keyboard: kb, scancodes: scancodes}, nil
}

func (s *UinputSender) KeyDown(code keypad.KeyCode) error {
	sc, err := s.scancode(code)
	if err != nil {
		return err
	}
	return s.keyboard.KeyDown(sc)
}

func (s *UinputSender) KeyUp(code keypad.KeyCode) error {
	sc, err := s.scancode(code)
	if err != nil {
		return err
	}
	return s.keyboard.KeyUp(sc)
}

// Close destroys the virtual keyboard.
func (s *UinputSender) Close() error {
	return s.keyboard.Close()
}

func (s *UinputSender) scancode(code keypad.KeyCode) (int, error) {
	sc, ok := s.scancodes[code]
	if !ok {
		return 0, fmt.Errorf("key %d has no scancode", code)
	}
	return sc, nil
}
