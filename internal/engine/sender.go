package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/phinze/calcpad/internal/keypad"
)

// LogSender writes every key event to the log instead of a device. Useful for
// running the emulator on hosts without uinput.
type LogSender struct {
	Log logrus.FieldLogger
}

func (s LogSender) KeyDown(code keypad.KeyCode) error {
	s.logger().WithField("key", code).Info("key down")
	return nil
}

func (s LogSender) KeyUp(code keypad.KeyCode) error {
	s.logger().WithField("key", code).Info("key up")
	return nil
}

func (s LogSender) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
