//go:build !linux

package touchscreen

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/phinze/calcpad/internal/device"
)

var errUnsupported = errors.New("touchscreen: evdev is only available on linux")

// Touchscreen is unavailable off Linux.
type Touchscreen struct{}

// New returns a surface whose Open always fails.
func New(string, Scale, logrus.FieldLogger) *Touchscreen {
	return &Touchscreen{}
}

func (*Touchscreen) Name() string { return "touchscreen" }
func (*Touchscreen) Open() error  { return errUnsupported }
func (*Touchscreen) Close() error { return nil }

func (*Touchscreen) Run(context.Context, device.PointerSink) error {
	return errUnsupported
}
