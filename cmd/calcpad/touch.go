package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phinze/calcpad/internal/device/touchscreen"
)

var touchCmd = &cobra.Command{
	Use:   "touch",
	Short: "Host the keypad on a Linux multi-touch screen",
	RunE:  runTouch,
}

func runTouch(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, cancel := signalContext()
	defer cancel()

	ts := h.loader.Config().Touchscreen
	width, height := h.skin.Size()
	surface := touchscreen.New(ts.Device, touchscreen.Scale{
		MaxX:   ts.MaxX,
		MaxY:   ts.MaxY,
		Width:  float64(width),
		Height: float64(height),
	}, logrus.StandardLogger())

	logrus.Info("Press Ctrl+C to exit")
	return h.run(ctx, surface)
}
