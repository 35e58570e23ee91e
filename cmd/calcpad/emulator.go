package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phinze/calcpad/internal/device/emulator"
)

var windowScale float64

var emulatorCmd = &cobra.Command{
	Use:   "emulator",
	Short: "Show the keypad in a desktop window (default)",
	RunE:  runEmulator,
}

func init() {
	emulatorCmd.Flags().Float64Var(&windowScale, "scale", 1, "window scale factor")
}

func runEmulator(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}
	defer h.Close()

	ctx, cancel := signalContext()
	defer cancel()

	width, height := h.skin.Size()
	emu := emulator.New("calcpad - "+h.skin.Name(), width, height, windowScale, logrus.StandardLogger())
	if err := emu.Open(); err != nil {
		return err
	}

	logrus.Info("Close window or press Ctrl+C to exit")

	runDone := make(chan error, 1)
	go func() {
		runDone <- h.run(ctx, emu)
	}()

	// Run GUI on main thread (required for macOS)
	guiErr := emu.RunGUI()
	if guiErr != nil {
		logrus.WithError(guiErr).Error("Emulator GUI error")
	}

	cancel()
	select {
	case err := <-runDone:
		if err != nil {
			return err
		}
	case <-time.After(stopTimeout + time.Second):
		logrus.Warn("Shutdown timed out")
	}
	return guiErr
}
