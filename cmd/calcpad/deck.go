package main

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phinze/calcpad/internal/device/deck"
)

const (
	deckProbeTimeout = 5 * time.Second
	deckPollInterval = 2 * time.Second
)

var deckSerial string

var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Host the keypad on a Stream Deck, reconnecting when it is unplugged",
	RunE:  runDeck,
}

func init() {
	deckCmd.Flags().StringVar(&deckSerial, "serial", "", "Stream Deck serial number (default: first found)")
}

func runDeck(cmd *cobra.Command, args []string) error {
	h, err := newHost()
	if err != nil {
		return err
	}
	defer h.Close()

	bindings := h.loader.Config().Deck.Bindings
	if len(bindings) == 0 {
		return errors.New("no deck.bindings configured; run 'calcpad setup'")
	}

	ctx, cancel := signalContext()
	defer cancel()

	logrus.Info("Press Ctrl+C to exit")

	// Main device loop - wait for device, run, repeat on disconnect
	for {
		if !waitForDeck(ctx) {
			logrus.Info("Exiting...")
			return nil
		}

		// USB enumeration may not be complete even after the probe succeeds.
		time.Sleep(500 * time.Millisecond)

		// Re-read bindings so edits apply on the next connection.
		cfg := h.loader.Config()
		db := make([]deck.Binding, 0, len(cfg.Deck.Bindings))
		for _, b := range cfg.Deck.Bindings {
			db = append(db, deck.Binding{Key: b.Key, Code: b.Code})
		}

		surface := deck.New(deckSerial, db, h.skin, logrus.StandardLogger())
		if err := h.run(ctx, surface); err != nil {
			logrus.WithError(err).Warn("Device disconnected")
		}

		select {
		case <-ctx.Done():
			logrus.Info("Exiting...")
			return nil
		default:
			logrus.Info("Waiting for device reconnect...")
		}
	}
}

// waitForDeck polls until a Stream Deck is available. It returns false when
// ctx is cancelled first.
func waitForDeck(ctx context.Context) bool {
	if deck.Probe(deckSerial, deckProbeTimeout) {
		return true
	}

	logrus.Info("Waiting for device...")
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(deckPollInterval):
		}

		if deck.Probe(deckSerial, deckProbeTimeout) {
			logrus.Info("Device connected")
			return true
		}
	}
}
