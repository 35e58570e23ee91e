package main

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/phinze/calcpad/internal/config"
	"github.com/phinze/calcpad/internal/coordinator"
	"github.com/phinze/calcpad/internal/device"
	"github.com/phinze/calcpad/internal/engine"
	"github.com/phinze/calcpad/internal/skin"
)

const stopTimeout = 2 * time.Second

// host holds what outlives a single surface connection: the config loader,
// the skin and the coordinator currently running.
type host struct {
	loader  *config.Loader
	skin    *skin.Skin
	logFile io.Closer
	current atomic.Pointer[coordinator.Coordinator]
}

// newHost loads the config and skin, configures logging and starts watching
// the config file.
func newHost() (*host, error) {
	loader := config.NewLoader(configPath, logrus.StandardLogger())
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logFile, err := setupLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	sk, err := skin.LoadOrDefault(cfg.Skin)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("loading skin: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"config": loader.Path(),
		"skin":   sk.Name(),
	}).Info("Configuration loaded")

	h := &host{loader: loader, skin: sk, logFile: logFile}
	loader.OnChange(h.applyConfig)
	if err := loader.Watch(); err != nil {
		logrus.WithError(err).Warn("Config hot reload unavailable")
	}
	return h, nil
}

func (h *host) applyConfig(cfg *config.Config) {
	if logLevel == "" {
		if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
			logrus.SetLevel(level)
		}
	}
	if c := h.current.Load(); c != nil {
		c.ApplyConfig(cfg)
	}
}

func (h *host) Close() {
	if err := h.loader.Close(); err != nil {
		logrus.WithError(err).Warn("Closing config watcher")
	}
	h.logFile.Close()
}

// newEngine builds the key engine selected by the config.
func (h *host) newEngine(cfg *config.Config) (*engine.Player, error) {
	log := logrus.WithField("engine", cfg.Engine.Kind)

	var sender engine.Sender
	switch cfg.Engine.Kind {
	case config.EngineUinput:
		path := cfg.Engine.Device
		if path == "" {
			path = engine.DefaultUinputPath
		}
		s, err := engine.NewUinputSender(path, h.skin.Scancodes())
		if err != nil {
			return nil, fmt.Errorf("creating uinput keyboard: %w", err)
		}
		sender = s
	default:
		sender = engine.LogSender{Log: log}
	}
	return engine.NewPlayer(sender, cfg.Engine.Hold, log), nil
}

// run hosts the keypad on surface until ctx is done or the surface fails.
// Every call starts a fresh session and engine.
func (h *host) run(ctx context.Context, surface device.Surface) error {
	cfg := h.loader.Config()
	eng, err := h.newEngine(cfg)
	if err != nil {
		return err
	}

	coord := coordinator.New(coordinator.Options{
		Config:  cfg,
		Skin:    h.skin,
		Engine:  eng,
		Surface: surface,
		Log:     logrus.StandardLogger(),
	})
	h.current.Store(coord)
	defer h.current.Store(nil)

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- coord.Start(runCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logrus.Info("Shutting down...")
	case runErr = <-errChan:
	}
	runCancel()

	done := make(chan error, 1)
	go func() {
		done <- coord.Stop()
	}()

	select {
	case err := <-done:
		if err != nil {
			logrus.WithError(err).Warn("Stopping surface")
		}
	case <-time.After(stopTimeout):
		logrus.Warn("Cleanup timed out")
	}
	return runErr
}
