package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phinze/calcpad/internal/config"
	"github.com/phinze/calcpad/internal/device/deck"
	"github.com/phinze/calcpad/internal/engine"
	"github.com/phinze/calcpad/internal/skin"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check config, skin, and device health",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== calcpad Status ===")
	fmt.Println()

	allOK := true

	// Config file
	fmt.Printf("Config file: %s\n", configPath)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("  Status: found")
	} else {
		fmt.Println("  Status: not found, using defaults")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("  Load error: %v\n", err)
		fmt.Println()
		fmt.Println("Some checks failed. Run 'calcpad setup' to configure.")
		return nil
	}
	fmt.Println()

	// Skin
	fmt.Println("Skin:")
	sk, err := skin.LoadOrDefault(cfg.Skin)
	if err != nil {
		fmt.Printf("  Load error: %v\n", err)
		allOK = false
	} else {
		source := cfg.Skin
		if source == "" {
			source = "built-in"
		}
		w, h := sk.Size()
		fmt.Printf("  Layout: %s (%s)\n", sk.Name(), source)
		fmt.Printf("  Canvas: %dx%d, %d buttons\n", w, h, len(sk.Buttons()))
	}
	fmt.Println()

	// Gestures
	fmt.Println("Gestures:")
	switch {
	case sk != nil && !sk.HasGestures():
		fmt.Println("  Swipe gestures: unavailable (skin has no 2nd key)")
	case cfg.Gestures.Enabled:
		fmt.Printf("  Swipe gestures: on (long press %s, swipe ratio %g)\n",
			cfg.Gestures.LongPress, cfg.Gestures.SwipeRatio)
	default:
		fmt.Println("  Swipe gestures: off")
	}
	fmt.Printf("  Feedback: haptic=%t audio=%t\n", cfg.Feedback.Haptic, cfg.Feedback.Audio)
	fmt.Println()

	// Engine
	fmt.Println("Engine:")
	fmt.Printf("  Kind: %s (hold %s)\n", cfg.Engine.Kind, cfg.Engine.Hold)
	if cfg.Engine.Kind == config.EngineUinput {
		path := cfg.Engine.Device
		if path == "" {
			path = engine.DefaultUinputPath
		}
		if f, err := os.OpenFile(path, os.O_WRONLY, 0); err == nil {
			f.Close()
			fmt.Printf("  Device %s: writable\n", path)
		} else {
			fmt.Printf("  Device %s: NOT WRITABLE (%v)\n", path, err)
			allOK = false
		}
	}
	fmt.Println()

	// Device check (quick USB probe)
	fmt.Println("Stream Deck:")
	fmt.Printf("  Bindings: %d\n", len(cfg.Deck.Bindings))
	if deck.Probe("", 2*time.Second) {
		fmt.Println("  Device: CONNECTED")
	} else {
		fmt.Println("  Device: not detected")
	}
	fmt.Println()

	if cfg.Touchscreen.Device != "" {
		fmt.Println("Touchscreen:")
		if _, err := os.Stat(cfg.Touchscreen.Device); err == nil {
			fmt.Printf("  Device %s: found\n", cfg.Touchscreen.Device)
		} else {
			fmt.Printf("  Device %s: NOT FOUND\n", cfg.Touchscreen.Device)
			allOK = false
		}
		fmt.Println()
	}

	if allOK {
		fmt.Println("All checks passed.")
	} else {
		fmt.Println("Some checks failed. Run 'calcpad setup' to configure.")
	}

	return nil
}
