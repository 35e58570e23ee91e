package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phinze/calcpad/internal/config"
	"github.com/phinze/calcpad/internal/skin"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup: choose skin, gestures, feedback and engine",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("=== calcpad Setup ===")
	fmt.Println()

	// Load existing config as defaults
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Existing config is invalid (%v), starting from defaults\n\n", err)
		cfg = config.Default()
	}

	fmt.Println("-- Skin --")
	cfg.Skin = prompt(reader, "Skin layout file (empty for built-in)", cfg.Skin)
	sk, err := skin.LoadOrDefault(cfg.Skin)
	if err != nil {
		return fmt.Errorf("loading skin: %w", err)
	}
	fmt.Printf("  -> %s, %d buttons\n", sk.Name(), len(sk.Buttons()))
	fmt.Println()

	// Gesture settings only mean something when swipes can reach a 2nd key.
	if sk.HasGestures() {
		fmt.Println("-- Gestures --")
		cfg.Gestures.Enabled = promptBool(reader, "Swipe up for 2nd, down for alpha", cfg.Gestures.Enabled)
		fmt.Println()
	}

	fmt.Println("-- Feedback --")
	cfg.Feedback.Haptic = promptBool(reader, "Haptic feedback", cfg.Feedback.Haptic)
	cfg.Feedback.Audio = promptBool(reader, "Audio feedback", cfg.Feedback.Audio)
	fmt.Println()

	fmt.Println("-- Engine --")
	for {
		kind := prompt(reader, "Key output (log or uinput)", cfg.Engine.Kind)
		if kind == config.EngineLog || kind == config.EngineUinput {
			cfg.Engine.Kind = kind
			break
		}
		fmt.Printf("  Unknown engine %q\n", kind)
	}
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// Write config file
	if err := config.WriteConfigFile(configPath, cfg); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Config written to %s\n", configPath)
	fmt.Println("Setup complete!")
	return nil
}

// prompt asks for a value with an optional default.
func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

// promptBool asks a yes/no question. Unrecognized answers keep the default.
func promptBool(reader *bufio.Reader, label string, defaultVal bool) bool {
	def := "y/N"
	if defaultVal {
		def = "Y/n"
	}
	answer := strings.ToLower(prompt(reader, label+" ("+def+")", ""))
	switch answer {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	}
	if b, err := strconv.ParseBool(answer); err == nil {
		return b
	}
	return defaultVal
}
