// Package config provides configuration loading from YAML or TOML files and
// environment variables. Environment variables take precedence for dev flexibility.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/phinze/calcpad/internal/keypad"
)

// ErrUnknownFormat is returned for config files that are neither YAML nor TOML.
var ErrUnknownFormat = errors.New("unknown config format")

// Engine kinds.
const (
	EngineLog    = "log"
	EngineUinput = "uinput"
)

// Config holds the full application configuration, assembled from file + env.
type Config struct {
	// Skin is the path to a skin layout file. Empty selects the built-in skin.
	Skin string `yaml:"skin,omitempty" toml:"skin,omitempty"`

	Gestures    GesturesConfig    `yaml:"gestures" toml:"gestures"`
	Feedback    FeedbackConfig    `yaml:"feedback" toml:"feedback"`
	Engine      EngineConfig      `yaml:"engine" toml:"engine"`
	Log         LogConfig         `yaml:"log" toml:"log"`
	Deck        DeckConfig        `yaml:"deck,omitempty" toml:"deck,omitempty"`
	Touchscreen TouchscreenConfig `yaml:"touchscreen,omitempty" toml:"touchscreen,omitempty"`
}

// GesturesConfig controls swipe and long-press recognition.
type GesturesConfig struct {
	Enabled        bool          `yaml:"enabled" toml:"enabled"`
	LongPress      time.Duration `yaml:"long_press" toml:"long_press"`
	SwipeRatio     float64       `yaml:"swipe_ratio" toml:"swipe_ratio"`
	ComboHighlight time.Duration `yaml:"combo_highlight" toml:"combo_highlight"`
}

// FeedbackConfig toggles key-tap feedback.
type FeedbackConfig struct {
	Haptic bool `yaml:"haptic" toml:"haptic"`
	Audio  bool `yaml:"audio" toml:"audio"`
}

// EngineConfig selects where key events go.
type EngineConfig struct {
	Kind string        `yaml:"kind" toml:"kind"`
	Hold time.Duration `yaml:"hold" toml:"hold"`

	// Device is the uinput control device, used when Kind is "uinput".
	Device string `yaml:"device,omitempty" toml:"device,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file,omitempty" toml:"file,omitempty"`
}

// DeckConfig binds Stream Deck keys to calculator keys.
type DeckConfig struct {
	Bindings []DeckBinding `yaml:"bindings,omitempty" toml:"bindings,omitempty"`
}

// DeckBinding maps one Stream Deck key (zero-based) to a calculator key code.
type DeckBinding struct {
	Key  int            `yaml:"key" toml:"key"`
	Code keypad.KeyCode `yaml:"code" toml:"code"`
}

// TouchscreenConfig selects the evdev device for the touch surface.
type TouchscreenConfig struct {
	// Device is an evdev node. Empty picks the first multi-touch device.
	Device string `yaml:"device,omitempty" toml:"device,omitempty"`

	// MaxX and MaxY are the device's absolute axis maxima. Zero means the
	// device already reports skin canvas coordinates.
	MaxX int32 `yaml:"max_x,omitempty" toml:"max_x,omitempty"`
	MaxY int32 `yaml:"max_y,omitempty" toml:"max_y,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	kp := keypad.DefaultConfig()
	return &Config{
		Gestures: GesturesConfig{
			Enabled:        true,
			LongPress:      kp.LongPressDelay,
			SwipeRatio:     kp.SwipeThresholdRatio,
			ComboHighlight: kp.ComboHighlight,
		},
		Feedback: FeedbackConfig{Haptic: true, Audio: true},
		Engine:   EngineConfig{Kind: EngineLog, Hold: 30 * time.Millisecond},
		Log:      LogConfig{Level: "info"},
	}
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "calcpad")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if p := os.Getenv("CALCPAD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load reads path (defaults when it does not exist), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	return cfg, nil
}

// ApplyEnvOverrides layers CALCPAD_* environment variables over the config.
// Unparseable boolean values are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CALCPAD_SKIN"); v != "" {
		c.Skin = v
	}
	if v := os.Getenv("CALCPAD_GESTURES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Gestures.Enabled = b
		}
	}
	if v := os.Getenv("CALCPAD_ENGINE"); v != "" {
		c.Engine.Kind = v
	}
	if v := os.Getenv("CALCPAD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CALCPAD_TOUCHSCREEN"); v != "" {
		c.Touchscreen.Device = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	g := c.Gestures
	if g.LongPress <= 0 {
		return fmt.Errorf("gestures.long_press must be positive, got %s", g.LongPress)
	}
	if g.SwipeRatio <= 0 || g.SwipeRatio > 1 {
		return fmt.Errorf("gestures.swipe_ratio must be in (0, 1], got %g", g.SwipeRatio)
	}
	if g.ComboHighlight <= 0 {
		return fmt.Errorf("gestures.combo_highlight must be positive, got %s", g.ComboHighlight)
	}
	switch c.Engine.Kind {
	case EngineLog, EngineUinput:
	default:
		return fmt.Errorf("unknown engine kind %q", c.Engine.Kind)
	}
	if c.Engine.Hold < 0 {
		return fmt.Errorf("engine.hold must not be negative, got %s", c.Engine.Hold)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Touchscreen.MaxX < 0 || c.Touchscreen.MaxY < 0 {
		return fmt.Errorf("touchscreen axis maxima must not be negative")
	}
	seen := make(map[int]bool, len(c.Deck.Bindings))
	for _, b := range c.Deck.Bindings {
		if b.Key < 0 {
			return fmt.Errorf("deck binding: negative key %d", b.Key)
		}
		if seen[b.Key] {
			return fmt.Errorf("deck binding: key %d bound twice", b.Key)
		}
		seen[b.Key] = true
		if !b.Code.Valid() {
			return fmt.Errorf("deck binding for key %d: code %d out of range", b.Key, b.Code)
		}
	}
	return nil
}

// Keypad returns the gesture parameters for a keypad session.
func (c *Config) Keypad() keypad.Config {
	kp := keypad.DefaultConfig()
	kp.LongPressDelay = c.Gestures.LongPress
	kp.SwipeThresholdRatio = c.Gestures.SwipeRatio
	kp.ComboHighlight = c.Gestures.ComboHighlight
	return kp
}

// WriteConfigFile writes cfg to path, in TOML when path ends in .toml and in
// YAML otherwise.
func WriteConfigFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
