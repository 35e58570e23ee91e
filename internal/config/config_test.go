package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phinze/calcpad/internal/keypad"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Gestures.Enabled)
	assert.Equal(t, 300*time.Millisecond, cfg.Gestures.LongPress)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
skin: /skins/ti92.yaml
gestures:
  enabled: false
  long_press: 450ms
  swipe_ratio: 0.4
feedback:
  audio: false
engine:
  kind: uinput
log:
  level: debug
deck:
  bindings:
    - {key: 0, code: 7}
    - {key: 1, code: 79}
touchscreen:
  device: /dev/input/event3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/skins/ti92.yaml", cfg.Skin)
	assert.False(t, cfg.Gestures.Enabled)
	assert.Equal(t, 450*time.Millisecond, cfg.Gestures.LongPress)
	assert.Equal(t, 0.4, cfg.Gestures.SwipeRatio)
	assert.Equal(t, 100*time.Millisecond, cfg.Gestures.ComboHighlight, "unset fields keep defaults")
	assert.True(t, cfg.Feedback.Haptic)
	assert.False(t, cfg.Feedback.Audio)
	assert.Equal(t, EngineUinput, cfg.Engine.Kind)
	assert.Equal(t, []DeckBinding{{Key: 0, Code: 7}, {Key: 1, Code: 79}}, cfg.Deck.Bindings)
	assert.Equal(t, "/dev/input/event3", cfg.Touchscreen.Device)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
skin = "calc.yaml"

[gestures]
enabled = true
long_press = "250ms"
swipe_ratio = 0.75

[engine]
kind = "log"
hold = "10ms"

[[deck.bindings]]
key = 3
code = 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "calc.yaml", cfg.Skin)
	assert.Equal(t, 250*time.Millisecond, cfg.Gestures.LongPress)
	assert.Equal(t, 0.75, cfg.Gestures.SwipeRatio)
	assert.Equal(t, 10*time.Millisecond, cfg.Engine.Hold)
	assert.Equal(t, []DeckBinding{{Key: 3, Code: 50}}, cfg.Deck.Bindings)
}

func TestLoad_UnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	writeFile(t, path, "skin=x")

	_, err := Load(path)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "gestures: [not, a, map]")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "engine:\n  kind: uinput\n")

	t.Setenv("CALCPAD_SKIN", "env-skin.yaml")
	t.Setenv("CALCPAD_GESTURES", "false")
	t.Setenv("CALCPAD_ENGINE", "log")
	t.Setenv("CALCPAD_LOG_LEVEL", "trace")
	t.Setenv("CALCPAD_TOUCHSCREEN", "/dev/input/event9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-skin.yaml", cfg.Skin)
	assert.False(t, cfg.Gestures.Enabled)
	assert.Equal(t, EngineLog, cfg.Engine.Kind)
	assert.Equal(t, "trace", cfg.Log.Level)
	assert.Equal(t, "/dev/input/event9", cfg.Touchscreen.Device)
}

func TestLoad_BadBoolEnvIsIgnored(t *testing.T) {
	t.Setenv("CALCPAD_GESTURES", "sometimes")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.Gestures.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero long press", mutate: func(c *Config) { c.Gestures.LongPress = 0 }, wantErr: "long_press"},
		{name: "zero ratio", mutate: func(c *Config) { c.Gestures.SwipeRatio = 0 }, wantErr: "swipe_ratio"},
		{name: "ratio above one", mutate: func(c *Config) { c.Gestures.SwipeRatio = 1.5 }, wantErr: "swipe_ratio"},
		{name: "ratio of one", mutate: func(c *Config) { c.Gestures.SwipeRatio = 1 }},
		{name: "zero highlight", mutate: func(c *Config) { c.Gestures.ComboHighlight = 0 }, wantErr: "combo_highlight"},
		{name: "unknown engine", mutate: func(c *Config) { c.Engine.Kind = "midi" }, wantErr: `unknown engine kind "midi"`},
		{name: "negative hold", mutate: func(c *Config) { c.Engine.Hold = -time.Millisecond }, wantErr: "engine.hold"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "duplicate binding", mutate: func(c *Config) {
			c.Deck.Bindings = []DeckBinding{{Key: 1, Code: 2}, {Key: 1, Code: 3}}
		}, wantErr: "bound twice"},
		{name: "binding out of range", mutate: func(c *Config) {
			c.Deck.Bindings = []DeckBinding{{Key: 1, Code: 300}}
		}, wantErr: "out of range"},
		{name: "negative deck key", mutate: func(c *Config) {
			c.Deck.Bindings = []DeckBinding{{Key: -1, Code: 3}}
		}, wantErr: "negative key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKeypad(t *testing.T) {
	cfg := Default()
	cfg.Gestures.LongPress = 500 * time.Millisecond
	cfg.Gestures.SwipeRatio = 0.25

	kp := cfg.Keypad()
	assert.Equal(t, 500*time.Millisecond, kp.LongPressDelay)
	assert.Equal(t, 0.25, kp.SwipeThresholdRatio)
	assert.Equal(t, keypad.DefaultConfig().DefaultButtonHeight, kp.DefaultButtonHeight)
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("CALCPAD_CONFIG", "/etc/calcpad.toml")
	assert.Equal(t, "/etc/calcpad.toml", DefaultConfigPath())

	t.Setenv("CALCPAD_CONFIG", "")
	assert.Equal(t, "config.yaml", filepath.Base(DefaultConfigPath()))
}

func TestWriteConfigFile(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Skin = "mine.yaml"
			cfg.Gestures.Enabled = false
			cfg.Deck.Bindings = []DeckBinding{{Key: 2, Code: 13}}
			require.NoError(t, WriteConfigFile(path, cfg))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestLoader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "gestures:\n  enabled: true\n")

	logger, hook := test.NewNullLogger()
	l := NewLoader(path, logger)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Gestures.Enabled)

	changes := make(chan *Config, 4)
	l.OnChange(func(c *Config) { changes <- c })
	require.NoError(t, l.Watch())
	defer l.Close()

	writeFile(t, path, "gestures:\n  enabled: false\n")

	select {
	case c := <-changes:
		assert.False(t, c.Gestures.Enabled)
		assert.False(t, l.Config().Gestures.Enabled)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config change")
	}

	// An invalid edit keeps the previous config.
	writeFile(t, path, "gestures:\n  swipe_ratio: 7\n")
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, l.Config().Gestures.Enabled)
	assert.Equal(t, 0.5, l.Config().Gestures.SwipeRatio)
}

func TestLoader_CloseWithoutWatch(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "config.yaml"), nil)
	assert.NoError(t, l.Close())
}
