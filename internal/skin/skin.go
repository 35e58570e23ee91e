// Package skin describes the on-screen layout of a calculator keypad: where the
// buttons are, which key codes they produce, and how to draw them.
package skin

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/phinze/calcpad/internal/keypad"
)

// ErrNoButtons is returned when a layout defines no buttons.
var ErrNoButtons = errors.New("skin has no buttons")

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Contains reports whether (x, y) lies inside r. The right and bottom edges
// are exclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X) && x < float64(r.X+r.W) &&
		y >= float64(r.Y) && y < float64(r.Y+r.H)
}

func (r Rect) empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Button is one key on the keypad.
type Button struct {
	Code  keypad.KeyCode `yaml:"code"`
	Label string         `yaml:"label"`
	Rect  Rect           `yaml:"rect"`

	// Scancode is the host key emitted for this button by the uinput engine.
	// Zero means the button has no host key.
	Scancode int `yaml:"scancode,omitempty"`
}

// Layout is the file representation of a skin.
type Layout struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`

	// Background is an optional SVG file, relative to the layout file.
	Background string `yaml:"background,omitempty"`

	Screen    Rect `yaml:"screen"`
	Landscape bool `yaml:"landscape,omitempty"`

	// Special keys. Omitted means the device has no such key.
	Second *int `yaml:"second,omitempty"`
	Alpha  *int `yaml:"alpha,omitempty"`
	On     *int `yaml:"on,omitempty"`

	Buttons []Button `yaml:"buttons"`
}

// Skin is a loaded, validated layout. It implements keypad.Skin, and
// keypad.ScreenSwapper for landscape layouts.
type Skin struct {
	layout Layout
	// background is the rasterized SVG, nil when the layout has none.
	background *image.RGBA
	index      map[keypad.KeyCode]int

	second, alpha, on keypad.KeyCode

	mu         sync.Mutex
	fullScreen bool
}

// Load reads a YAML layout file and the SVG background it references.
func Load(path string) (*Skin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading skin: %w", err)
	}
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var svg []byte
	if l.Background != "" {
		bg := l.Background
		if !filepath.IsAbs(bg) {
			bg = filepath.Join(filepath.Dir(path), bg)
		}
		svg, err = os.ReadFile(bg)
		if err != nil {
			return nil, fmt.Errorf("reading skin background: %w", err)
		}
	}
	return New(l, svg)
}

// New validates l and builds a Skin from it. svg may be nil; otherwise it is
// rasterized once to the canvas size.
func New(l Layout, svg []byte) (*Skin, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	var bg *image.RGBA
	if len(svg) > 0 {
		var err error
		if bg, err = renderSVG(svg, l.Width, l.Height); err != nil {
			return nil, fmt.Errorf("rendering skin background: %w", err)
		}
	}
	s := &Skin{
		layout:     l,
		background: bg,
		index:      make(map[keypad.KeyCode]int, len(l.Buttons)),
		second:     special(l.Second),
		alpha:      special(l.Alpha),
		on:         special(l.On),
	}
	for i, b := range l.Buttons {
		s.index[b.Code] = i
	}
	return s, nil
}

// Validate checks that the layout is usable.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", l.Width, l.Height)
	}
	if len(l.Buttons) == 0 {
		return ErrNoButtons
	}
	seen := make(map[keypad.KeyCode]string, len(l.Buttons))
	for _, b := range l.Buttons {
		if !b.Code.Valid() {
			return fmt.Errorf("button %q: key code %d out of range", b.Label, b.Code)
		}
		if prev, dup := seen[b.Code]; dup {
			return fmt.Errorf("button %q: key code %d already used by %q", b.Label, b.Code, prev)
		}
		seen[b.Code] = b.Label
		if b.Rect.empty() {
			return fmt.Errorf("button %q: empty rect", b.Label)
		}
	}
	for name, p := range map[string]*int{"second": l.Second, "alpha": l.Alpha, "on": l.On} {
		if p == nil || *p == int(keypad.NoKey) {
			continue
		}
		if _, ok := seen[keypad.KeyCode(*p)]; !ok {
			return fmt.Errorf("%s key %d has no button", name, *p)
		}
	}
	return nil
}

func special(p *int) keypad.KeyCode {
	if p == nil {
		return keypad.NoKey
	}
	return keypad.KeyCode(*p)
}

// Name returns the layout name.
func (s *Skin) Name() string { return s.layout.Name }

// Size returns the canvas size in pixels.
func (s *Skin) Size() (width, height int) {
	return s.layout.Width, s.layout.Height
}

// Buttons returns the buttons in layout order.
func (s *Skin) Buttons() []Button {
	out := make([]Button, len(s.layout.Buttons))
	copy(out, s.layout.Buttons)
	return out
}

// KeyAt returns the key whose button contains (x, y). While a landscape skin
// shows its screen full size no key is hit.
func (s *Skin) KeyAt(x, y float64) (keypad.KeyCode, bool) {
	if s.FullScreen() {
		return keypad.NoKey, false
	}
	for _, b := range s.layout.Buttons {
		if b.Rect.Contains(x, y) {
			return b.Code, true
		}
	}
	return keypad.NoKey, false
}

// ButtonRegion returns the geometry of the button for code.
func (s *Skin) ButtonRegion(code keypad.KeyCode) (keypad.Region, bool) {
	i, ok := s.index[code]
	if !ok {
		return keypad.Region{}, false
	}
	r := s.layout.Buttons[i].Rect
	return keypad.Region{
		CenterX: float64(r.X) + float64(r.W)/2,
		CenterY: float64(r.Y) + float64(r.H)/2,
		Width:   float64(r.W),
		Height:  float64(r.H),
	}, true
}

func (s *Skin) SecondKey() keypad.KeyCode { return s.second }
func (s *Skin) AlphaKey() keypad.KeyCode  { return s.alpha }
func (s *Skin) OnKey() keypad.KeyCode     { return s.on }

// HasGestures reports whether swipe combos map to real keys on this skin.
func (s *Skin) HasGestures() bool {
	return s.second.Valid()
}

// SwapScreenAt toggles full-screen mode on landscape skins. A contact on the
// screen enters it, any contact while full-screen leaves it. Portrait skins
// never consume contacts.
func (s *Skin) SwapScreenAt(x, y float64) bool {
	if !s.layout.Landscape {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fullScreen || s.layout.Screen.Contains(x, y) {
		s.fullScreen = !s.fullScreen
		return true
	}
	return false
}

// FullScreen reports whether the screen currently covers the keypad.
func (s *Skin) FullScreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullScreen
}

// Scancodes maps each button with a host key to that key.
func (s *Skin) Scancodes() map[keypad.KeyCode]int {
	out := make(map[keypad.KeyCode]int)
	for _, b := range s.layout.Buttons {
		if b.Scancode != 0 {
			out[b.Code] = b.Scancode
		}
	}
	return out
}
