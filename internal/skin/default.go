package skin

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultLayout []byte

// Default returns the built-in layout, used when no skin file is configured.
func Default() (*Skin, error) {
	var l Layout
	if err := yaml.Unmarshal(defaultLayout, &l); err != nil {
		return nil, fmt.Errorf("parsing built-in skin: %w", err)
	}
	return New(l, nil)
}

// LoadOrDefault loads the skin at path, or the built-in one when path is empty.
func LoadOrDefault(path string) (*Skin, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}
