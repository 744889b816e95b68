// Package style provides the registry of synthesis style presets. Presets
// live in a single TOML file and carry optional speaker and parameter
// overrides that the adapter merges into UI requests.
package style

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/book-expert/tts-webui/internal/core"
)

// Static errors.
var (
	ErrUnnamedStyle   = errors.New("style preset must have a name")
	ErrDuplicateStyle = errors.New("duplicate style preset")
)

// file is the on-disk TOML shape: a list of [[styles]] tables.
type file struct {
	Styles []core.Style `toml:"styles"`
}

// Registry holds the style presets loaded at startup. It is read-only after
// Load and safe for concurrent use.
type Registry struct {
	styles []core.Style
	byName map[string]core.Style
}

// Load reads the preset file. An empty or missing path yields an empty
// registry; a present but malformed file fails the load.
func Load(path string) (*Registry, error) {
	registry := &Registry{
		styles: nil,
		byName: make(map[string]core.Style),
	}

	if path == "" {
		return registry, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return registry, nil
		}

		return nil, fmt.Errorf("failed to read styles file: %w", err)
	}

	var parsed file

	err = toml.Unmarshal(data, &parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse styles file: %w", err)
	}

	for _, preset := range parsed.Styles {
		addErr := registry.add(preset)
		if addErr != nil {
			return nil, addErr
		}
	}

	sort.Slice(registry.styles, func(i, j int) bool {
		return registry.styles[i].Name < registry.styles[j].Name
	})

	return registry, nil
}

// List returns the presets sorted by name.
func (r *Registry) List() []core.Style {
	out := make([]core.Style, len(r.styles))
	copy(out, r.styles)

	return out
}

// Get looks a preset up by name.
func (r *Registry) Get(name string) (core.Style, bool) {
	preset, ok := r.byName[name]

	return preset, ok
}

func (r *Registry) add(preset core.Style) error {
	name := strings.TrimSpace(preset.Name)
	if name == "" {
		return ErrUnnamedStyle
	}

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateStyle, name)
	}

	preset.Name = name
	r.styles = append(r.styles, preset)
	r.byName[name] = preset

	return nil
}
