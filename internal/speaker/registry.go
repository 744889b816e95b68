// Package speaker provides the registry of voice profiles available to the
// web UI. Profiles are JSON files in a configured directory; the UI can also
// upload a profile file directly for one-off use.
package speaker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/book-expert/tts-webui/internal/core"
)

// Profile file extension.
const profileExt = ".json"

// Static errors.
var (
	ErrEmptyProfile  = errors.New("speaker profile is empty")
	ErrNameMissing   = errors.New("speaker profile must have a name")
	ErrNotFound      = errors.New("speaker not found")
	ErrDirUnreadable = errors.New("cannot read speakers directory")
)

// Registry holds the voice profiles loaded at startup. It is read-only
// after Load and safe for concurrent use.
type Registry struct {
	speakers []core.Speaker
	byName   map[string]core.Speaker
}

// Load reads every profile file in dir. A missing directory yields an empty
// registry rather than an error so the service can run without any
// registered voices. Malformed profile files fail the load.
func Load(dir string) (*Registry, error) {
	registry := &Registry{
		speakers: nil,
		byName:   make(map[string]core.Speaker),
	}

	if dir == "" {
		return registry, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return registry, nil
		}

		return nil, fmt.Errorf("%w: %w", ErrDirUnreadable, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != profileExt {
			continue
		}

		spk, loadErr := FromFile(filepath.Join(dir, entry.Name()))
		if loadErr != nil {
			return nil, fmt.Errorf("failed to load profile %q: %w", entry.Name(), loadErr)
		}

		registry.add(spk)
	}

	registry.sortByName()

	return registry, nil
}

// FromFile loads a single speaker profile from disk.
func FromFile(path string) (core.Speaker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Speaker{}, fmt.Errorf("failed to read speaker profile: %w", err)
	}

	return FromBytes(data)
}

// FromBytes parses a speaker profile, for example one uploaded through the
// UI's speaker-file widget.
func FromBytes(data []byte) (core.Speaker, error) {
	if len(data) == 0 {
		return core.Speaker{}, ErrEmptyProfile
	}

	var spk core.Speaker

	err := json.Unmarshal(data, &spk)
	if err != nil {
		return core.Speaker{}, fmt.Errorf("failed to parse speaker profile: %w", err)
	}

	if strings.TrimSpace(spk.Name) == "" {
		return core.Speaker{}, ErrNameMissing
	}

	return spk, nil
}

// List returns the registered speakers sorted by name.
func (r *Registry) List() []core.Speaker {
	out := make([]core.Speaker, len(r.speakers))
	copy(out, r.speakers)

	return out
}

// Get looks a speaker up by name or ID.
func (r *Registry) Get(name string) (core.Speaker, bool) {
	spk, ok := r.byName[name]

	return spk, ok
}

func (r *Registry) add(spk core.Speaker) {
	r.speakers = append(r.speakers, spk)
	r.byName[spk.Name] = spk

	if spk.ID != "" {
		r.byName[spk.ID] = spk
	}
}

func (r *Registry) sortByName() {
	sort.Slice(r.speakers, func(i, j int) bool {
		return r.speakers[i].Name < r.speakers[j].Name
	})
}
