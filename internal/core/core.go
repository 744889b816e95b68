// Package core defines the domain types and collaborator interfaces for the
// web-UI adapter. Synthesis, refinement, and enhancement are performed by
// external services; the interfaces here are the narrow calls the adapter
// makes against them.
package core

import (
	"context"
	"time"
)

// Speaker is a named voice profile with embedding and style metadata.
// Profiles are loaded from JSON files managed alongside the service.
type Speaker struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Describe  string `json:"describe"`
	Embedding string `json:"embedding,omitempty"`
}

// Ref returns the token the synthesis service resolves the speaker by.
// The embedding reference wins over the display name when present.
func (s Speaker) Ref() string {
	if s.Embedding != "" {
		return s.Embedding
	}

	return s.Name
}

// Style is a named preset of synthesis parameters. Zero-valued fields leave
// the request untouched when the preset is applied.
type Style struct {
	Name        string  `toml:"name"        json:"name"`
	Speaker     string  `toml:"speaker"     json:"speaker,omitempty"`
	Seed        int64   `toml:"seed"        json:"seed,omitempty"`
	Temperature float64 `toml:"temperature" json:"temperature,omitempty"`
	Prefix      string  `toml:"prefix"      json:"prefix,omitempty"`
	Prompt1     string  `toml:"prompt1"     json:"prompt1,omitempty"`
	Prompt2     string  `toml:"prompt2"     json:"prompt2,omitempty"`
}

// Node is one entry of a parsed SSML document: either a Segment or a Break.
type Node interface {
	node()
}

// Segment is a run of spoken text with optional per-segment overrides.
type Segment struct {
	Text    string
	Speaker string
	Style   string
}

// Break is a pause marker between segments.
type Break struct {
	Duration time.Duration
}

func (Segment) node() {}
func (Break) node()   {}

// Clip is an in-memory audio buffer with its sample rate. Samples are
// 16-bit PCM, mono.
type Clip struct {
	SampleRate int
	Samples    []int16
}

// Duration reports the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}

	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// GenerateParams carries the numeric and textual synthesis parameters for a
// single request after defaulting and clamping.
type GenerateParams struct {
	Speaker           string
	Style             string
	Temperature       float64
	TopP              float64
	TopK              int
	Seed              int64
	Prompt1           string
	Prompt2           string
	Prefix            string
	BatchSize         int
	SplitterThreshold int
	EndOfSentence     string
}

// Synthesizer converts a single run of text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, params GenerateParams) (Clip, error)
}

// Refiner rewrites text for better prosody before synthesis.
type Refiner interface {
	Refine(ctx context.Context, text, prompt string) (string, error)
}

// Enhancer post-processes audio (denoising, quality enhancement).
type Enhancer interface {
	Enhance(ctx context.Context, clip Clip, denoise, enhance bool) (Clip, error)
}

// SpeakerRegistry exposes the available voice profiles.
type SpeakerRegistry interface {
	List() []Speaker
	Get(name string) (Speaker, bool)
}

// StyleRegistry exposes the available style presets.
type StyleRegistry interface {
	List() []Style
	Get(name string) (Style, bool)
}

// ArtifactStore defines the interface for interacting with a key-value blob
// store holding generated audio.
type ArtifactStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}
