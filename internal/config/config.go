// Package config provides the configuration structure for tts-webui.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Defaults applied to zero-valued fields after loading.
const (
	DefaultPort              = 7870
	DefaultTextMax           = 1000
	DefaultSSMLMax           = 5000
	DefaultSplitterThreshold = 100
	DefaultBatchSize         = 4
	DefaultTimeoutSeconds    = 300
	DefaultTemperature       = 0.3
	DefaultTopP              = 0.7
	DefaultTopK              = 20
)

// Validation limits.
const (
	maxPort = 65535
)

// Static validation errors.
var (
	ErrServiceURLEmpty = errors.New("synthesis service URL cannot be empty")
	ErrPortRange       = errors.New("webui port must be between 1 and 65535")
	ErrTextMaxRange    = errors.New("text_max must be positive")
	ErrSSMLMaxRange    = errors.New("ssml_max must be positive")
)

// WebUIConfig holds the limits and listen address for the UI-facing API.
type WebUIConfig struct {
	Port              int `toml:"port"`
	TextMax           int `toml:"text_max"`
	SSMLMax           int `toml:"ssml_max"`
	SplitterThreshold int `toml:"splitter_threshold"`
	BatchSize         int `toml:"batch_size"`
}

// SynthesisConfig holds the connection and default parameters for the
// external synthesis service.
type SynthesisConfig struct {
	ServiceURL     string  `toml:"service_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`
	TopP           float64 `toml:"top_p"`
	TopK           int     `toml:"top_k"`
}

// NATSConfig holds the configuration for audio artifact archival. An empty
// URL disables archival entirely.
type NATSConfig struct {
	URL                      string `toml:"url"`
	AudioObjectStoreBucket   string `toml:"audio_object_store_bucket"`
	AudioChunkCreatedSubject string `toml:"audio_chunk_created_subject"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	SpeakersDir string `toml:"speakers_dir"`
	StylesPath  string `toml:"styles_path"`
}

// Config is the root configuration structure.
type Config struct {
	WebUI     WebUIConfig     `toml:"webui"`
	Synthesis SynthesisConfig `toml:"synthesis"`
	NATS      NATSConfig      `toml:"nats"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the configuration for tts-webui, applies defaults for omitted
// values, and validates the result.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.WebUI.Port == 0 {
		c.WebUI.Port = DefaultPort
	}

	if c.WebUI.TextMax == 0 {
		c.WebUI.TextMax = DefaultTextMax
	}

	if c.WebUI.SSMLMax == 0 {
		c.WebUI.SSMLMax = DefaultSSMLMax
	}

	if c.WebUI.SplitterThreshold == 0 {
		c.WebUI.SplitterThreshold = DefaultSplitterThreshold
	}

	if c.WebUI.BatchSize == 0 {
		c.WebUI.BatchSize = DefaultBatchSize
	}

	if c.Synthesis.TimeoutSeconds == 0 {
		c.Synthesis.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if c.Synthesis.Temperature == 0 {
		c.Synthesis.Temperature = DefaultTemperature
	}

	if c.Synthesis.TopP == 0 {
		c.Synthesis.TopP = DefaultTopP
	}

	if c.Synthesis.TopK == 0 {
		c.Synthesis.TopK = DefaultTopK
	}
}

// Validate ensures the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Synthesis.ServiceURL == "" {
		return ErrServiceURLEmpty
	}

	if c.WebUI.Port < 1 || c.WebUI.Port > maxPort {
		return fmt.Errorf("%w: got %d", ErrPortRange, c.WebUI.Port)
	}

	if c.WebUI.TextMax < 1 {
		return fmt.Errorf("%w: got %d", ErrTextMaxRange, c.WebUI.TextMax)
	}

	if c.WebUI.SSMLMax < 1 {
		return fmt.Errorf("%w: got %d", ErrSSMLMaxRange, c.WebUI.SSMLMax)
	}

	return nil
}
