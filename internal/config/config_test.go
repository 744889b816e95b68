// Package config_test tests the configuration loading for tts-webui.
package config_test

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/tts-webui/internal/config"
)

func TestUnmarshalConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[webui]
port = 7870
text_max = 1000
ssml_max = 5000
splitter_threshold = 100
batch_size = 4

[synthesis]
service_url = "http://localhost:8000"
timeout_seconds = 300
temperature = 0.3
top_p = 0.7
top_k = 20

[nats]
url = "nats://127.0.0.1:4222"
audio_object_store_bucket = "WEBUI_AUDIO"
audio_chunk_created_subject = "audio.chunk.created"

[paths]
base_logs_dir = "/var/log/tts-webui"
speakers_dir = "data/speakers"
styles_path = "data/styles.toml"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, 7870, cfg.WebUI.Port)
	assert.Equal(t, 1000, cfg.WebUI.TextMax)
	assert.Equal(t, 5000, cfg.WebUI.SSMLMax)
	assert.Equal(t, 100, cfg.WebUI.SplitterThreshold)
	assert.Equal(t, 4, cfg.WebUI.BatchSize)
	assert.Equal(t, "http://localhost:8000", cfg.Synthesis.ServiceURL)
	assert.Equal(t, 300, cfg.Synthesis.TimeoutSeconds)
	assert.InEpsilon(t, 0.3, cfg.Synthesis.Temperature, 0.001)
	assert.InEpsilon(t, 0.7, cfg.Synthesis.TopP, 0.001)
	assert.Equal(t, 20, cfg.Synthesis.TopK)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "WEBUI_AUDIO", cfg.NATS.AudioObjectStoreBucket)
	assert.Equal(t, "audio.chunk.created", cfg.NATS.AudioChunkCreatedSubject)
	assert.Equal(t, "/var/log/tts-webui", cfg.Paths.BaseLogsDir)
	assert.Equal(t, "data/speakers", cfg.Paths.SpeakersDir)
	assert.Equal(t, "data/styles.toml", cfg.Paths.StylesPath)
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.Synthesis.ServiceURL = "http://localhost:8000"

	cfg.ApplyDefaults()

	assert.Equal(t, config.DefaultPort, cfg.WebUI.Port)
	assert.Equal(t, config.DefaultTextMax, cfg.WebUI.TextMax)
	assert.Equal(t, config.DefaultSSMLMax, cfg.WebUI.SSMLMax)
	assert.Equal(t, config.DefaultSplitterThreshold, cfg.WebUI.SplitterThreshold)
	assert.Equal(t, config.DefaultBatchSize, cfg.WebUI.BatchSize)
	assert.Equal(t, config.DefaultTimeoutSeconds, cfg.Synthesis.TimeoutSeconds)
	assert.InEpsilon(t, config.DefaultTemperature, cfg.Synthesis.Temperature, 0.001)
	assert.InEpsilon(t, config.DefaultTopP, cfg.Synthesis.TopP, 0.001)
	assert.Equal(t, config.DefaultTopK, cfg.Synthesis.TopK)

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsMissingServiceURL(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrServiceURLEmpty)
}

func TestValidateRejectsBadPort(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.Synthesis.ServiceURL = "http://localhost:8000"
	cfg.ApplyDefaults()
	cfg.WebUI.Port = 70000

	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrPortRange)
}
