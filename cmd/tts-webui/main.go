// main package for tts-webui, the browser-facing adapter for the synthesis
// pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/tts-webui/internal/archive"
	"github.com/book-expert/tts-webui/internal/audio"
	"github.com/book-expert/tts-webui/internal/config"
	"github.com/book-expert/tts-webui/internal/server"
	"github.com/book-expert/tts-webui/internal/speaker"
	"github.com/book-expert/tts-webui/internal/style"
	"github.com/book-expert/tts-webui/internal/synth"
	"github.com/book-expert/tts-webui/internal/webui"
)

const healthCheckTimeout = 10 * time.Second

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "tts-webui.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// A temporary logger covers the bootstrap until the configured log
	// directory is known.
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, finalLog)
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	speakers, err := speaker.Load(cfg.Paths.SpeakersDir)
	if err != nil {
		return fmt.Errorf("failed to load speaker registry: %w", err)
	}

	styles, err := style.Load(cfg.Paths.StylesPath)
	if err != nil {
		return fmt.Errorf("failed to load style registry: %w", err)
	}

	client := synth.NewClient(
		cfg.Synthesis.ServiceURL,
		time.Duration(cfg.Synthesis.TimeoutSeconds)*time.Second,
	)

	healthCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	err = client.HealthCheck(healthCtx)
	if err != nil {
		return fmt.Errorf("synthesis service health check failed: %w", err)
	}

	archiver, err := setupArchiver(cfg, log)
	if err != nil {
		return err
	}

	adapter := webui.New(
		speakers,
		styles,
		synth.NewEngine(client, log),
		client,
		client,
		archiver,
		webui.Limits{
			TextMax: cfg.WebUI.TextMax,
			SSMLMax: cfg.WebUI.SSMLMax,
		},
		webui.Defaults{
			Temperature:       cfg.Synthesis.Temperature,
			TopP:              cfg.Synthesis.TopP,
			TopK:              cfg.Synthesis.TopK,
			BatchSize:         cfg.WebUI.BatchSize,
			SplitterThreshold: cfg.WebUI.SplitterThreshold,
		},
		log,
		audio.EncodeWAV,
	)

	log.System(
		"tts-webui initialized: %d speakers, %d styles, synthesis at %s",
		len(speakers.List()), len(styles.List()), cfg.Synthesis.ServiceURL,
	)

	return server.New(adapter, cfg.WebUI.Port, log).Run(ctx)
}

// setupArchiver connects the optional NATS archival path. An empty NATS URL
// leaves archival disabled.
func setupArchiver(cfg *config.Config, log *logger.Logger) (webui.Archiver, error) {
	if cfg.NATS.URL == "" {
		return nil, nil
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := archive.NewStore(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return nil, err
	}

	return archive.NewArchiver(
		natsConnection, store, cfg.NATS.AudioChunkCreatedSubject, log,
	), nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
