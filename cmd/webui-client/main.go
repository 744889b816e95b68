// Command webui-client is a small CLI for exercising a running tts-webui
// instance: health checks, speaker listing, and one-shot generation to a
// WAV file.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Flag names.
const (
	flagURL     = "url"
	flagText    = "text"
	flagOutput  = "output"
	flagSpeaker = "speaker"
	flagStyle   = "style"
	flagSeed    = "seed"
	flagHealth  = "health"
	flagList    = "speakers"
)

// Flag descriptions.
const (
	flagURLDesc     = "Base URL of the tts-webui service"
	flagTextDesc    = "Text to convert to speech"
	flagOutputDesc  = "Output file path (.wav)"
	flagSpeakerDesc = "Speaker name"
	flagStyleDesc   = "Style preset name"
	flagSeedDesc    = "Sampling seed (-1 for random)"
	flagHealthDesc  = "Check service health and exit"
	flagListDesc    = "List speaker display names and exit"
)

const requestTimeout = 300 * time.Second

// Static errors.
var (
	ErrTextRequired = errors.New("--text must be provided")
	ErrEmptyResult  = errors.New("service produced no audio for the input")
)

type options struct {
	baseURL string
	text    string
	output  string
	speaker string
	style   string
	seed    int64
	health  bool
	list    bool
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.baseURL, flagURL, "http://localhost:7870", flagURLDesc)
	flag.StringVar(&opts.text, flagText, "", flagTextDesc)
	flag.StringVar(&opts.output, flagOutput, "output.wav", flagOutputDesc)
	flag.StringVar(&opts.speaker, flagSpeaker, "", flagSpeakerDesc)
	flag.StringVar(&opts.style, flagStyle, "", flagStyleDesc)
	flag.Int64Var(&opts.seed, flagSeed, -1, flagSeedDesc)
	flag.BoolVar(&opts.health, flagHealth, false, flagHealthDesc)
	flag.BoolVar(&opts.list, flagList, false, flagListDesc)
	flag.Parse()

	return opts
}

func main() {
	opts := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	err := run(ctx, opts)
	if err != nil {
		log.Fatalf("webui-client: %v", err)
	}
}

func run(ctx context.Context, opts options) error {
	client := &http.Client{Timeout: requestTimeout}

	switch {
	case opts.health:
		return checkHealth(ctx, client, opts.baseURL)
	case opts.list:
		return listSpeakers(ctx, client, opts.baseURL)
	default:
		if opts.text == "" {
			return ErrTextRequired
		}

		return generate(ctx, client, opts)
	}
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service is not healthy: %s", resp.Status)
	}

	fmt.Println("service is healthy")

	return nil
}

func listSpeakers(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, baseURL+"/api/v1/speakers/names", http.NoBody,
	)
	if err != nil {
		return fmt.Errorf("failed to create speakers request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to list speakers: %w", err)
	}
	defer resp.Body.Close()

	var names []string

	err = json.NewDecoder(resp.Body).Decode(&names)
	if err != nil {
		return fmt.Errorf("failed to decode speaker names: %w", err)
	}

	for _, name := range names {
		fmt.Println(name)
	}

	return nil
}

func generate(ctx context.Context, client *http.Client, opts options) error {
	payload := map[string]any{
		"text":    opts.text,
		"speaker": opts.speaker,
		"style":   opts.style,
		"seed":    opts.seed,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, opts.baseURL+"/api/v1/tts", bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to create tts request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return ErrEmptyResult
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("tts request returned %s: %s", resp.Status, string(detail))
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	err = os.WriteFile(opts.output, wav, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}

	fmt.Printf("Generated: %s (%d bytes, sample rate %s)\n",
		opts.output, len(wav), resp.Header.Get("X-Sample-Rate"))

	return nil
}
