// Package synth provides the HTTP client for the external neural synthesis
// service and the engine that drives multi-segment synthesis through it.
// The adapter never runs a model itself; every `Synthesize`, `Refine`, and
// `Enhance` call crosses this boundary.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/book-expert/tts-webui/internal/audio"
	"github.com/book-expert/tts-webui/internal/core"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiRefineText     = "/v1/refine/text"
	apiEnhanceAudio   = "/v1/enhance/audio"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// Default values applied to zero-valued request parameters.
const (
	defaultTemperature = 0.3
	defaultTopP        = 0.7
	defaultTopK        = 20
)

// Static errors.
var (
	ErrTextEmpty             = errors.New("text cannot be empty")
	ErrEmptyAudio            = errors.New("received empty audio data")
	ErrUnexpectedContentType = errors.New("unexpected content type: expected audio/wav")
)

// Request defines the JSON payload for a speech generation call.
type Request struct {
	// Text is the input to synthesize. Must be non-empty.
	Text string `json:"text"`

	// Speaker is the voice reference token (name or embedding handle).
	// Empty selects the service's default voice.
	Speaker string `json:"speaker,omitempty"`

	// Style names a prosody preset known to the service.
	Style string `json:"style,omitempty"`

	// Seed pins the sampling RNG. -1 requests a random seed.
	Seed int64 `json:"seed"`

	// Temperature, TopP, and TopK control sampling randomness.
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`

	// Prompt1, Prompt2, and Prefix are free-form conditioning strings.
	Prompt1 string `json:"prompt1,omitempty"`
	Prompt2 string `json:"prompt2,omitempty"`
	Prefix  string `json:"prefix,omitempty"`
}

// ErrorResponse represents a structured error response from the service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// refineRequest and refineResponse are the refiner endpoint payloads.
type refineRequest struct {
	Text   string `json:"text"`
	Prompt string `json:"prompt,omitempty"`
}

type refineResponse struct {
	Text string `json:"text"`
}

// Client talks to the synthesis service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the service at baseURL (protocol and port
// included, e.g. "http://localhost:8000"). The timeout applies to every
// request the client makes.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateSpeech sends a generation request and returns the WAV bytes.
// Zero-valued sampling parameters are defaulted before marshalling so the
// wire request is always explicit.
func (c *Client) GenerateSpeech(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	if req.Temperature == 0 {
		req.Temperature = defaultTemperature
	}

	if req.TopP == 0 {
		req.TopP = defaultTopP
	}

	if req.TopK == 0 {
		req.TopK = defaultTopK
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	return c.doAudioRequest(httpReq)
}

// Synthesize implements core.Synthesizer: it generates speech for a single
// text run and decodes the service's WAV response into a clip.
func (c *Client) Synthesize(
	ctx context.Context,
	text string,
	params core.GenerateParams,
) (core.Clip, error) {
	wav, err := c.GenerateSpeech(ctx, Request{
		Text:        text,
		Speaker:     params.Speaker,
		Style:       params.Style,
		Seed:        params.Seed,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		TopK:        params.TopK,
		Prompt1:     params.Prompt1,
		Prompt2:     params.Prompt2,
		Prefix:      params.Prefix,
	})
	if err != nil {
		return core.Clip{}, err
	}

	clip, err := audio.DecodeWAV(wav)
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to decode service audio: %w", err)
	}

	return clip, nil
}

// Refine implements core.Refiner by delegating to the refiner endpoint.
func (c *Client) Refine(ctx context.Context, text, prompt string) (string, error) {
	if text == "" {
		return "", ErrTextEmpty
	}

	requestBody, err := json.Marshal(refineRequest{Text: text, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal refine request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiRefineText,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create refine request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send refine request to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var refined refineResponse

	err = json.NewDecoder(resp.Body).Decode(&refined)
	if err != nil {
		return "", fmt.Errorf("failed to decode refine response: %w", err)
	}

	return refined.Text, nil
}

// Enhance implements core.Enhancer. With both flags off it is a local
// no-op; otherwise the clip makes a round trip through the enhancer
// endpoint as WAV.
func (c *Client) Enhance(
	ctx context.Context,
	clip core.Clip,
	denoise, enhance bool,
) (core.Clip, error) {
	if !denoise && !enhance {
		return clip, nil
	}

	query := url.Values{}
	if denoise {
		query.Set("denoise", "1")
	}

	if enhance {
		query.Set("enhance", "1")
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiEnhanceAudio+"?"+query.Encode(),
		bytes.NewReader(audio.EncodeWAV(clip)),
	)
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to create enhance request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeWAV)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	wav, err := c.doAudioRequest(httpReq)
	if err != nil {
		return core.Clip{}, err
	}

	enhanced, err := audio.DecodeWAV(wav)
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to decode enhanced audio: %w", err)
	}

	return enhanced, nil
}

// HealthCheck verifies that the synthesis service is running. It should be
// called at startup to fail fast with clear diagnostics.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody,
	)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// doAudioRequest sends a request that must answer with non-empty audio/wav.
func (c *Client) doAudioRequest(httpReq *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to send request to synthesis service at %s: %w",
			c.baseURL,
			err,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeWAV {
		return nil, fmt.Errorf("%w, got %s", ErrUnexpectedContentType, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service, falling back to the raw response body so diagnostics are never
// lost.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errorResp ErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&errorResp)
	if err == nil {
		return fmt.Errorf("synthesis service error (%s): %s (code: %s)",
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(
		"synthesis service returned non-OK status: %s, body: %s",
		resp.Status,
		string(body),
	)
}
