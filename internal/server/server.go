// Package server exposes the web-UI adapter over HTTP for the browser
// widget. Synthesis endpoints answer with audio/wav and an X-Sample-Rate
// header; everything else is JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/tts-webui/internal/audio"
	"github.com/book-expert/tts-webui/internal/core"
	"github.com/book-expert/tts-webui/internal/webui"
)

// Timeouts for the HTTP server.
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// maxUploadBytes caps speaker profile uploads.
const maxUploadBytes = 1 << 20

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerSampleRate  = "X-Sample-Rate"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// ttsRequest is the JSON body of POST /api/v1/tts. SpeakerFile is the
// uploaded profile, base64-encoded by encoding/json's []byte handling.
type ttsRequest struct {
	Text             string  `json:"text"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	TopK             float64 `json:"top_k"`
	Speaker          string  `json:"speaker"`
	Seed             *int64  `json:"seed"`
	Prompt1          string  `json:"prompt1"`
	Prompt2          string  `json:"prompt2"`
	Prefix           string  `json:"prefix"`
	Style            string  `json:"style"`
	DisableNormalize bool    `json:"disable_normalize"`
	BatchSize        any     `json:"batch_size"`
	EnableEnhance    bool    `json:"enable_enhance"`
	EnableDenoise    bool    `json:"enable_denoise"`
	SpeakerFile      []byte  `json:"speaker_file,omitempty"`
	SplitThreshold   int     `json:"split_threshold"`
	EndOfSentence    string  `json:"eos"`
}

// ssmlRequest is the JSON body of POST /api/v1/ssml.
type ssmlRequest struct {
	SSML           string `json:"ssml"`
	BatchSize      any    `json:"batch_size"`
	EnableEnhance  bool   `json:"enable_enhance"`
	EnableDenoise  bool   `json:"enable_denoise"`
	SplitThreshold int    `json:"split_threshold"`
	EndOfSentence  string `json:"eos"`
}

// refineRequest is the JSON body of POST /api/v1/refine.
type refineRequest struct {
	Text   string `json:"text"`
	Prompt string `json:"prompt"`
}

type refineResponse struct {
	Text string `json:"text"`
}

// splitRequest is the JSON body of POST /api/v1/split.
type splitRequest struct {
	Text      string `json:"text"`
	Threshold int    `json:"threshold"`
}

type speakerInfoResponse struct {
	Info string `json:"info"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server serves the widget-facing API.
type Server struct {
	adapter *webui.Adapter
	log     *logger.Logger
	port    int
	server  *http.Server
}

// New creates a server for the given adapter.
func New(adapter *webui.Adapter, port int, log *logger.Logger) *Server {
	return &Server{
		adapter: adapter,
		log:     log,
		port:    port,
		server:  nil,
	}
}

// Routes builds the request mux. Exposed separately so tests can drive the
// handlers without a listener.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/speakers", s.handleSpeakers)
	mux.HandleFunc("GET /api/v1/speakers/names", s.handleSpeakerNames)
	mux.HandleFunc("GET /api/v1/styles", s.handleStyles)
	mux.HandleFunc("POST /api/v1/speaker/info", s.handleSpeakerInfo)
	mux.HandleFunc("POST /api/v1/tts", s.handleTTS)
	mux.HandleFunc("POST /api/v1/ssml", s.handleSSML)
	mux.HandleFunc("POST /api/v1/refine", s.handleRefine)
	mux.HandleFunc("POST /api/v1/split", s.handleSplit)

	return mux
}

// Run starts the server and blocks until the context is canceled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.log.System("Web UI API listening on port %d", s.port)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr := s.server.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			s.log.Warn("HTTP server shutdown: %v", shutdownErr)
		}
	}()

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen failed: %w", err)
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSpeakers(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.adapter.Speakers())
}

func (s *Server) handleSpeakerNames(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.adapter.SpeakerNames())
}

func (s *Server) handleStyles(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.adapter.Styles())
}

// handleSpeakerInfo accepts the raw profile file as the request body. The
// response is always 200: load failures are part of the widget contract.
func (s *Server) handleSpeakerInfo(w http.ResponseWriter, r *http.Request) {
	profile, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	s.writeJSON(w, http.StatusOK, speakerInfoResponse{Info: s.adapter.SpeakerInfo(profile)})
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	seed := int64(-1)
	if req.Seed != nil {
		seed = *req.Seed
	}

	clip, err := s.adapter.Generate(r.Context(), webui.GenerateRequest{
		Text:             req.Text,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		TopK:             req.TopK,
		Speaker:          req.Speaker,
		Seed:             seed,
		Prompt1:          req.Prompt1,
		Prompt2:          req.Prompt2,
		Prefix:           req.Prefix,
		Style:            req.Style,
		DisableNormalize: req.DisableNormalize,
		BatchSize:        req.BatchSize,
		EnableEnhance:    req.EnableEnhance,
		EnableDenoise:    req.EnableDenoise,
		SpeakerFile:      req.SpeakerFile,
		SplitThreshold:   req.SplitThreshold,
		EndOfSentence:    req.EndOfSentence,
	})
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)

		return
	}

	s.writeClip(w, clip)
}

func (s *Server) handleSSML(w http.ResponseWriter, r *http.Request) {
	var req ssmlRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	clip, err := s.adapter.SynthesizeSSML(r.Context(), webui.SSMLRequest{
		SSML:           req.SSML,
		BatchSize:      req.BatchSize,
		EnableEnhance:  req.EnableEnhance,
		EnableDenoise:  req.EnableDenoise,
		SplitThreshold: req.SplitThreshold,
		EndOfSentence:  req.EndOfSentence,
	})
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)

		return
	}

	s.writeClip(w, clip)
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	refined, err := s.adapter.RefineText(r.Context(), req.Text, req.Prompt)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)

		return
	}

	s.writeJSON(w, http.StatusOK, refineResponse{Text: refined})
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)

		return
	}

	s.writeJSON(w, http.StatusOK, s.adapter.SplitLongText(req.Text, req.Threshold))
}

// writeClip responds with the clip as audio/wav, or 204 when the adapter
// produced an empty result.
func (s *Server) writeClip(w http.ResponseWriter, clip *core.Clip) {
	if clip == nil {
		w.WriteHeader(http.StatusNoContent)

		return
	}

	w.Header().Set(headerContentType, contentTypeWAV)
	w.Header().Set(headerSampleRate, fmt.Sprintf("%d", clip.SampleRate))
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(audio.EncodeWAV(*clip))
	if err != nil {
		s.log.Warn("Failed to write audio response: %v", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		s.log.Warn("Failed to write JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.Error("Request failed: %v", err)
	s.writeJSON(w, status, errorResponse{Detail: err.Error()})
}
