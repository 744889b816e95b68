// Package webui adapts browser widget requests to the synthesis pipeline.
// It owns the permissive validation the UI boundary needs: defaulting
// malformed numbers, truncating oversized text, clamping seeds, and turning
// collaborator failures into results the widget can display.
package webui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/book-expert/logger"

	"github.com/book-expert/tts-webui/internal/core"
	"github.com/book-expert/tts-webui/internal/speaker"
	"github.com/book-expert/tts-webui/internal/ssml"
	"github.com/book-expert/tts-webui/internal/text"
)

// Fallbacks returned by SpeakerInfo instead of errors.
const (
	speakerInfoEmpty      = "empty"
	speakerInfoLoadFailed = "load failed"
)

// autoStyle is the widget's sentinel for "pick for me"; it means no style.
const autoStyle = "*auto"

// Seed range accepted by the synthesis service. -1 requests a random seed.
const (
	seedRandom int64 = -1
	seedMax    int64 = 1<<32 - 1
)

// ssmlMalformedBatchSize is the fallback when the SSML path receives a batch
// size it cannot parse.
const ssmlMalformedBatchSize = 8

// DefaultEndOfSentence is the token appended to each segment to keep the
// acoustic model from trailing off mid-breath.
const DefaultEndOfSentence = "[uv_break]"

// Engine drives multi-segment synthesis. Implemented by synth.Engine.
type Engine interface {
	SynthesizeText(ctx context.Context, input string, params core.GenerateParams) (core.Clip, error)
	SynthesizeNodes(ctx context.Context, nodes []core.Node, params core.GenerateParams) (core.Clip, error)
}

// Archiver persists generated clips. Implemented by archive.Archiver; nil
// disables archival.
type Archiver interface {
	Archive(ctx context.Context, wav []byte) (string, error)
}

// Limits caps the text the adapter will forward to the pipeline.
type Limits struct {
	// TextMax is the rune budget for plain-text generation input.
	TextMax int

	// SSMLMax caps the cumulative text length of an SSML segment sequence.
	SSMLMax int
}

// Defaults fills request parameters the widget left at zero.
type Defaults struct {
	Temperature       float64
	TopP              float64
	TopK              int
	BatchSize         int
	SplitterThreshold int
}

// GenerateRequest is the plain-text synthesis request as the widget sends
// it. BatchSize is deliberately untyped: the widget delivers it as whatever
// its number field produced and malformed values fall back to a default.
type GenerateRequest struct {
	Text             string
	Temperature      float64
	TopP             float64
	TopK             float64
	Speaker          string
	Seed             int64
	Prompt1          string
	Prompt2          string
	Prefix           string
	Style            string
	DisableNormalize bool
	BatchSize        any
	EnableEnhance    bool
	EnableDenoise    bool
	SpeakerFile      []byte
	SplitThreshold   int
	EndOfSentence    string
}

// SSMLRequest is the markup synthesis request.
type SSMLRequest struct {
	SSML           string
	BatchSize      any
	EnableEnhance  bool
	EnableDenoise  bool
	SplitThreshold int
	EndOfSentence  string
}

// SplitRow is one row of the sentence table widget.
type SplitRow struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Length int    `json:"length"`
}

// Adapter wires the widget-facing operations to the collaborators.
type Adapter struct {
	speakers   core.SpeakerRegistry
	styles     core.StyleRegistry
	engine     Engine
	refiner    core.Refiner
	enhancer   core.Enhancer
	archiver   Archiver
	normalizer *text.Normalizer
	limits     Limits
	defaults   Defaults
	log        *logger.Logger
	encodeWAV  func(core.Clip) []byte
}

// New creates an adapter. The archiver may be nil.
func New(
	speakers core.SpeakerRegistry,
	styles core.StyleRegistry,
	engine Engine,
	refiner core.Refiner,
	enhancer core.Enhancer,
	archiver Archiver,
	limits Limits,
	defaults Defaults,
	log *logger.Logger,
	encodeWAV func(core.Clip) []byte,
) *Adapter {
	return &Adapter{
		speakers:   speakers,
		styles:     styles,
		engine:     engine,
		refiner:    refiner,
		enhancer:   enhancer,
		archiver:   archiver,
		normalizer: text.NewNormalizer(),
		limits:     limits,
		defaults:   defaults,
		log:        log,
		encodeWAV:  encodeWAV,
	}
}

// Speakers lists the registered voice profiles.
func (a *Adapter) Speakers() []core.Speaker {
	return a.speakers.List()
}

// SpeakerNames returns the display names for the speaker dropdown. Gendered
// profiles render as "<gender> : <name>"; names starting with "*" sort
// before everything else.
func (a *Adapter) SpeakerNames() []string {
	speakers := a.speakers.List()
	names := make([]string, 0, len(speakers))

	for _, spk := range speakers {
		names = append(names, displayName(spk))
	}

	sort.SliceStable(names, func(i, j int) bool {
		return nameSortKey(names[i]) < nameSortKey(names[j])
	})

	return names
}

// Styles lists the registered style presets.
func (a *Adapter) Styles() []core.Style {
	return a.styles.List()
}

// SpeakerInfo renders an uploaded speaker profile as a human-readable
// summary. It never fails: empty input and unreadable profiles return
// fallback strings the widget displays verbatim.
func (a *Adapter) SpeakerInfo(profile []byte) string {
	if len(profile) == 0 {
		return speakerInfoEmpty
	}

	spk, err := speaker.FromBytes(profile)
	if err != nil {
		a.log.Warn("Failed to load speaker profile: %v", err)

		return speakerInfoLoadFailed
	}

	return fmt.Sprintf(
		"- name: %s\n- gender: %s\n- describe: %s",
		spk.Name, spk.Gender, spk.Describe,
	)
}

// LimitSegments caps the cumulative text length of a segment sequence.
// Breaks pass through for free; the first segment that pushes the running
// total past totalMax ends the scan, dropping it and everything after it.
func LimitSegments(nodes []core.Node, totalMax int) []core.Node {
	var kept []core.Node

	total := 0

	for _, node := range nodes {
		segment, ok := node.(core.Segment)
		if !ok {
			kept = append(kept, node)

			continue
		}

		total += len([]rune(segment.Text))
		if total > totalMax {
			break
		}

		kept = append(kept, node)
	}

	return kept
}

// Generate synthesizes plain text. Input that is empty, truncates to empty,
// or normalizes to empty returns a nil clip and no error so the widget can
// clear its player.
func (a *Adapter) Generate(ctx context.Context, req GenerateRequest) (*core.Clip, error) {
	input := truncateRunes(strings.TrimSpace(req.Text), a.limits.TextMax)
	if input == "" {
		return nil, nil
	}

	style := req.Style
	if style == autoStyle {
		style = ""
	}

	params := core.GenerateParams{
		Speaker:           req.Speaker,
		Style:             style,
		Temperature:       req.Temperature,
		TopP:              req.TopP,
		TopK:              int(req.TopK),
		Seed:              req.Seed,
		Prompt1:           req.Prompt1,
		Prompt2:           req.Prompt2,
		Prefix:            req.Prefix,
		BatchSize:         ParseBatchSize(req.BatchSize, a.defaults.BatchSize, a.defaults.BatchSize),
		SplitterThreshold: req.SplitThreshold,
		EndOfSentence:     req.EndOfSentence,
	}

	a.applyStylePreset(&params)
	a.applyDefaults(&params)

	params.Seed = ClampSeed(params.Seed)

	if !req.DisableNormalize {
		input = a.normalizer.Normalize(input)
		if input == "" {
			return nil, nil
		}
	}

	err := a.resolveSpeaker(&params, req.SpeakerFile)
	if err != nil {
		return nil, err
	}

	clip, err := a.engine.SynthesizeText(ctx, input, params)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize text: %w", err)
	}

	return a.finishClip(ctx, clip, req.EnableDenoise, req.EnableEnhance)
}

// SynthesizeSSML synthesizes an SSML document. Empty input and documents
// whose segments are all dropped by the length cap return a nil clip.
func (a *Adapter) SynthesizeSSML(ctx context.Context, req SSMLRequest) (*core.Clip, error) {
	document := strings.TrimSpace(req.SSML)
	if document == "" {
		return nil, nil
	}

	nodes, err := ssml.Parse(document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssml: %w", err)
	}

	nodes = LimitSegments(nodes, a.limits.SSMLMax)
	if countSegments(nodes) == 0 {
		return nil, nil
	}

	params := core.GenerateParams{
		Speaker:           "",
		Style:             "",
		Temperature:       0,
		TopP:              0,
		TopK:              0,
		Seed:              seedRandom,
		Prompt1:           "",
		Prompt2:           "",
		Prefix:            "",
		BatchSize:         ParseBatchSize(req.BatchSize, a.defaults.BatchSize, ssmlMalformedBatchSize),
		SplitterThreshold: req.SplitThreshold,
		EndOfSentence:     req.EndOfSentence,
	}

	a.applyDefaults(&params)

	clip, err := a.engine.SynthesizeNodes(ctx, nodes, params)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize ssml segments: %w", err)
	}

	return a.finishClip(ctx, clip, req.EnableDenoise, req.EnableEnhance)
}

// RefineText normalizes the input and delegates to the refiner service.
func (a *Adapter) RefineText(ctx context.Context, input, prompt string) (string, error) {
	normalized := a.normalizer.Normalize(input)

	refined, err := a.refiner.Refine(ctx, normalized, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to refine text: %w", err)
	}

	return refined, nil
}

// SplitLongText splits text at sentence boundaries with the configured
// threshold, normalizes each chunk, and returns rows for the table widget.
func (a *Adapter) SplitLongText(input string, threshold int) []SplitRow {
	if threshold <= 0 {
		threshold = a.defaults.SplitterThreshold
	}

	splitter := text.NewSplitter(threshold)
	chunks := splitter.Split(input)

	rows := make([]SplitRow, 0, len(chunks))
	for i, chunk := range chunks {
		normalized := a.normalizer.Normalize(chunk)
		rows = append(rows, SplitRow{
			Index:  i,
			Text:   normalized,
			Length: len([]rune(normalized)),
		})
	}

	return rows
}

// ParseBatchSize coerces whatever the widget sent into a batch size.
// Missing values use absent; unparseable values use malformed.
func ParseBatchSize(value any, absent, malformed int) int {
	switch v := value.(type) {
	case nil:
		return absent
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return absent
		}

		if n, err := strconv.Atoi(trimmed); err == nil {
			return n
		}

		return malformed
	default:
		return malformed
	}
}

// ClampSeed forces a seed into the range the service accepts. Values below
// -1 become -1 (random); values past 2^32-1 saturate.
func ClampSeed(seed int64) int64 {
	if seed < seedRandom {
		return seedRandom
	}

	if seed > seedMax {
		return seedMax
	}

	return seed
}

// applyStylePreset merges a named preset into the params. Explicit request
// values win; the preset fills what the widget left at zero. Unknown styles
// are forwarded to the service untouched.
func (a *Adapter) applyStylePreset(params *core.GenerateParams) {
	if params.Style == "" {
		return
	}

	preset, ok := a.styles.Get(params.Style)
	if !ok {
		a.log.Warn("Style %q not registered, forwarding name as-is", params.Style)

		return
	}

	if params.Speaker == "" {
		params.Speaker = preset.Speaker
	}

	if params.Seed == 0 && preset.Seed != 0 {
		params.Seed = preset.Seed
	}

	if params.Temperature == 0 {
		params.Temperature = preset.Temperature
	}

	if params.Prefix == "" {
		params.Prefix = preset.Prefix
	}

	if params.Prompt1 == "" {
		params.Prompt1 = preset.Prompt1
	}

	if params.Prompt2 == "" {
		params.Prompt2 = preset.Prompt2
	}
}

// applyDefaults fills remaining zero-valued parameters from configuration.
func (a *Adapter) applyDefaults(params *core.GenerateParams) {
	if params.Temperature == 0 {
		params.Temperature = a.defaults.Temperature
	}

	if params.TopP == 0 {
		params.TopP = a.defaults.TopP
	}

	if params.TopK == 0 {
		params.TopK = a.defaults.TopK
	}

	if params.BatchSize < 1 {
		params.BatchSize = a.defaults.BatchSize
	}

	if params.SplitterThreshold <= 0 {
		params.SplitterThreshold = a.defaults.SplitterThreshold
	}

	if params.EndOfSentence == "" {
		params.EndOfSentence = DefaultEndOfSentence
	}
}

// resolveSpeaker replaces the speaker name with its registry reference, or
// with an uploaded profile when the widget supplied one.
func (a *Adapter) resolveSpeaker(params *core.GenerateParams, profile []byte) error {
	if len(profile) > 0 {
		spk, err := speaker.FromBytes(profile)
		if err != nil {
			return fmt.Errorf("failed to load uploaded speaker profile: %w", err)
		}

		params.Speaker = spk.Ref()

		return nil
	}

	if spk, ok := a.speakers.Get(params.Speaker); ok {
		params.Speaker = spk.Ref()
	}

	return nil
}

// finishClip runs enhancement and best-effort archival, then hands the clip
// back to the caller.
func (a *Adapter) finishClip(
	ctx context.Context,
	clip core.Clip,
	denoise, enhance bool,
) (*core.Clip, error) {
	processed, err := a.enhancer.Enhance(ctx, clip, denoise, enhance)
	if err != nil {
		return nil, fmt.Errorf("failed to enhance audio: %w", err)
	}

	a.archiveClip(ctx, processed)

	return &processed, nil
}

// archiveClip uploads the clip when archival is configured. Failures are
// logged, never surfaced to the widget.
func (a *Adapter) archiveClip(ctx context.Context, clip core.Clip) {
	if a.archiver == nil || a.encodeWAV == nil {
		return
	}

	_, err := a.archiver.Archive(ctx, a.encodeWAV(clip))
	if err != nil {
		a.log.Warn("Failed to archive generated audio: %v", err)
	}
}

func displayName(spk core.Speaker) string {
	if spk.Gender == "" || spk.Gender == "*" {
		return spk.Name
	}

	return spk.Gender + " : " + spk.Name
}

// nameSortKey sorts "*"-prefixed names before everything else.
func nameSortKey(name string) string {
	if strings.HasPrefix(name, "*") {
		return "-1"
	}

	return name
}

func countSegments(nodes []core.Node) int {
	count := 0

	for _, node := range nodes {
		if _, ok := node.(core.Segment); ok {
			count++
		}
	}

	return count
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	return string(runes[:max])
}
