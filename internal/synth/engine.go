package synth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/book-expert/logger"

	"github.com/book-expert/tts-webui/internal/audio"
	"github.com/book-expert/tts-webui/internal/core"
	"github.com/book-expert/tts-webui/internal/text"
)

// fallbackSampleRate is used to render break silence when a document
// contains no text segments before its first break.
const fallbackSampleRate = 24000

// ErrNoSegments is returned when a document has nothing to synthesize.
var ErrNoSegments = errors.New("no segments to synthesize")

// Engine orchestrates multi-segment synthesis: it fans segment requests out
// to the synthesizer with bounded concurrency, renders break markers as
// silence, and combines the results in document order.
type Engine struct {
	synth core.Synthesizer
	log   *logger.Logger
}

// NewEngine creates an engine over the given synthesizer.
func NewEngine(synth core.Synthesizer, log *logger.Logger) *Engine {
	return &Engine{
		synth: synth,
		log:   log,
	}
}

// SynthesizeText splits a long text at sentence boundaries and synthesizes
// the chunks as one segment sequence.
func (e *Engine) SynthesizeText(
	ctx context.Context,
	input string,
	params core.GenerateParams,
) (core.Clip, error) {
	splitter := text.NewSplitter(params.SplitterThreshold)

	var nodes []core.Node
	for _, chunk := range splitter.Split(input) {
		nodes = append(nodes, core.Segment{Text: chunk, Speaker: "", Style: ""})
	}

	return e.SynthesizeNodes(ctx, nodes, params)
}

// SynthesizeNodes synthesizes a parsed segment sequence. Per-segment speaker
// and style overrides take precedence over the request parameters. Any
// segment failure fails the whole request.
func (e *Engine) SynthesizeNodes(
	ctx context.Context,
	nodes []core.Node,
	params core.GenerateParams,
) (core.Clip, error) {
	segments := collectSegments(nodes)
	if len(segments) == 0 {
		return core.Clip{}, ErrNoSegments
	}

	clips, err := e.synthesizeParallel(ctx, segments, params)
	if err != nil {
		return core.Clip{}, err
	}

	combined := make([]core.Clip, 0, len(nodes))
	sampleRate := clips[0].SampleRate

	segmentIndex := 0

	for _, node := range nodes {
		switch node := node.(type) {
		case core.Segment:
			combined = append(combined, clips[segmentIndex])
			segmentIndex++
		case core.Break:
			rate := sampleRate
			if rate <= 0 {
				rate = fallbackSampleRate
			}

			combined = append(combined, audio.Silence(rate, node.Duration))
		}
	}

	clip, err := audio.Combine(combined)
	if err != nil {
		return core.Clip{}, fmt.Errorf("failed to combine segment audio: %w", err)
	}

	return clip, nil
}

// collectSegments extracts the text segments in document order.
func collectSegments(nodes []core.Node) []core.Segment {
	var segments []core.Segment

	for _, node := range nodes {
		if segment, ok := node.(core.Segment); ok {
			segments = append(segments, segment)
		}
	}

	return segments
}

// synthesizeParallel runs segment synthesis with a worker pool capped at the
// request batch size. Results keep document order.
func (e *Engine) synthesizeParallel(
	ctx context.Context,
	segments []core.Segment,
	params core.GenerateParams,
) ([]core.Clip, error) {
	workers := params.BatchSize
	if workers < 1 {
		workers = 1
	}

	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		lastError error
	)

	clips := make([]core.Clip, len(segments))
	workerPool := make(chan struct{}, workers)

	for segmentIndex, segment := range segments {
		waitGroup.Add(1)

		go func(index int, seg core.Segment) {
			defer waitGroup.Done()

			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			segmentParams := params
			if seg.Speaker != "" {
				segmentParams.Speaker = seg.Speaker
			}

			if seg.Style != "" {
				segmentParams.Style = seg.Style
			}

			// The end-of-sentence token keeps the model from
			// trailing off at segment boundaries.
			segmentText := seg.Text
			if params.EndOfSentence != "" {
				segmentText += " " + params.EndOfSentence
			}

			clip, err := e.synth.Synthesize(ctx, segmentText, segmentParams)
			if err != nil {
				mutex.Lock()

				lastError = fmt.Errorf("segment %d failed: %w", index+1, err)

				mutex.Unlock()
				e.log.Error("Failed to synthesize segment %d: %v", index+1, err)

				return
			}

			clips[index] = clip

			e.log.Info("Synthesized segment %d/%d", index+1, len(segments))
		}(segmentIndex, segment)
	}

	waitGroup.Wait()
	close(workerPool)

	if lastError != nil {
		return nil, lastError
	}

	return clips, nil
}
