package text

import (
	"regexp"
	"strings"
)

// DefaultThreshold is the chunk length budget used when the UI does not
// supply one.
const DefaultThreshold = 100

const sentenceEndPattern = `[.!?。！？]+["')\]]*`

// Splitter chunks long text at sentence boundaries so each synthesis call
// stays under the acoustic model's comfortable input length.
type Splitter struct {
	threshold   int
	sentenceEnd *regexp.Regexp
}

// NewSplitter creates a splitter with the given length budget per chunk.
// Non-positive thresholds fall back to the default.
func NewSplitter(threshold int) *Splitter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Splitter{
		threshold:   threshold,
		sentenceEnd: regexp.MustCompile(sentenceEndPattern),
	}
}

// Threshold reports the configured chunk budget.
func (s *Splitter) Threshold() int {
	return s.threshold
}

// Split breaks text into chunks no longer than the threshold, measured in
// runes. Sentences are kept whole and packed greedily; a single sentence
// longer than the threshold is emitted on its own rather than truncated.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := s.sentences(text)

	var (
		chunks  []string
		current strings.Builder
		length  int
	)

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			length = 0
		}
	}

	for _, sentence := range sentences {
		runes := len([]rune(sentence))
		if length > 0 && length+1+runes > s.threshold {
			flush()
		}

		if length > 0 {
			current.WriteString(" ")
			length++
		}

		current.WriteString(sentence)
		length += runes
	}

	flush()

	return chunks
}

// sentences slices text after each run of sentence-final punctuation.
func (s *Splitter) sentences(text string) []string {
	var (
		sentences []string
		start     int
	)

	for _, match := range s.sentenceEnd.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[start:match[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}

		start = match[1]
	}

	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}
