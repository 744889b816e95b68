// Package ssml parses the narrow SSML dialect the web UI produces: a
// <speak> root containing <voice> text runs and self-closing <break>
// markers. Anything richer belongs to the upstream SSML toolchain, not this
// adapter.
package ssml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/book-expert/tts-webui/internal/core"
)

// DefaultBreakDuration is used when a <break> carries no time attribute.
const DefaultBreakDuration = 400 * time.Millisecond

// Static errors.
var (
	ErrNoSpeakRoot      = errors.New("ssml document must have a <speak> root")
	ErrUnknownElement   = errors.New("unknown ssml element")
	ErrNestedVoice      = errors.New("<voice> elements cannot be nested")
	ErrInvalidBreakTime = errors.New("invalid break time attribute")
)

// Parse converts an SSML document into its node sequence. Text directly
// under <speak> becomes a segment with no speaker or style override.
func Parse(document string) ([]core.Node, error) {
	decoder := xml.NewDecoder(strings.NewReader(document))

	var (
		nodes     []core.Node
		inSpeak   bool
		voice     *core.Segment
		voiceText strings.Builder
	)

	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("malformed ssml document: %w", err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "speak":
				inSpeak = true
			case "voice":
				if !inSpeak {
					return nil, ErrNoSpeakRoot
				}

				if voice != nil {
					return nil, ErrNestedVoice
				}

				segment := segmentFromAttrs(tok.Attr)
				voice = &segment

				voiceText.Reset()
			case "break":
				if !inSpeak {
					return nil, ErrNoSpeakRoot
				}

				duration, err := breakDuration(tok.Attr)
				if err != nil {
					return nil, err
				}

				nodes = append(nodes, core.Break{Duration: duration})

				skipErr := decoder.Skip()
				if skipErr != nil {
					return nil, fmt.Errorf("malformed <break> element: %w", skipErr)
				}
			default:
				return nil, fmt.Errorf("%w: <%s>", ErrUnknownElement, tok.Name.Local)
			}
		case xml.EndElement:
			if tok.Name.Local == "voice" && voice != nil {
				voice.Text = strings.TrimSpace(voiceText.String())
				if voice.Text != "" {
					nodes = append(nodes, *voice)
				}

				voice = nil
			}
		case xml.CharData:
			if voice != nil {
				voiceText.Write(tok)

				continue
			}

			if inSpeak {
				if text := strings.TrimSpace(string(tok)); text != "" {
					nodes = append(nodes, core.Segment{Text: text})
				}
			}
		}
	}

	if !inSpeak {
		return nil, ErrNoSpeakRoot
	}

	return nodes, nil
}

func segmentFromAttrs(attrs []xml.Attr) core.Segment {
	var segment core.Segment

	for _, attr := range attrs {
		switch attr.Name.Local {
		case "spk":
			segment.Speaker = attr.Value
		case "style":
			segment.Style = attr.Value
		}
	}

	return segment
}

// breakDuration parses the time attribute of a <break>. Accepted forms are
// Go-style suffixed values ("450ms", "1s") and bare integers, which are
// taken as milliseconds.
func breakDuration(attrs []xml.Attr) (time.Duration, error) {
	for _, attr := range attrs {
		if attr.Name.Local != "time" {
			continue
		}

		value := strings.TrimSpace(attr.Value)
		if value == "" {
			return DefaultBreakDuration, nil
		}

		if millis, err := strconv.Atoi(value); err == nil {
			if millis < 0 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidBreakTime, attr.Value)
			}

			return time.Duration(millis) * time.Millisecond, nil
		}

		duration, err := time.ParseDuration(value)
		if err != nil || duration < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidBreakTime, attr.Value)
		}

		return duration, nil
	}

	return DefaultBreakDuration, nil
}
