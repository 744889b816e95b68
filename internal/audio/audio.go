// Package audio provides the WAV codec and buffer operations the adapter
// needs to post-process synthesized speech: decoding service responses,
// stitching segment clips with pause silences, and coercing float samples
// to the 16-bit PCM the UI widget consumes.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/book-expert/tts-webui/internal/core"
)

// WAV container constants. Only 16-bit PCM is produced; decoding also
// accepts 32-bit IEEE float streams, and multi-channel input keeps
// channel 0.
const (
	wavHeaderSize       = 44
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavBitsPerSample    = 16
	floatBitsPerSample  = 32
	bytesPerSample      = 2
	bytesPerFloatSample = 4
)

// Static errors.
var (
	ErrShortWAV          = errors.New("wav data too short")
	ErrNotRIFF           = errors.New("not a RIFF/WAVE stream")
	ErrNoFormatChunk     = errors.New("wav fmt chunk missing")
	ErrNoDataChunk       = errors.New("wav data chunk missing")
	ErrUnsupportedCodec  = errors.New("unsupported wav codec: want 16-bit PCM or 32-bit float")
	ErrNothingToCombine  = errors.New("no clips to combine")
	ErrSampleRateMissing = errors.New("clip sample rate must be positive")
	ErrSampleRateMixed   = errors.New("clips have differing sample rates")
)

// wavFormat is the decoded fmt chunk of a WAV stream.
type wavFormat struct {
	codec      uint16
	bits       uint16
	channels   int
	sampleRate int
}

// DecodeWAV parses a WAV stream into a Clip. 16-bit PCM streams are taken
// as-is; 32-bit float streams are clamped and scaled down to PCM16.
// Multi-channel audio is reduced to mono by keeping the first channel.
func DecodeWAV(data []byte) (core.Clip, error) {
	if len(data) < wavHeaderSize {
		return core.Clip{}, ErrShortWAV
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return core.Clip{}, ErrNotRIFF
	}

	format, pcm, err := scanChunks(data[12:])
	if err != nil {
		return core.Clip{}, err
	}

	var samples []int16

	switch {
	case format.codec == wavFormatPCM && format.bits == wavBitsPerSample:
		samples = decodePCM16(pcm, format.channels)
	case format.codec == wavFormatFloat && format.bits == floatBitsPerSample:
		samples = CoerceInt16(decodeFloat32(pcm, format.channels))
	default:
		return core.Clip{}, fmt.Errorf(
			"%w: format %d, %d bits",
			ErrUnsupportedCodec, format.codec, format.bits,
		)
	}

	return core.Clip{SampleRate: format.sampleRate, Samples: samples}, nil
}

// scanChunks walks the RIFF chunk list and returns the format parameters and
// the raw sample payload.
func scanChunks(data []byte) (wavFormat, []byte, error) {
	var (
		format     wavFormat
		pcm        []byte
		haveFormat bool
	)

	for len(data) >= 8 {
		chunkID := string(data[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(data[4:8]))

		if chunkSize < 0 || chunkSize > len(data)-8 {
			chunkSize = len(data) - 8
		}

		body := data[8 : 8+chunkSize]

		switch chunkID {
		case "fmt ":
			if len(body) < 16 {
				return wavFormat{}, nil, ErrNoFormatChunk
			}

			format.codec = binary.LittleEndian.Uint16(body[0:2])
			format.bits = binary.LittleEndian.Uint16(body[14:16])
			format.channels = int(binary.LittleEndian.Uint16(body[2:4]))
			format.sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			haveFormat = true
		case "data":
			pcm = body
		}

		// Chunks are word-aligned.
		advance := 8 + chunkSize + chunkSize%2
		data = data[advance:]
	}

	if !haveFormat || format.sampleRate <= 0 || format.channels <= 0 {
		return wavFormat{}, nil, ErrNoFormatChunk
	}

	if pcm == nil {
		return wavFormat{}, nil, ErrNoDataChunk
	}

	return format, pcm, nil
}

func decodePCM16(pcm []byte, channels int) []int16 {
	frameSize := bytesPerSample * channels
	frames := len(pcm) / frameSize
	samples := make([]int16, frames)

	for i := range frames {
		offset := i * frameSize

		samples[i] = int16(binary.LittleEndian.Uint16(pcm[offset : offset+bytesPerSample]))
	}

	return samples
}

func decodeFloat32(pcm []byte, channels int) []float64 {
	frameSize := bytesPerFloatSample * channels
	frames := len(pcm) / frameSize
	samples := make([]float64, frames)

	for i := range frames {
		offset := i * frameSize
		bits := binary.LittleEndian.Uint32(pcm[offset : offset+bytesPerFloatSample])

		samples[i] = float64(math.Float32frombits(bits))
	}

	return samples
}

// EncodeWAV serializes a clip as a mono 16-bit PCM WAV stream.
func EncodeWAV(clip core.Clip) []byte {
	dataSize := len(clip.Samples) * bytesPerSample
	buf := make([]byte, wavHeaderSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(wavHeaderSize-8+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(clip.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(clip.SampleRate*bytesPerSample))
	binary.LittleEndian.PutUint16(buf[32:34], bytesPerSample)
	binary.LittleEndian.PutUint16(buf[34:36], wavBitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, sample := range clip.Samples {
		offset := wavHeaderSize + i*bytesPerSample

		binary.LittleEndian.PutUint16(buf[offset:offset+bytesPerSample], uint16(sample))
	}

	return buf
}

// Silence produces a clip of zero samples for the given duration, used to
// render SSML break markers between segments.
func Silence(sampleRate int, duration time.Duration) core.Clip {
	if sampleRate <= 0 || duration <= 0 {
		return core.Clip{SampleRate: sampleRate, Samples: nil}
	}

	count := int(int64(sampleRate) * duration.Nanoseconds() / int64(time.Second))

	return core.Clip{SampleRate: sampleRate, Samples: make([]int16, count)}
}

// Combine concatenates clips in order. All clips must share a sample rate;
// empty clips contribute nothing.
func Combine(clips []core.Clip) (core.Clip, error) {
	if len(clips) == 0 {
		return core.Clip{}, ErrNothingToCombine
	}

	sampleRate := 0
	total := 0

	for _, clip := range clips {
		if len(clip.Samples) == 0 {
			continue
		}

		if clip.SampleRate <= 0 {
			return core.Clip{}, ErrSampleRateMissing
		}

		if sampleRate == 0 {
			sampleRate = clip.SampleRate
		} else if clip.SampleRate != sampleRate {
			return core.Clip{}, fmt.Errorf(
				"%w: %d vs %d",
				ErrSampleRateMixed, sampleRate, clip.SampleRate,
			)
		}

		total += len(clip.Samples)
	}

	if sampleRate == 0 {
		return core.Clip{}, ErrNothingToCombine
	}

	samples := make([]int16, 0, total)
	for _, clip := range clips {
		samples = append(samples, clip.Samples...)
	}

	return core.Clip{SampleRate: sampleRate, Samples: samples}, nil
}

// CoerceInt16 converts float samples in [-1.0, 1.0] to 16-bit PCM, clamping
// out-of-range values.
func CoerceInt16(samples []float64) []int16 {
	out := make([]int16, len(samples))

	for i, sample := range samples {
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}

		out[i] = int16(sample * math.MaxInt16)
	}

	return out
}
