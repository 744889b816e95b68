package audio_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/book-expert/tts-webui/internal/audio"
	"github.com/book-expert/tts-webui/internal/core"
)

// encodeFloat32WAV builds a mono 32-bit IEEE float WAV stream, the other
// sample format DecodeWAV accepts.
func encodeFloat32WAV(sampleRate int, samples []float32) []byte {
	const headerSize = 44

	dataSize := len(samples) * 4
	buf := make([]byte, headerSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 3)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*4))
	binary.LittleEndian.PutUint16(buf[32:34], 4)
	binary.LittleEndian.PutUint16(buf[34:36], 32)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, sample := range samples {
		offset := headerSize + i*4

		binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(sample))
	}

	return buf
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	original := core.Clip{
		SampleRate: 24000,
		Samples:    []int16{0, 1000, -1000, 32767, -32768},
	}

	decoded, err := audio.DecodeWAV(audio.EncodeWAV(original))
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if decoded.SampleRate != original.SampleRate {
		t.Errorf("Expected sample rate %d, got %d", original.SampleRate, decoded.SampleRate)
	}

	if len(decoded.Samples) != len(original.Samples) {
		t.Fatalf("Expected %d samples, got %d", len(original.Samples), len(decoded.Samples))
	}

	for i, sample := range original.Samples {
		if decoded.Samples[i] != sample {
			t.Errorf("Sample %d: expected %d, got %d", i, sample, decoded.Samples[i])
		}
	}
}

func TestDecodeWAV_Float32CoercedToPCM16(t *testing.T) {
	t.Parallel()

	wav := encodeFloat32WAV(24000, []float32{0, 1.0, -1.0, 2.5, -2.5, 0.5})

	clip, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if clip.SampleRate != 24000 {
		t.Errorf("Expected sample rate 24000, got %d", clip.SampleRate)
	}

	expected := []int16{0, 32767, -32767, 32767, -32767, 16383}
	if len(clip.Samples) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(clip.Samples))
	}

	for i, sample := range expected {
		if clip.Samples[i] != sample {
			t.Errorf("Sample %d: expected %d, got %d", i, sample, clip.Samples[i])
		}
	}
}

func TestDecodeWAV_UnsupportedCodec(t *testing.T) {
	t.Parallel()

	// 32-bit float header rewritten to claim 64-bit samples.
	wav := encodeFloat32WAV(24000, []float32{0})
	binary.LittleEndian.PutUint16(wav[34:36], 64)

	_, err := audio.DecodeWAV(wav)
	if !errors.Is(err, audio.ErrUnsupportedCodec) {
		t.Errorf("Expected %v, got %v", audio.ErrUnsupportedCodec, err)
	}
}

func TestDecodeWAV_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		data     []byte
		expected error
	}{
		{
			name:     "too short",
			data:     []byte("RIFF"),
			expected: audio.ErrShortWAV,
		},
		{
			name:     "not riff",
			data:     make([]byte, 64),
			expected: audio.ErrNotRIFF,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := audio.DecodeWAV(testCase.data)
			if !errors.Is(err, testCase.expected) {
				t.Errorf("Expected %v, got %v", testCase.expected, err)
			}
		})
	}
}

func TestSilence(t *testing.T) {
	t.Parallel()

	clip := audio.Silence(24000, 500*time.Millisecond)

	if clip.SampleRate != 24000 {
		t.Errorf("Expected sample rate 24000, got %d", clip.SampleRate)
	}

	if len(clip.Samples) != 12000 {
		t.Errorf("Expected 12000 samples, got %d", len(clip.Samples))
	}

	for i, sample := range clip.Samples {
		if sample != 0 {
			t.Fatalf("Sample %d is not silent: %d", i, sample)
		}
	}
}

func TestSilence_NonPositiveDuration(t *testing.T) {
	t.Parallel()

	clip := audio.Silence(24000, 0)
	if len(clip.Samples) != 0 {
		t.Errorf("Expected empty clip, got %d samples", len(clip.Samples))
	}
}

func TestCombine(t *testing.T) {
	t.Parallel()

	combined, err := audio.Combine([]core.Clip{
		{SampleRate: 24000, Samples: []int16{1, 2}},
		{SampleRate: 0, Samples: nil},
		{SampleRate: 24000, Samples: []int16{3}},
	})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}

	if combined.SampleRate != 24000 {
		t.Errorf("Expected sample rate 24000, got %d", combined.SampleRate)
	}

	expected := []int16{1, 2, 3}
	if len(combined.Samples) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(combined.Samples))
	}

	for i, sample := range expected {
		if combined.Samples[i] != sample {
			t.Errorf("Sample %d: expected %d, got %d", i, sample, combined.Samples[i])
		}
	}
}

func TestCombine_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		clips    []core.Clip
		expected error
	}{
		{
			name:     "no clips",
			clips:    nil,
			expected: audio.ErrNothingToCombine,
		},
		{
			name:     "only empty clips",
			clips:    []core.Clip{{SampleRate: 24000}},
			expected: audio.ErrNothingToCombine,
		},
		{
			name: "mixed sample rates",
			clips: []core.Clip{
				{SampleRate: 24000, Samples: []int16{1}},
				{SampleRate: 44100, Samples: []int16{2}},
			},
			expected: audio.ErrSampleRateMixed,
		},
		{
			name: "missing sample rate",
			clips: []core.Clip{
				{SampleRate: 0, Samples: []int16{1}},
			},
			expected: audio.ErrSampleRateMissing,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := audio.Combine(testCase.clips)
			if !errors.Is(err, testCase.expected) {
				t.Errorf("Expected %v, got %v", testCase.expected, err)
			}
		})
	}
}

func TestCoerceInt16_Clamps(t *testing.T) {
	t.Parallel()

	out := audio.CoerceInt16([]float64{0, 1.0, -1.0, 2.5, -2.5})

	if out[0] != 0 {
		t.Errorf("Expected 0, got %d", out[0])
	}

	if out[1] != 32767 {
		t.Errorf("Expected full scale 32767, got %d", out[1])
	}

	if out[2] != -32767 {
		t.Errorf("Expected -32767, got %d", out[2])
	}

	if out[3] != out[1] {
		t.Errorf("Expected over-range sample clamped to %d, got %d", out[1], out[3])
	}

	if out[4] != out[2] {
		t.Errorf("Expected under-range sample clamped to %d, got %d", out[2], out[4])
	}
}
