package text_test

import (
	"testing"

	"github.com/book-expert/tts-webui/internal/text"
)

// normalizerTestCase defines a standard test case for the normalizer.
type normalizerTestCase struct {
	name     string
	input    string
	expected string
}

func runNormalizerTests(t *testing.T, tests []normalizerTestCase) {
	t.Helper()

	normalizer := text.NewNormalizer()

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			result := normalizer.Normalize(testCase.input)
			if result != testCase.expected {
				t.Errorf("Expected %q, got %q", testCase.expected, result)
			}
		})
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	t.Parallel()

	normalizer := text.NewNormalizer()

	result := normalizer.Normalize("")
	if result != "" {
		t.Errorf("Expected empty string for empty input, got %q", result)
	}
}

func TestNormalize_Abbreviations(t *testing.T) {
	t.Parallel()

	tests := []normalizerTestCase{
		{
			name:     "Mr expansion",
			input:    "Mr. Smith",
			expected: "Mister Smith.",
		},
		{
			name:     "Dr expansion",
			input:    "Dr. Johnson",
			expected: "Doctor Johnson.",
		},
		{
			name:     "Multiple abbreviations",
			input:    "Mr. and Mrs. Smith",
			expected: "Mister and Misses Smith.",
		},
	}
	runNormalizerTests(t, tests)
}

func TestNormalize_Numbers(t *testing.T) {
	t.Parallel()

	tests := []normalizerTestCase{
		{
			name:     "Single digit",
			input:    "There are 3 cars.",
			expected: "There are three cars.",
		},
		{
			name:     "Teen number",
			input:    "I have 17 friends.",
			expected: "I have seventeen friends.",
		},
		{
			name:     "Hundreds",
			input:    "The building is 356 feet tall.",
			expected: "The building is three hundred fifty six feet tall.",
		},
		{
			name:     "Thousands",
			input:    "About 5000 people attended.",
			expected: "About five thousand people attended.",
		},
		{
			name:     "Over the limit stays digits",
			input:    "A million is 1000000.",
			expected: "A million is 1000000.",
		},
	}
	runNormalizerTests(t, tests)
}

func TestNormalize_TokenPreservation(t *testing.T) {
	t.Parallel()

	tests := []normalizerTestCase{
		{
			name:     "URL survives",
			input:    "Please visit https://example.com for more info.",
			expected: "Please visit https://example.com for more info.",
		},
		{
			name:     "Email survives",
			input:    "Contact us at support@example.org.",
			expected: "Contact us at support@example.org.",
		},
	}
	runNormalizerTests(t, tests)
}

func TestNormalize_Cleanup(t *testing.T) {
	t.Parallel()

	tests := []normalizerTestCase{
		{
			name:     "Bracketed reference removed",
			input:    "This is a statement [1].",
			expected: "This is a statement .",
		},
		{
			name:     "Whitespace collapsed",
			input:    "Hello   world",
			expected: "Hello world.",
		},
		{
			name:     "Smart quotes",
			input:    "He said, “Hello.”",
			expected: `He said, "Hello."`,
		},
		{
			name:     "Dashes",
			input:    "A range — it's important",
			expected: "A range - it's important.",
		},
		{
			name:     "Excessive punctuation",
			input:    "Hello!!! How are you??",
			expected: "Hello! How are you?",
		},
		{
			name:     "Missing final punctuation",
			input:    "This sentence has no end",
			expected: "This sentence has no end.",
		},
		{
			name:     "Question mark kept",
			input:    "Are you sure?",
			expected: "Are you sure?",
		},
	}
	runNormalizerTests(t, tests)
}
