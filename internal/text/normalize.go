// Package text provides the pre-synthesis text cleanup and sentence
// splitting used by the web-UI adapter. Normalization smooths out markup
// leftovers, numerals, and typographic characters that trip up the acoustic
// model; the splitter chunks long inputs at sentence boundaries.
package text

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Regex patterns for normalization.
const (
	urlRegexPattern        = `https?://\S+`
	emailRegexPattern      = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`
	numberRegexPattern     = `\d+`
	referenceRegexPattern  = `(?:\[\d+\]|[¹²³⁴⁵⁶⁷⁸⁹⁰]+)`
	whitespaceRegexPattern = `\s+`
)

// Placeholder formats for tokens preserved across cleanup. Letters only:
// anything with digits or punctuation would be mangled by the very passes
// the placeholders exist to dodge.
const (
	urlPlaceholderPattern   = "XURLTOKEN%sX"
	emailPlaceholderPattern = "XEMAILTOKEN%sX"
)

// Number-to-words limits.
const (
	numberBaseTen      = 10
	numberBaseTwenty   = 20
	numberBaseHundred  = 100
	numberBaseThousand = 1000
	maxNumberForWords  = 999999
)

// Normalizer cleans raw UI text before it is handed to the synthesis
// service. Patterns are compiled once and reused across requests.
type Normalizer struct {
	urlPattern        *regexp.Regexp
	emailPattern      *regexp.Regexp
	numberPattern     *regexp.Regexp
	referencePattern  *regexp.Regexp
	whitespacePattern *regexp.Regexp

	abbreviationReplacer *strings.Replacer
	typographyReplacer   *strings.Replacer
}

// NewNormalizer creates a normalizer with compiled patterns and replacers.
func NewNormalizer() *Normalizer {
	abbreviations := []string{
		"Mr.", "Mister",
		"Mrs.", "Misses",
		"Ms.", "Miss",
		"Dr.", "Doctor",
		"St.", "Saint",
		"Co.", "Company",
		"Ltd.", "Limited",
		"Corp.", "Corporation",
		"Inc.", "Incorporated",
	}

	typography := []string{
		"—", "-",
		"–", "-",
		"‒", "-",
		"…", "...",
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	}

	return &Normalizer{
		urlPattern:           regexp.MustCompile(urlRegexPattern),
		emailPattern:         regexp.MustCompile(emailRegexPattern),
		numberPattern:        regexp.MustCompile(numberRegexPattern),
		referencePattern:     regexp.MustCompile(referenceRegexPattern),
		whitespacePattern:    regexp.MustCompile(whitespaceRegexPattern),
		abbreviationReplacer: strings.NewReplacer(abbreviations...),
		typographyReplacer:   strings.NewReplacer(typography...),
	}
}

// Normalize runs the full cleanup pipeline. Empty input passes through
// unchanged so callers can short-circuit on it.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return text
	}

	// URLs and emails go first: every later pass would corrupt them.
	preserved, placeholders := n.preserveTokens(text)

	cleaned := n.referencePattern.ReplaceAllString(preserved, "")
	cleaned = n.abbreviationReplacer.Replace(cleaned)
	cleaned = n.normalizeNumbers(cleaned)
	cleaned = n.whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = collapsePunctuation(cleaned)
	cleaned = n.typographyReplacer.Replace(cleaned)

	restored := strings.TrimSpace(restoreTokens(cleaned, placeholders))

	return ensureSentenceEnding(restored)
}

// normalizeNumbers converts integers the acoustic model would misread into
// their English word form. Numbers past the limit are left as digits.
func (n *Normalizer) normalizeNumbers(text string) string {
	return n.numberPattern.ReplaceAllStringFunc(text, func(s string) string {
		num, err := strconv.Atoi(s)
		if err != nil {
			return s
		}

		return integerToWords(num)
	})
}

// preserveTokens swaps URLs and emails for unique placeholders.
func (n *Normalizer) preserveTokens(text string) (string, map[string]string) {
	placeholders := make(map[string]string)
	counter := 0

	replace := func(pattern *regexp.Regexp, format string, input string) string {
		return pattern.ReplaceAllStringFunc(input, func(match string) string {
			placeholder := fmt.Sprintf(format, alphaIndex(counter))
			placeholders[placeholder] = match
			counter++

			return placeholder
		})
	}

	out := replace(n.urlPattern, urlPlaceholderPattern, text)
	out = replace(n.emailPattern, emailPlaceholderPattern, out)

	return out, placeholders
}

// alphaIndex encodes a counter using letters only, so placeholders survive
// the number pass.
func alphaIndex(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"

	encoded := string(letters[n%len(letters)])
	for n >= len(letters) {
		n /= len(letters)
		encoded = string(letters[n%len(letters)]) + encoded
	}

	return encoded
}

func restoreTokens(text string, placeholders map[string]string) string {
	for placeholder, original := range placeholders {
		text = strings.ReplaceAll(text, placeholder, original)
	}

	return text
}

// collapsePunctuation reduces runs of a repeated punctuation mark to one
// ("Hello!!!" reads as "Hello!"). Periods are exempt so ellipses survive.
func collapsePunctuation(text string) string {
	var (
		result   []rune
		lastRune rune
	)

	for _, char := range text {
		if char == lastRune && char != '.' && unicode.IsPunct(char) {
			continue
		}

		result = append(result, char)
		lastRune = char
	}

	return string(result)
}

// ensureSentenceEnding appends a period when the text does not already end
// with sentence-final punctuation.
func ensureSentenceEnding(text string) string {
	if text == "" {
		return ""
	}

	lastChar, _ := utf8.DecodeLastRuneInString(text)
	switch lastChar {
	case '.', '!', '?':
		return text
	}

	if unicode.IsPunct(lastChar) {
		return text
	}

	return text + "."
}

// integerToWords converts an integer into its English word representation.
// Values outside [0, maxNumberForWords] are returned as digits.
func integerToWords(number int) string {
	if number < 0 || number > maxNumberForWords {
		return strconv.Itoa(number)
	}

	if number == 0 {
		return "zero"
	}

	var parts []string

	if thousands := number / numberBaseThousand; thousands > 0 {
		parts = append(parts, underThousandToWords(thousands)+" thousand")
		number %= numberBaseThousand
	}

	if number > 0 {
		parts = append(parts, underThousandToWords(number))
	}

	return strings.Join(parts, " ")
}

func underThousandToWords(number int) string {
	ones := []string{
		"", "one", "two", "three", "four", "five",
		"six", "seven", "eight", "nine",
	}
	teens := []string{
		"ten", "eleven", "twelve", "thirteen", "fourteen",
		"fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
	}
	tens := []string{
		"", "", "twenty", "thirty", "forty", "fifty",
		"sixty", "seventy", "eighty", "ninety",
	}

	var parts []string

	if hundreds := number / numberBaseHundred; hundreds > 0 {
		parts = append(parts, ones[hundreds]+" hundred")
		number %= numberBaseHundred
	}

	switch {
	case number == 0:
	case number < numberBaseTen:
		parts = append(parts, ones[number])
	case number < numberBaseTwenty:
		parts = append(parts, teens[number-numberBaseTen])
	default:
		word := tens[number/numberBaseTen]
		if number%numberBaseTen > 0 {
			word += " " + ones[number%numberBaseTen]
		}

		parts = append(parts, word)
	}

	return strings.Join(parts, " ")
}
