package story

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinLineWordChars is the floor of the line density filter.
	MinLineWordChars = 4
	// LineWordCharRatio is the share of a line that must be word characters.
	LineWordCharRatio = 0.25
)

var (
	controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	urlPattern         = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)
	emailPattern       = regexp.MustCompile(`\S+@\S+`)
	pageNumberPattern  = regexp.MustCompile(`(?i)^(?:page\s*)?\d{1,4}$`)
	nonPhrasePattern   = regexp.MustCompile(`[^a-z0-9 ]+`)
	spaceRunPattern    = regexp.MustCompile(` {2,}`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)

	zeroWidthReplacer = strings.NewReplacer(
		"\u200b", "",
		"\u200c", "",
		"\u200d", "",
		"\ufeff", "",
	)
	lineEndingReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Sanitize normalizes raw extracted text and drops boilerplate lines,
// page-number artifacts and near-empty lines. Blank lines survive as
// paragraph separators. Sanitize never fails and is idempotent.
func Sanitize(raw string, rules *RuleSet) string {
	if raw == "" {
		return ""
	}

	text := lineEndingReplacer.Replace(raw)
	text = controlCharPattern.ReplaceAllString(text, "")

	rawLines := strings.Split(text, "\n")
	kept := make([]string, 0, len(rawLines))

	for _, rawLine := range rawLines {
		if strings.TrimSpace(rawLine) == "" {
			kept = append(kept, "")

			continue
		}

		visible := zeroWidthReplacer.Replace(rawLine)
		if strings.TrimSpace(visible) == "" {
			continue
		}

		line := strings.TrimSpace(stripLinks(visible))
		if line == "" {
			kept = append(kept, "")

			continue
		}

		if tooSparse(line) {
			continue
		}

		line = spaceRunPattern.ReplaceAllString(line, " ")

		if rules.dropsLine(line) {
			continue
		}

		kept = append(kept, line)
	}

	text = strings.Join(kept, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// stripLinks removes URLs and email-like tokens. Neither pattern spans a
// newline, so applying them per line equals applying them to the whole text.
func stripLinks(text string) string {
	text = urlPattern.ReplaceAllString(text, "")

	return emailPattern.ReplaceAllString(text, "")
}

// dropsLine reports whether a trimmed, space-collapsed line is boilerplate.
// The density filter runs earlier, on the line before spaces collapse.
func (r *RuleSet) dropsLine(line string) bool {
	if r.dropLine.MatchString(line) {
		return true
	}

	if pageNumberPattern.MatchString(line) {
		return true
	}

	normalized := normalizePhrase(line)
	for _, phrase := range r.normPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}

	lowered := strings.ToLower(line)
	for _, domain := range r.domains {
		if strings.Contains(lowered, domain) {
			return true
		}
	}

	return false
}

// tooSparse is the density filter: a line needs at least
// max(4, ceil(0.25 * length)) word characters.
func tooSparse(line string) bool {
	length := utf8.RuneCountInString(line)

	wordChars := 0

	for _, char := range line {
		if isWordChar(char) {
			wordChars++
		}
	}

	required := int(math.Ceil(LineWordCharRatio * float64(length)))
	if required < MinLineWordChars {
		required = MinLineWordChars
	}

	return wordChars < required
}

func isWordChar(char rune) bool {
	return char == '_' || unicode.IsLetter(char) || unicode.IsDigit(char) || unicode.IsMark(char)
}

// normalizePhrase lower-cases text and keeps only ASCII letters, digits and spaces.
func normalizePhrase(text string) string {
	return nonPhrasePattern.ReplaceAllString(strings.ToLower(text), "")
}
