package story

import "unicode/utf8"

// Extract runs the full pipeline over raw extracted text and returns the
// narrative core. It never fails; an empty result is not an error here.
func Extract(raw string, rules *RuleSet) string {
	sanitized := Sanitize(raw, rules)
	classified := Classify(sanitized, rules)

	original := make([]string, len(classified))
	for i, paragraph := range classified {
		original[i] = paragraph.Text
	}

	return Assemble(classified, rules, original)
}

// Length is the character count reported for a story text.
func Length(storyText string) int {
	return utf8.RuneCountInString(storyText)
}
