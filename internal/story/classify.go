package story

import (
	"regexp"
	"strings"
)

const (
	// MinStoryTokens is the fewest alphabetic tokens a story paragraph may have.
	MinStoryTokens = 5
	// MaxUppercaseRatio is the largest uppercase share a story paragraph may have.
	MaxUppercaseRatio = 0.8
)

var (
	paragraphBreakPattern = regexp.MustCompile(`\n\s*\n`)
	alphaTokenPattern     = regexp.MustCompile(`[A-Za-z]{2,}`)
)

// Paragraph is one blank-line delimited block with its verdict.
type Paragraph struct {
	Text    string
	IsStory bool
}

// SplitParagraphs splits text on runs of blank lines and returns the
// trimmed, non-empty blocks in order.
func SplitParagraphs(text string) []string {
	blocks := paragraphBreakPattern.Split(text, -1)
	paragraphs := make([]string, 0, len(blocks))

	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	return paragraphs
}

// Classify splits sanitized text into paragraphs and decides for each one
// whether it is narrative prose.
func Classify(sanitized string, rules *RuleSet) []Paragraph {
	paragraphs := SplitParagraphs(sanitized)
	classified := make([]Paragraph, 0, len(paragraphs))

	for _, text := range paragraphs {
		classified = append(classified, Paragraph{
			Text:    text,
			IsStory: rules.isStory(text),
		})
	}

	return classified
}

// isStory applies the checks in order: banned terms, token count, then the
// uppercase ratio. The order decides which rule rejects a paragraph.
func (r *RuleSet) isStory(paragraph string) bool {
	if r.containsBannedTerm(paragraph) {
		return false
	}

	tokens := alphaTokenPattern.FindAllString(paragraph, -1)
	if len(tokens) < MinStoryTokens {
		return false
	}

	letters, upper := 0, 0

	for _, token := range tokens {
		for i := range len(token) {
			letters++

			if token[i] >= 'A' && token[i] <= 'Z' {
				upper++
			}
		}
	}

	return float64(upper)/float64(letters) <= MaxUppercaseRatio
}
