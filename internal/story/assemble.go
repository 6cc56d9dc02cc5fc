package story

import (
	"strings"
	"unicode/utf8"
)

// Boundary and fallback thresholds. They are empirical and kept for
// compatibility with existing outputs.
const (
	// StartParagraphWords marks the first paragraph of the narrative core.
	StartParagraphWords = 20
	// EndParagraphWords marks the last paragraph of the narrative core.
	EndParagraphWords = 12
	// MinStoryLength is the shortest core, in characters, accepted before
	// falling back to banned-term filtering alone.
	MinStoryLength = 400
)

const paragraphSeparator = "\n\n"

// Assemble trims front and back matter from the story paragraphs of
// classified and joins the remainder with blank lines. When that core is
// shorter than MinStoryLength characters it instead joins every paragraph
// of original that mentions no banned term; the density and uppercase
// checks are not applied on that path.
func Assemble(classified []Paragraph, rules *RuleSet, original []string) string {
	storyParagraphs := make([]string, 0, len(classified))

	for _, paragraph := range classified {
		if paragraph.IsStory {
			storyParagraphs = append(storyParagraphs, paragraph.Text)
		}
	}

	start := 0

	for i, paragraph := range storyParagraphs {
		if wordCount(paragraph) >= StartParagraphWords {
			start = i

			break
		}
	}

	end := len(storyParagraphs)

	for i := len(storyParagraphs) - 1; i >= 0; i-- {
		if wordCount(storyParagraphs[i]) >= EndParagraphWords {
			end = i + 1

			break
		}
	}

	var core []string
	if start < end {
		core = storyParagraphs[start:end]
	}

	storyText := strings.Join(core, paragraphSeparator)

	if utf8.RuneCountInString(storyText) < MinStoryLength {
		fallback := make([]string, 0, len(original))

		for _, paragraph := range original {
			if !rules.containsBannedTerm(paragraph) {
				fallback = append(fallback, paragraph)
			}
		}

		storyText = strings.Join(fallback, paragraphSeparator)
	}

	return strings.TrimSpace(storyText)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
