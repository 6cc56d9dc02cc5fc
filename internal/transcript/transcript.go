// Package transcript provides word and sentence timing mappings for
// transcribed audio.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultMinSentenceWords is the smallest sentence GroupSentences closes on
// terminal punctuation.
const DefaultMinSentenceWords = 8

// AutoLanguage asks the transcriber to detect the spoken language.
const AutoLanguage = "auto"

// ErrUnknownOutputFormat is returned by ParseOutputFormat for unknown names.
var ErrUnknownOutputFormat = errors.New("unknown output format")

// Word is one transcribed word with its timing in seconds.
type Word struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Sentence is a run of consecutive words.
type Sentence struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a timed span as reported by the transcription backend.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcription is the full result of transcribing one audio file.
type Transcription struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
	Words    []Word    `json:"words"`
}

// Transcriber converts an audio file into a Transcription. An empty or
// "auto" language means detect.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*Transcription, error)
}

// OutputFormat selects which mapping files WriteOutputs produces.
type OutputFormat string

// Supported output formats.
const (
	FormatWords     OutputFormat = "words"
	FormatSentences OutputFormat = "sentences"
	FormatBoth      OutputFormat = "both"
)

// ParseOutputFormat maps a flag value to an OutputFormat; "" means both.
func ParseOutputFormat(value string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatBoth:
		return FormatBoth, nil
	case FormatWords:
		return FormatWords, nil
	case FormatSentences:
		return FormatSentences, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOutputFormat, value)
	}
}

// WordMappings returns a copy of words for word-level playback sync.
func WordMappings(words []Word) []Word {
	mappings := make([]Word, len(words))
	copy(mappings, words)

	return mappings
}

// GroupSentences joins words into sentences. A sentence closes when a word
// ends in '.', '!' or '?' and the sentence holds at least minWords words, or
// when it reaches 2*minWords words. Blank words are skipped and any remainder
// becomes the last sentence. minWords below 1 selects the default.
func GroupSentences(words []Word, minWords int) []Sentence {
	if minWords < 1 {
		minWords = DefaultMinSentenceWords
	}

	sentences := make([]Sentence, 0)
	current := make([]Word, 0, minWords*2)

	for _, word := range words {
		text := strings.TrimSpace(word.Text)
		if text == "" {
			continue
		}

		current = append(current, Word{Text: text, Start: word.Start, End: word.End})

		terminal := strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?")
		if (terminal && len(current) >= minWords) || len(current) >= minWords*2 {
			sentences = append(sentences, joinWords(current))
			current = current[:0]
		}
	}

	if len(current) > 0 {
		sentences = append(sentences, joinWords(current))
	}

	return sentences
}

func joinWords(words []Word) Sentence {
	texts := make([]string, len(words))
	for i, word := range words {
		texts[i] = word.Text
	}

	return Sentence{
		Text:  strings.Join(texts, " "),
		Start: words[0].Start,
		End:   words[len(words)-1].End,
	}
}
