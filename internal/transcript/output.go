package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Output file names written by WriteOutputs.
const (
	MappingsFileName          = "text_mappings.json"
	WordMappingsFileName      = "text_mappings_words.json"
	SentenceMappingsFileName  = "text_mappings_sentences.json"
	TranscriptionFileName     = "transcription.json"
	outputDirPerm             = 0o750
	outputFilePerm            = 0o600
	errCreateTranscriptionDir = "failed to create output directory %s: %w"
	errEncodeOutput           = "failed to encode %s: %w"
	errWriteOutput            = "failed to write %s: %w"
)

type outputFile struct {
	name string
	data any
}

// WriteOutputs writes the mapping files selected by format plus
// transcription.json into outDir and returns the written paths. For
// FormatBoth, text_mappings.json holds the word mappings.
func WriteOutputs(outDir string, format OutputFormat, tr *Transcription, minWords int) ([]string, error) {
	err := os.MkdirAll(outDir, outputDirPerm)
	if err != nil {
		return nil, fmt.Errorf(errCreateTranscriptionDir, outDir, err)
	}

	words := WordMappings(tr.Words)
	sentences := GroupSentences(tr.Words, minWords)

	var files []outputFile

	switch format {
	case FormatWords:
		files = []outputFile{{MappingsFileName, words}}
	case FormatSentences:
		files = []outputFile{{MappingsFileName, sentences}}
	case FormatBoth:
		files = []outputFile{
			{WordMappingsFileName, words},
			{SentenceMappingsFileName, sentences},
			{MappingsFileName, words},
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutputFormat, format)
	}

	full := *tr
	if full.Segments == nil {
		full.Segments = []Segment{}
	}

	full.Words = words
	files = append(files, outputFile{TranscriptionFileName, full})

	paths := make([]string, 0, len(files))

	for _, file := range files {
		path := filepath.Join(outDir, file.name)

		writeErr := writeJSON(path, file.data)
		if writeErr != nil {
			return paths, writeErr
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf(errEncodeOutput, path, err)
	}

	err = os.WriteFile(path, data, outputFilePerm)
	if err != nil {
		return fmt.Errorf(errWriteOutput, path, err)
	}

	return nil
}
