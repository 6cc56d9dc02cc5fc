// Package core defines the collaborator interfaces shared by storypipe components.
package core

import (
	"context"
	"encoding/json"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// TextExtractor returns the raw text layer of a document.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// CoverExtractor writes a cover image for a document into outputDir and
// returns the written file name, or "" when the document has no cover.
type CoverExtractor interface {
	ExtractCover(ctx context.Context, path, outputDir string) (string, error)
}

// FileConverter turns an input document into story text on disk.
type FileConverter interface {
	ConvertFile(ctx context.Context, inputPath, outputDir string) ConversionResult
}

// ConversionResult is the envelope reported to callers of a conversion.
// Success results carry OutputPath, TextLength and CoverFilename; failures
// carry Error only.
type ConversionResult struct {
	Success       bool   `json:"success"`
	OutputPath    string `json:"output_path"`
	TextLength    int    `json:"text_length"`
	CoverFilename string `json:"cover_filename"`
	Error         string `json:"error"`
}

type successEnvelope struct {
	Success       bool   `json:"success"`
	OutputPath    string `json:"output_path"`
	TextLength    int    `json:"text_length"`
	CoverFilename string `json:"cover_filename"`
}

type failureEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON emits exactly the fields of the success or failure envelope.
func (r ConversionResult) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(successEnvelope{
			Success:       true,
			OutputPath:    r.OutputPath,
			TextLength:    r.TextLength,
			CoverFilename: r.CoverFilename,
		})
	}

	return json.Marshal(failureEnvelope{Success: false, Error: r.Error})
}

// Failed builds a failure envelope.
func Failed(message string) ConversionResult {
	return ConversionResult{Success: false, Error: message}
}
