// Package convert turns PDF and TXT documents into story markdown on disk.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/book-expert/logger"
	"github.com/book-expert/storypipe/internal/core"
	"github.com/book-expert/storypipe/internal/story"
)

const (
	// ResultFileName is the name of the story file written into the output directory.
	ResultFileName = "pdf_result.md"

	// MinExtractedChars is the number of non-space characters below which an
	// extracted text layer counts as empty.
	MinExtractedChars = 10

	extPDF = ".pdf"
	extTXT = ".txt"

	outputDirPerm  = 0o750
	outputFilePerm = 0o600

	errUnsupportedType  = "Unsupported file type: %s"
	errPDFValidation    = "PDF validation failed: %v"
	errTXTValidation    = "TXT validation failed: %v"
	errTXTEmpty         = "TXT file is empty or unreadable"
	errCreateOutputDir  = "failed to create output directory %s: %w"
	errWriteStory       = "failed to write story to %s: %w"
	logConversionStart  = "Starting file conversion: %s (type: %s)"
	logExtractFailed    = "PDF text extraction failed for %s: %v"
	logExtractEmpty     = "PDF text layer of %s is empty, using placeholder content"
	logCoverFailed      = "Cover extraction failed for %s: %v"
	logStoryWritten     = "Saved story to %s (%d characters)"
	logConversionFailed = "Conversion of %s failed: %s"
)

// ErrNilRuleSet is returned by New when no rule set is supplied.
var ErrNilRuleSet = errors.New("rule set is required")

// Converter extracts the story from documents and writes it as markdown.
type Converter struct {
	rules *story.RuleSet
	text  core.TextExtractor
	cover core.CoverExtractor
	log   *logger.Logger
}

// New creates a Converter. A nil text extractor selects PDFTextExtractor and
// a nil cover extractor selects a PageCover.
func New(
	rules *story.RuleSet,
	text core.TextExtractor,
	cover core.CoverExtractor,
	log *logger.Logger,
) (*Converter, error) {
	if rules == nil {
		return nil, ErrNilRuleSet
	}

	if text == nil {
		text = PDFTextExtractor{}
	}

	if cover == nil {
		cover = NewPageCover(PDFTextExtractor{})
	}

	return &Converter{
		rules: rules,
		text:  text,
		cover: cover,
		log:   log,
	}, nil
}

// ConvertFile converts inputPath into <outputDir>/pdf_result.md. Failures are
// reported in the returned envelope rather than as an error.
func (c *Converter) ConvertFile(ctx context.Context, inputPath, outputDir string) core.ConversionResult {
	ext := strings.ToLower(filepath.Ext(inputPath))
	c.log.Info(logConversionStart, inputPath, ext)

	var result core.ConversionResult

	switch ext {
	case extTXT:
		result = c.convertTXT(inputPath, outputDir)
	case extPDF:
		result = c.convertPDF(ctx, inputPath, outputDir)
	default:
		result = core.Failed(fmt.Sprintf(errUnsupportedType, ext))
	}

	if !result.Success {
		c.log.Error(logConversionFailed, inputPath, result.Error)
	}

	return result
}

func (c *Converter) convertTXT(path, outputDir string) core.ConversionResult {
	data, err := readTXT(path)
	if err != nil {
		return core.Failed(fmt.Sprintf(errTXTValidation, err))
	}

	text, err := decodeText(data)
	if err != nil || strings.TrimSpace(text) == "" {
		return core.Failed(errTXTEmpty)
	}

	return c.finish(text, outputDir)
}

func (c *Converter) convertPDF(ctx context.Context, path, outputDir string) core.ConversionResult {
	size, err := validatePDF(path)
	if err != nil {
		return core.Failed(fmt.Sprintf(errPDFValidation, err))
	}

	text, extractErr := c.text.ExtractText(ctx, path)

	switch {
	case extractErr != nil:
		c.log.Warn(logExtractFailed, path, extractErr)

		text = placeholderText(path, size)
	case nonSpaceCount(text) < MinExtractedChars:
		c.log.Warn(logExtractEmpty, path)

		text = placeholderText(path, size)
	}

	result := c.finish(text, outputDir)
	if !result.Success {
		return result
	}

	coverName, coverErr := c.cover.ExtractCover(ctx, path, outputDir)
	if coverErr != nil {
		c.log.Warn(logCoverFailed, path, coverErr)

		coverName = ""
	}

	result.CoverFilename = coverName

	return result
}

// finish runs the story pipeline over raw text and writes the result file.
func (c *Converter) finish(raw, outputDir string) core.ConversionResult {
	storyText := story.Extract(raw, c.rules)

	outputPath, err := writeStory(outputDir, storyText)
	if err != nil {
		return core.Failed(err.Error())
	}

	length := story.Length(storyText)
	c.log.Info(logStoryWritten, outputPath, length)

	return core.ConversionResult{
		Success:    true,
		OutputPath: outputPath,
		TextLength: length,
	}
}

func writeStory(outputDir, storyText string) (string, error) {
	err := os.MkdirAll(outputDir, outputDirPerm)
	if err != nil {
		return "", fmt.Errorf(errCreateOutputDir, outputDir, err)
	}

	outputPath := filepath.Join(outputDir, ResultFileName)

	err = os.WriteFile(outputPath, []byte(storyText), outputFilePerm)
	if err != nil {
		return "", fmt.Errorf(errWriteStory, outputPath, err)
	}

	return outputPath, nil
}

func nonSpaceCount(text string) int {
	count := 0

	for _, r := range text {
		if !unicode.IsSpace(r) {
			count++
		}
	}

	return count
}
