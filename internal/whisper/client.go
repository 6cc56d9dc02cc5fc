// Package whisper provides a transcription backend for OpenAI-compatible
// audio APIs, returning word-level timestamps.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/storypipe/internal/transcript"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the hosted OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Error messages.
const (
	errTranscriptionFailed = "transcription of %s failed: %w"
	logTranscribing        = "Transcribing %s with model %s (language: %s)"
	logTranscribed         = "Transcribed %s: %d segments, %d words, language %s"
)

var (
	// ErrAPIKeyNotSet is returned when the hosted API is used without a key.
	ErrAPIKeyNotSet = errors.New("API key not set for hosted transcription endpoint")
	// ErrAudioNotFound is returned when the audio path is not a regular file.
	ErrAudioNotFound = errors.New("audio file not found")
)

// Config selects the transcription endpoint and model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client transcribes audio through the go-openai client.
type Client struct {
	api   *openai.Client
	model string
	log   *logger.Logger
}

// NewClient creates a Client. Self-hosted endpoints may run without a key.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if cfg.APIKey == "" && baseURL == DefaultBaseURL {
		return nil, ErrAPIKeyNotSet
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL

	return &Client{
		api:   openai.NewClientWithConfig(clientCfg),
		model: model,
		log:   log,
	}, nil
}

// Transcribe implements transcript.Transcriber.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (*transcript.Transcription, error) {
	info, err := os.Stat(audioPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrAudioNotFound, audioPath)
	}

	request := openai.AudioRequest{
		Model:    c.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	}

	if language != "" && !strings.EqualFold(language, transcript.AutoLanguage) {
		request.Language = language
	}

	c.log.Info(logTranscribing, audioPath, c.model, displayLanguage(request.Language))

	response, err := c.api.CreateTranscription(ctx, request)
	if err != nil {
		return nil, fmt.Errorf(errTranscriptionFailed, audioPath, err)
	}

	result := toTranscription(response)
	c.log.Info(logTranscribed, audioPath, len(result.Segments), len(result.Words), result.Language)

	return result, nil
}

func toTranscription(response openai.AudioResponse) *transcript.Transcription {
	result := &transcript.Transcription{
		Language: response.Language,
		Segments: make([]transcript.Segment, 0, len(response.Segments)),
		Words:    make([]transcript.Word, 0, len(response.Words)),
	}

	for _, segment := range response.Segments {
		result.Segments = append(result.Segments, transcript.Segment{
			Text:  strings.TrimSpace(segment.Text),
			Start: segment.Start,
			End:   segment.End,
		})
	}

	for _, word := range response.Words {
		result.Words = append(result.Words, transcript.Word{
			Text:  strings.TrimSpace(word.Word),
			Start: word.Start,
			End:   word.End,
		})
	}

	return result
}

func displayLanguage(language string) string {
	if language == "" {
		return transcript.AutoLanguage
	}

	return language
}
