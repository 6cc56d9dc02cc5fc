// Package tts provides speech synthesis through a standalone TTS HTTP service.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// API endpoints and paths.
const (
	apiGenerateSpeech = "/v1/generate/speech"
	apiHealth         = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// Error messages.
const (
	errFmtUnexpectedContentType = "unexpected content type: expected audio/wav, got %s"
	errFmtServiceErrorWithCode  = "TTS service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus    = "TTS service returned non-OK status: %s, body: %s"
)

var (
	// ErrReceivedEmptyAudio is returned when the service answers with no audio bytes.
	ErrReceivedEmptyAudio = errors.New("received empty audio data")
	// ErrServiceUnhealthy is returned when the health endpoint does not answer 200.
	ErrServiceUnhealthy = errors.New("TTS service is unhealthy")
)

// HTTPClient is a client for the standalone TTS HTTP service.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// SpeechRequest is the JSON payload of a synthesis request.
type SpeechRequest struct {
	// Text is the input to speak. Must be non-empty.
	Text string `json:"text"`

	// AudioPromptPath optionally names a reference voice clip for cloning.
	AudioPromptPath string `json:"audio_prompt_path,omitempty"`

	Exaggeration float64 `json:"exaggeration"`
	CFGWeight    float64 `json:"cfg_weight"`
	Speed        float64 `json:"speed"`
	Device       string  `json:"device"`
}

// ErrorResponse is the structured error body returned by the service.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates a client for the service at baseURL, for example
// "http://localhost:8000". The timeout applies to every request.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateSpeech sends a synthesis request and returns the WAV bytes.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrTextEmpty
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateSpeech,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if !strings.HasPrefix(contentType, contentTypeWAV) {
		return nil, fmt.Errorf(errFmtUnexpectedContentType, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrReceivedEmptyAudio
	}

	return audioData, nil
}

// HealthCheck returns nil when the service health endpoint answers 200.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrServiceUnhealthy, resp.Status)
	}

	return nil
}

// parseErrorResponse decodes a structured error and falls back to the raw body.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errorResp ErrorResponse

	err := json.Unmarshal(body, &errorResp)
	if err == nil && errorResp.Detail != "" {
		return fmt.Errorf(errFmtServiceErrorWithCode, resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
}
