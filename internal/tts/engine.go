package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/storypipe/internal/config"
)

const (
	// HealthCheckTimeout bounds the health probe made before batch work.
	HealthCheckTimeout = 10 * time.Second

	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Static errors.
var (
	ErrChunksPathEmpty = errors.New("chunks path cannot be empty")
	ErrOutputDirEmpty  = errors.New("output directory cannot be empty")
	ErrTextEmpty       = errors.New("text cannot be empty")
	ErrOutputPathEmpty = errors.New("output path cannot be empty")
	ErrNoChunksFound   = errors.New("no chunks found")
)

const (
	errFmtHealthCheckFailed     = "TTS service health check failed: %w"
	errFmtChunkFailed           = "chunk %d failed: %w"
	logFmtServiceHealthy        = "TTS service is healthy, processing %d chunks"
	logFmtGeneratedAudio        = "Generated audio: %s (%d bytes)"
	logFmtChunkProcessingFailed = "Failed to process chunk %d: %v"
	logFmtChunkProcessed        = "Processed chunk %d/%d"
	outputFileFormat            = "chunk_%04d.wav"
)

// Engine drives synthesis of single texts and chunk batches against the
// TTS service.
type Engine struct {
	client  *HTTPClient
	timeout time.Duration
	workers int
	logger  *logger.Logger
}

// NewEngine creates an Engine for the service described by cfg.
func NewEngine(cfg config.TTSConfig, log *logger.Logger) *Engine {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	return NewEngineWithClient(cfg, log, NewHTTPClient(cfg.ServiceURL, timeout))
}

// NewEngineWithClient creates an Engine that uses client for all requests.
func NewEngineWithClient(cfg config.TTSConfig, log *logger.Logger, client *HTTPClient) *Engine {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Engine{
		client:  client,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		workers: workers,
		logger:  log,
	}
}

// HealthCheck probes the service with HealthCheckTimeout.
func (e *Engine) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	healthErr := e.client.HealthCheck(ctx)
	if healthErr != nil {
		return fmt.Errorf(errFmtHealthCheckFailed, healthErr)
	}

	return nil
}

// Synthesize speaks text into a WAV file at outputPath, creating parent
// directories, and returns the absolute path of the written file.
func (e *Engine) Synthesize(ctx context.Context, text, outputPath string, opts Options) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrTextEmpty
	}

	if outputPath == "" {
		return "", ErrOutputPathEmpty
	}

	optsErr := opts.Validate()
	if optsErr != nil {
		return "", optsErr
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path %s: %w", outputPath, err)
	}

	dirErr := os.MkdirAll(filepath.Dir(absPath), dirPermissions)
	if dirErr != nil {
		return "", fmt.Errorf("failed to create output directory: %w", dirErr)
	}

	audioData, genErr := e.generateSpeechAudio(ctx, text, opts)
	if genErr != nil {
		return "", genErr
	}

	writeErr := os.WriteFile(absPath, audioData, filePermissions)
	if writeErr != nil {
		return "", fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	e.logger.Info(logFmtGeneratedAudio, absPath, len(audioData))

	return absPath, nil
}

// ProcessChunks reads a JSON array of strings from chunksPath and writes
// chunk_0001.wav, chunk_0002.wav, ... into outputDir. The service health is
// checked first. A failing chunk does not stop the others; all chunk errors
// are returned joined.
func (e *Engine) ProcessChunks(ctx context.Context, chunksPath, outputDir string, opts Options) error {
	if chunksPath == "" {
		return ErrChunksPathEmpty
	}

	if outputDir == "" {
		return ErrOutputDirEmpty
	}

	optsErr := opts.Validate()
	if optsErr != nil {
		return optsErr
	}

	chunks, readErr := readChunksFile(chunksPath)
	if readErr != nil {
		return fmt.Errorf("failed to read chunks: %w", readErr)
	}

	dirErr := os.MkdirAll(outputDir, dirPermissions)
	if dirErr != nil {
		return fmt.Errorf("failed to create output directory: %w", dirErr)
	}

	healthErr := e.HealthCheck(ctx)
	if healthErr != nil {
		return healthErr
	}

	e.logger.Info(logFmtServiceHealthy, len(chunks))

	return e.processChunksParallel(ctx, chunks, outputDir, opts)
}

func (e *Engine) generateSpeechAudio(ctx context.Context, text string, opts Options) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	audioData, speechErr := e.client.GenerateSpeech(ctx, opts.request(text))
	if speechErr != nil {
		return nil, fmt.Errorf("failed to generate speech: %w", speechErr)
	}

	return audioData, nil
}

// processChunksParallel bounds concurrency with a semaphore of e.workers slots.
func (e *Engine) processChunksParallel(ctx context.Context, chunks []string, outputDir string, opts Options) error {
	var (
		waitGroup sync.WaitGroup
		mutex     sync.Mutex
		chunkErrs []error
	)

	workerPool := make(chan struct{}, e.workers)

	for chunkIndex, chunk := range chunks {
		waitGroup.Add(1)

		go func(index int, text string) {
			defer waitGroup.Done()

			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			outputPath := filepath.Join(outputDir, fmt.Sprintf(outputFileFormat, index+1))

			_, err := e.Synthesize(ctx, text, outputPath, opts)
			if err != nil {
				mutex.Lock()
				chunkErrs = append(chunkErrs, fmt.Errorf(errFmtChunkFailed, index+1, err))
				mutex.Unlock()

				e.logger.Error(logFmtChunkProcessingFailed, index+1, err)

				return
			}

			e.logger.Info(logFmtChunkProcessed, index+1, len(chunks))
		}(chunkIndex, chunk)
	}

	waitGroup.Wait()

	return errors.Join(chunkErrs...)
}

// readChunksFile parses a JSON array of text chunks.
func readChunksFile(chunksPath string) ([]string, error) {
	data, err := os.ReadFile(filepath.Clean(chunksPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var chunks []string

	err = json.Unmarshal(data, &chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chunks JSON: %w", err)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoChunksFound, chunksPath)
	}

	return chunks, nil
}
