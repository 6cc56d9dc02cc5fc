// Package worker provides a NATS worker that extracts stories from stored documents.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/storypipe/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	handleMessageTimeout = 2 * time.Minute
	storyKeyExtension    = ".md"
	workDirPattern       = "storypipe-job-*"
	outputDirName        = "out"
)

const (
	logFmtParseFailed     = "Failed to parse extract event: %v"
	logFmtJobFailed       = "Story extraction failed for workflow %s: %v"
	logFmtJobDone         = "Extracted story %s (%d characters) for workflow %s"
	logFmtReplyFailed     = "Failed to publish reply event for workflow %s: %v"
	logFmtCleanupFailed   = "Failed to remove work directory %s: %v"
	errFmtDownloadFailed  = "failed to download document '%s': %w"
	errFmtUploadFailed    = "failed to upload '%s': %w"
	errFmtConversionError = "%w: %s"
	errFmtOrphanedCover   = "%w (cover already stored as '%s')"
)

var (
	// ErrSubjectEmpty indicates the worker was configured without a subject.
	ErrSubjectEmpty = errors.New("subject cannot be empty")
	// ErrDocumentKeyEmpty indicates an event without a document key.
	ErrDocumentKeyEmpty = errors.New("document key cannot be empty")
	// ErrFileNameEmpty indicates an event without a usable file name.
	ErrFileNameEmpty = errors.New("file name cannot be empty")
	// ErrConversionFailed wraps the error reported by the converter.
	ErrConversionFailed = errors.New("conversion failed")
)

// NatsWorker listens for extraction requests on a NATS subject and answers
// each with a StoryExtractedEvent.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	documents      core.ObjectStore
	stories        core.ObjectStore
	converter      core.FileConverter
	log            *logger.Logger
}

// NewNatsWorker creates a worker reading documents from documents and
// writing stories and covers to stories.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	documents core.ObjectStore,
	stories core.ObjectStore,
	converter core.FileConverter,
	log *logger.Logger,
) (*NatsWorker, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		documents:      documents,
		stories:        stories,
		converter:      converter,
		log:            log,
	}, nil
}

// Run subscribes and blocks until ctx is cancelled, then drains the subscription.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := parseEvent(msg.Data)
	if err != nil {
		w.log.Error(logFmtParseFailed, err)

		return
	}

	reply := &StoryExtractedEvent{Header: event.Header}

	result, jobErr := w.processExtractJob(ctx, event)
	if jobErr != nil {
		w.log.Error(logFmtJobFailed, event.Header.WorkflowID, jobErr)
		reply.Error = jobErr.Error()
	} else {
		*reply = result
		reply.Header = event.Header

		w.log.Info(logFmtJobDone, reply.StoryKey, reply.TextLength, event.Header.WorkflowID)
	}

	err = publishReplyEvent(msg, reply)
	if err != nil {
		w.log.Error(logFmtReplyFailed, event.Header.WorkflowID, err)
	}
}

// processExtractJob downloads the document, converts it in a private work
// directory and uploads the story, plus the cover when one was written.
func (w *NatsWorker) processExtractJob(ctx context.Context, event *ExtractRequestedEvent) (StoryExtractedEvent, error) {
	var result StoryExtractedEvent

	err := validateEvent(event)
	if err != nil {
		return result, err
	}

	document, err := w.documents.Download(ctx, event.DocumentKey)
	if err != nil {
		return result, fmt.Errorf(errFmtDownloadFailed, event.DocumentKey, err)
	}

	workDir, err := os.MkdirTemp("", workDirPattern)
	if err != nil {
		return result, fmt.Errorf("failed to create work directory: %w", err)
	}

	defer func() {
		removeErr := os.RemoveAll(workDir)
		if removeErr != nil {
			w.log.Warn(logFmtCleanupFailed, workDir, removeErr)
		}
	}()

	inputPath := filepath.Join(workDir, filepath.Base(event.FileName))

	err = os.WriteFile(inputPath, document, 0o600)
	if err != nil {
		return result, fmt.Errorf("failed to stage document: %w", err)
	}

	outputDir := filepath.Join(workDir, outputDirName)

	conversion := w.converter.ConvertFile(ctx, inputPath, outputDir)
	if !conversion.Success {
		return result, fmt.Errorf(errFmtConversionError, ErrConversionFailed, conversion.Error)
	}

	// A story key in the bucket always has its cover stored.
	if conversion.CoverFilename != "" {
		coverKey := uuid.NewString() + filepath.Ext(conversion.CoverFilename)

		err = w.uploadFile(ctx, coverKey, filepath.Join(outputDir, conversion.CoverFilename))
		if err != nil {
			return result, err
		}

		result.CoverKey = coverKey
	}

	storyKey := uuid.NewString() + storyKeyExtension

	err = w.uploadFile(ctx, storyKey, conversion.OutputPath)
	if err != nil {
		if result.CoverKey != "" {
			return StoryExtractedEvent{}, fmt.Errorf(errFmtOrphanedCover, err, result.CoverKey)
		}

		return StoryExtractedEvent{}, err
	}

	result.StoryKey = storyKey
	result.TextLength = conversion.TextLength

	return result, nil
}

func (w *NatsWorker) uploadFile(ctx context.Context, key, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	err = w.stories.Upload(ctx, key, data)
	if err != nil {
		return fmt.Errorf(errFmtUploadFailed, key, err)
	}

	return nil
}

func publishReplyEvent(msg *nats.Msg, replyEvent *StoryExtractedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseEvent(data []byte) (*ExtractRequestedEvent, error) {
	var event ExtractRequestedEvent

	err := json.Unmarshal(data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return &event, nil
}

// validateEvent rejects events without a document key or file name and
// reduces the file name to its base so it cannot escape the work directory.
func validateEvent(event *ExtractRequestedEvent) error {
	if event.DocumentKey == "" {
		return ErrDocumentKeyEmpty
	}

	name := filepath.Base(strings.TrimSpace(event.FileName))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ErrFileNameEmpty
	}

	event.FileName = name

	return nil
}
