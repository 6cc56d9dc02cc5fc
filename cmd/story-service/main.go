// main package for the story-service, a NATS worker that extracts stories
// from uploaded documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/storypipe/internal/config"
	"github.com/book-expert/storypipe/internal/convert"
	"github.com/book-expert/storypipe/internal/objectstore"
	"github.com/book-expert/storypipe/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run(ctx context.Context) error {
	// 1. Bootstrap logger until the configured log directory is known.
	bootstrapLog, err := setupLogger(os.TempDir(), "story-service-bootstrap.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Configuration from the central configurator.
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Final logger.
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, "story-service.log")
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	rules, err := cfg.RuleSet()
	if err != nil {
		finalLog.Error("Invalid extraction rules: %v", err)

		return err
	}

	converter, err := convert.New(rules, nil, nil, finalLog)
	if err != nil {
		return fmt.Errorf("failed to create converter: %w", err)
	}

	// 4. NATS, JetStream and the object store buckets.
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		finalLog.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	documents, err := objectstore.New(jetstreamContext, cfg.NATS.DocumentsBucket)
	if err != nil {
		return err
	}

	stories, err := objectstore.New(jetstreamContext, cfg.NATS.StoriesBucket)
	if err != nil {
		return err
	}

	storyWorker, err := worker.NewNatsWorker(natsConnection, cfg.NATS.ExtractSubject, documents, stories, converter, finalLog)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	// 5. Serve until interrupted.
	finalLog.System("Story-Service initialized. Listening for jobs on subject: %s", cfg.NATS.ExtractSubject)

	err = storyWorker.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		finalLog.Error("Worker stopped with error: %v", err)

		return err
	}

	finalLog.System("Story-Service stopped.")

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
