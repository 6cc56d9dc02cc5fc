package main

import (
	"context"
	"fmt"
	"os"

	"github.com/book-expert/logger"
	"github.com/book-expert/storypipe/internal/config"
	"github.com/spf13/cobra"
)

const (
	flagConfig  = "config"
	flagDataDir = "data-dir"
	flagVerbose = "verbose"

	logFileName        = "storypipe.log"
	logFileNameVerbose = "storypipe-verbose.log"
)

// app carries the state shared by every subcommand once the root has
// resolved configuration and logging.
type app struct {
	configPath string
	dataDir    string
	verbose    bool

	cfg      *config.Config
	basePath string
	log      *logger.Logger
}

func newRootCmd() (*cobra.Command, *app) {
	state := &app{}

	rootCmd := &cobra.Command{
		Use:   "storypipe",
		Short: "storypipe: story extraction, speech synthesis and transcription tools",
		Long: `storypipe turns PDF and TXT books into clean story markdown, speaks
text through a TTS service, and transcribes audio into word and sentence
timing maps.

Usage:
  storypipe extract --pdf book.pdf --outdir ./out
  storypipe speak --text "Once upon a time" --out story.wav
  storypipe transcribe --audio story.wav --outdir ./out`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return state.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&state.configPath, flagConfig, "", "Path to a TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&state.dataDir, flagDataDir, "",
		"Shared data directory (defaults to $"+config.EnvDataDir+" or a Data folder near the executable)")
	rootCmd.PersistentFlags().BoolVarP(&state.verbose, flagVerbose, "v", false, "Verbose output")

	rootCmd.AddCommand(
		newExtractCmd(state),
		newSpeakCmd(state),
		newTranscribeCmd(state),
		newConfigCmd(state),
	)

	return rootCmd, state
}

// execute runs rootCmd and closes the log whether or not the command failed.
func execute(ctx context.Context, rootCmd *cobra.Command, state *app) error {
	defer state.close()

	return rootCmd.ExecuteContext(ctx)
}

// setup resolves the data directory, loads layered configuration and opens the log.
func (a *app) setup() error {
	if a.dataDir == "" {
		a.dataDir = config.ResolveDataDir()
	}

	cfg, basePath, err := config.LoadLayered(a.configPath, a.dataDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	name := logFileName
	if a.verbose {
		name = logFileNameVerbose
	}

	log, err := logger.New(cfg.Paths.BaseLogsDir, name)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.basePath = basePath
	a.log = log

	return nil
}

func (a *app) close() {
	if a.log == nil {
		return
	}

	closeErr := a.log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}

	a.log = nil
}
