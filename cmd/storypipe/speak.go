package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/storypipe/internal/config"
	"github.com/book-expert/storypipe/internal/tts"
	"github.com/spf13/cobra"
)

var (
	errNoSpeechInput     = errors.New("no input text provided, use --text, --text-file or --chunks")
	errTooManyInputs     = errors.New("use only one of --text, --text-file and --chunks")
	errOutputPathMissing = errors.New("--out is required")
)

const (
	logSpeaking         = "Synthesizing %d characters to %s"
	logProcessingChunks = "Processing chunks from %s into %s"
)

type speakFlags struct {
	text         string
	textFile     string
	chunks       string
	out          string
	prompt       string
	exaggeration float64
	cfgWeight    float64
	speed        float64
	device       string
	health       bool
}

func newSpeakCmd(state *app) *cobra.Command {
	var flags speakFlags

	speakCmd := &cobra.Command{
		Use:   "speak",
		Short: "Synthesize speech through the TTS service",
		Long: `Speak sends text to the TTS service and writes WAV audio. With --chunks, a
JSON array of strings is spoken into <out>/chunk_0001.wav and onwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine := tts.NewEngine(state.cfg.TTS, state.log)

			if flags.health {
				err := engine.HealthCheck(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "TTS service is healthy")

				return nil
			}

			opts := speakOptions(cmd, state.cfg.TTS, flags)

			if flags.out == "" {
				return errOutputPathMissing
			}

			if flags.chunks != "" {
				if flags.text != "" || flags.textFile != "" {
					return errTooManyInputs
				}

				state.log.Info(logProcessingChunks, flags.chunks, flags.out)

				err := engine.ProcessChunks(cmd.Context(), flags.chunks, flags.out, opts)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), flags.out)

				return nil
			}

			text, err := speechText(flags)
			if err != nil {
				return err
			}

			state.log.Info(logSpeaking, len([]rune(text)), flags.out)

			written, err := engine.Synthesize(cmd.Context(), text, flags.out, opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), written)

			return nil
		},
	}

	speakCmd.Flags().StringVar(&flags.text, "text", "", "Text to speak")
	speakCmd.Flags().StringVar(&flags.textFile, "text-file", "", "Path to a UTF-8 text file to speak")
	speakCmd.Flags().StringVar(&flags.chunks, "chunks", "", "JSON file containing an array of text chunks")
	speakCmd.Flags().StringVar(&flags.out, "out", "", "Output WAV path, or output directory with --chunks")
	speakCmd.Flags().StringVar(&flags.prompt, "prompt", "", "Reference voice clip, relative paths resolve under the prompt directory")
	speakCmd.Flags().Float64Var(&flags.exaggeration, "exaggeration", tts.DefaultExaggeration, "Emotion exaggeration (0 to 2)")
	speakCmd.Flags().Float64Var(&flags.cfgWeight, "cfg-weight", tts.DefaultCFGWeight, "Classifier-free guidance weight (0 to 2)")
	speakCmd.Flags().Float64Var(&flags.speed, "speed", tts.DefaultSpeed, "Speech speed multiplier (0.5 to 2.0)")
	speakCmd.Flags().StringVar(&flags.device, "device", tts.DefaultDevice, "Compute device: cpu, cuda or mps")
	speakCmd.Flags().BoolVar(&flags.health, "health", false, "Check TTS service health and exit")

	return speakCmd
}

// speakOptions starts from the configured defaults and applies only the
// flags given on the command line.
func speakOptions(cmd *cobra.Command, cfg config.TTSConfig, flags speakFlags) tts.Options {
	opts := tts.DefaultOptions()
	opts.Exaggeration = cfg.Exaggeration
	opts.CFGWeight = cfg.CFGWeight
	opts.Device = cfg.Device

	if cmd.Flags().Changed("exaggeration") {
		opts.Exaggeration = flags.exaggeration
	}

	if cmd.Flags().Changed("cfg-weight") {
		opts.CFGWeight = flags.cfgWeight
	}

	if cmd.Flags().Changed("speed") {
		opts.Speed = flags.speed
	}

	if cmd.Flags().Changed("device") {
		opts.Device = flags.device
	}

	if flags.prompt != "" {
		opts.PromptPath = resolvePrompt(cfg.PromptDir, flags.prompt)
	}

	return opts
}

// resolvePrompt keeps absolute and existing paths and otherwise looks the
// prompt up in promptDir.
func resolvePrompt(promptDir, prompt string) string {
	if filepath.IsAbs(prompt) || promptDir == "" {
		return prompt
	}

	_, err := os.Stat(prompt)
	if err == nil {
		return prompt
	}

	return config.ResolveUnder(promptDir, prompt)
}

func speechText(flags speakFlags) (string, error) {
	if flags.text != "" && flags.textFile != "" {
		return "", errTooManyInputs
	}

	if flags.text != "" {
		return flags.text, nil
	}

	if flags.textFile == "" {
		return "", errNoSpeechInput
	}

	data, err := os.ReadFile(filepath.Clean(flags.textFile))
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}

	if len(data) == 0 {
		return "", errNoSpeechInput
	}

	return string(data), nil
}
