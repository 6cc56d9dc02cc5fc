package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/book-expert/storypipe/internal/transcript"
	"github.com/book-expert/storypipe/internal/whisper"
	"github.com/spf13/cobra"
)

var errAudioAndOutdirRequired = errors.New("--audio and --outdir are required")

type transcribeFlags struct {
	audio        string
	outdir       string
	language     string
	outputFormat string
	model        string
	printConfig  bool
}

// transcribeSummary is printed by --print-config.
type transcribeSummary struct {
	DataDir          string `json:"data_dir"`
	ConfigPath       string `json:"config_path"`
	Model            string `json:"model"`
	BaseURL          string `json:"base_url"`
	Language         string `json:"language"`
	ModelsDir        string `json:"models_dir"`
	SentenceMinWords int    `json:"sentence_min_words"`
}

func newTranscribeCmd(state *app) *cobra.Command {
	var flags transcribeFlags

	transcribeCmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe audio into word and sentence timing maps",
		Long: `Transcribe sends audio to an OpenAI-compatible transcription endpoint and
writes text_mappings.json, the optional word and sentence variants, and
transcription.json into --outdir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model := state.cfg.Transcribe.Model
			if flags.model != "" {
				model = flags.model
			}

			language := state.cfg.Transcribe.Language
			if cmd.Flags().Changed("language") || language == "" {
				language = flags.language
			}

			if flags.printConfig {
				summary := transcribeSummary{
					DataDir:          state.cfg.Paths.DataDir,
					ConfigPath:       state.basePath,
					Model:            model,
					BaseURL:          state.cfg.Transcribe.BaseURL,
					Language:         language,
					ModelsDir:        state.cfg.Transcribe.ModelsDir,
					SentenceMinWords: state.cfg.Transcribe.SentenceMinWords,
				}

				data, err := json.MarshalIndent(summary, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode configuration summary: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), string(data))

				return nil
			}

			if flags.audio == "" || flags.outdir == "" {
				return errAudioAndOutdirRequired
			}

			format, err := transcript.ParseOutputFormat(flags.outputFormat)
			if err != nil {
				return err
			}

			client, err := whisper.NewClient(whisper.Config{
				APIKey:  state.cfg.APIKey(),
				BaseURL: state.cfg.Transcribe.BaseURL,
				Model:   model,
			}, state.log)
			if err != nil {
				return err
			}

			return runTranscription(cmd, client, flags.audio, flags.outdir, language, format, state.cfg.Transcribe.SentenceMinWords)
		},
	}

	transcribeCmd.Flags().StringVar(&flags.audio, "audio", "", "Path to the input audio file")
	transcribeCmd.Flags().StringVar(&flags.outdir, "outdir", "", "Output directory for the mapping files")
	transcribeCmd.Flags().StringVar(&flags.language, "language", transcript.AutoLanguage, "Spoken language code, or auto to detect")
	transcribeCmd.Flags().StringVar(&flags.outputFormat, "output-format", string(transcript.FormatBoth), "Mappings to write: words, sentences or both")
	transcribeCmd.Flags().StringVar(&flags.model, "model", "", "Transcription model (overrides configuration)")
	transcribeCmd.Flags().BoolVar(&flags.printConfig, "print-config", false, "Print the resolved transcription settings and exit")

	return transcribeCmd
}

func runTranscription(
	cmd *cobra.Command,
	transcriber transcript.Transcriber,
	audioPath, outDir, language string,
	format transcript.OutputFormat,
	minWords int,
) error {
	result, err := transcriber.Transcribe(cmd.Context(), audioPath, language)
	if err != nil {
		return err
	}

	paths, err := transcript.WriteOutputs(outDir, format, result, minWords)
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}

	return nil
}
