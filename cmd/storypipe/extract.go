package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/book-expert/storypipe/internal/convert"
	"github.com/spf13/cobra"
)

var (
	errEitherPDFOrTXT   = errors.New("either --pdf or --txt must be provided")
	errCannotGiveBoth   = errors.New("cannot specify both --pdf and --txt")
	errConversionFailed = errors.New("conversion failed")
)

func newExtractCmd(state *app) *cobra.Command {
	var pdfPath, txtPath, outputDir string

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the story from a PDF or TXT file into pdf_result.md",
		Long: `Extract reads a PDF text layer or a TXT file, strips boilerplate such as
credits, links and page numbers, keeps the narrative core and writes it to
<outdir>/pdf_result.md. The result envelope is printed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inputPath, err := pickInput(pdfPath, txtPath)
			if err != nil {
				return err
			}

			rules, err := state.cfg.RuleSet()
			if err != nil {
				return err
			}

			converter, err := convert.New(rules, nil, nil, state.log)
			if err != nil {
				return fmt.Errorf("failed to create converter: %w", err)
			}

			result := converter.ConvertFile(cmd.Context(), inputPath, outputDir)

			var data []byte
			if state.verbose {
				data, err = json.MarshalIndent(result, "", "  ")
			} else {
				data, err = json.Marshal(result)
			}

			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if !result.Success {
				return fmt.Errorf("%w: %s", errConversionFailed, result.Error)
			}

			return nil
		},
	}

	extractCmd.Flags().StringVar(&pdfPath, "pdf", "", "Path to the input PDF file")
	extractCmd.Flags().StringVar(&txtPath, "txt", "", "Path to the input TXT file")
	extractCmd.Flags().StringVar(&outputDir, "outdir", "", "Output directory for pdf_result.md")
	_ = extractCmd.MarkFlagRequired("outdir")

	return extractCmd
}

func pickInput(pdfPath, txtPath string) (string, error) {
	switch {
	case pdfPath == "" && txtPath == "":
		return "", errEitherPDFOrTXT
	case pdfPath != "" && txtPath != "":
		return "", errCannotGiveBoth
	case pdfPath != "":
		return pdfPath, nil
	default:
		return txtPath, nil
	}
}
