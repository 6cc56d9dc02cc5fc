package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := state.cfg.Encode()
			if err != nil {
				return err
			}

			source := state.basePath
			if source == "" {
				source = "(built-in defaults)"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# data directory: %s\n", state.cfg.Paths.DataDir)
			fmt.Fprintf(out, "# configuration: %s\n", source)
			fmt.Fprint(out, string(data))

			return nil
		},
	}
}
