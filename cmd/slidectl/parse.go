package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"infographify/internal/slide"
)

func newParseCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Show how a script splits into slides",
		Long:  "Parse a slide script (\"-\" reads stdin) and print the recognized slides.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			slides := slide.Parse(text)
			return writeOutput(cmd.OutOrStdout(), output, slides, slideTable(slides, func(r slide.Record) string {
				return fmt.Sprintf("%d bytes", len(r.RawContent))
			}))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}
