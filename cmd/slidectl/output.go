package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"infographify/internal/slide"
)

// readInput reads a file, or stdin when path is "-".
func readInput(in io.Reader, path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(in)
		return string(raw), err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeOutput(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "", "table":
		return table(w)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func slideTable(list []slide.Record, detail func(slide.Record) string) func(io.Writer) error {
	return func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "POS\tINDEX\tTITLE\tSTATUS\tDETAIL")
		for pos, r := range list {
			fmt.Fprintf(tw, "%d\t%d/%d\t%s\t%s\t%s\n", pos, r.Index, r.Total, r.Title, r.Status, detail(r))
		}
		return tw.Flush()
	}
}
