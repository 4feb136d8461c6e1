package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var docsJSON bool

type docInfo struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Chars int    `json:"chars"`
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List the documents in the knowledge base index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		docs := a.svc.Documents()
		out := cmd.OutOrStdout()

		if docsJSON {
			infos := make([]docInfo, len(docs))
			for i, d := range docs {
				infos[i] = docInfo{ID: d.ID, Path: d.Path, Chars: len(d.Content)}
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(infos)
		}

		if len(docs) == 0 {
			fmt.Fprintf(out, "No documents indexed from %s\n", cfg.Corpus.Dir)
			return nil
		}
		for _, d := range docs {
			fmt.Fprintf(out, "%s\t%s\t%d chars\n", d.ID, d.Path, len(d.Content))
		}
		if a.summary != "" {
			fmt.Fprintf(out, "\nOverview: %s\n", a.summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.Flags().BoolVar(&docsJSON, "json", false, "Output in JSON format")
}
