// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meshintel/incident-scout/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured document sources",
	Long: `Sources reads the sources YAML file and prints the configured feeds.
A non-zero exit means the file is missing or malformed, so the command
doubles as a configuration check.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadPipelineConfig()
		defs, err := source.LoadDefinitions(cfg.Sources.SourcesFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tURL")
		for _, d := range defs {
			fmt.Fprintf(w, "%s\t%s\n", d.Name, d.URL)
		}
		w.Flush()
		fmt.Fprintf(os.Stderr, "%d source(s) configured in %s\n", len(defs), cfg.Sources.SourcesFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
