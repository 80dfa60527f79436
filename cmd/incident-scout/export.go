// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/incident-scout/internal/archive"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived events as CSV",
	Long: `Export writes archived events to CSV. With --session only that session's
events are exported; otherwise the whole archive is. Archiving must be
enabled (archive.path in the config) for there to be anything to export.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("session", "", "restrict export to one session id")
	exportCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig()
	if cfg.Archive.Path == "" {
		return fmt.Errorf("archiving is disabled: set archive.path in the config")
	}

	store, err := archive.NewStore(cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	var out io.Writer = os.Stdout
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	sessionID, _ := cmd.Flags().GetString("session")
	return store.ExportCSV(out, sessionID)
}
