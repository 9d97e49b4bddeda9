// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/archive"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export an archived run",
	Long: `Export writes an archived run as Markdown with YAML frontmatter (md),
or the full run as YAML or JSON. Output goes to stdout unless --out is set,
in which case the format follows the file extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "md", "output format: md, yaml, or json")
	exportCmd.Flags().String("out", "", "write to a file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := archive.NewStore(appCfg.Archive, logger())
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := writeRunFile(out, run); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
		return nil
	}

	name, _ := cmd.Flags().GetString("format")
	format, err := archive.ParseFormat(name)
	if err != nil {
		return err
	}
	return archive.Export(os.Stdout, run, format)
}
