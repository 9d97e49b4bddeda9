// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "List archived runs",
	Long: `History lists runs saved with generate --save or through the web UI,
newest first. An optional query filters by topic or curriculum text.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := archive.NewStore(appCfg.Archive, logger())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), archive.ListOptions{
		Query: strings.Join(args, " "),
		Limit: limit,
	})
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-9s  %-8s  %s\n", "ID", "Created", "Stage", "Source", "Topic")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		topic := r.Topic
		if r.NeedsReview {
			topic += " (needs review)"
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-9s  %-8s  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Stage, r.Source, topic)
	}
	return nil
}
