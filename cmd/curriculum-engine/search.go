// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/config"
	"github.com/pdiddy/curriculum-engine/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <topic>",
	Short: "Run only the search stage for a topic",
	Long: `Search queries Tavily for a topic the same way a pipeline run does
(qualified query, domain denylist, result cap) and prints the hits.
Unlike a pipeline run, provider errors are reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum number of results (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := config.Require(appCfg, true, false); err != nil {
		return err
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	adapter := newSearchAdapter(appCfg, logger())
	hits, err := adapter.SearchHits(cmd.Context(), strings.Join(args, " "), maxResults)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(hits, os.Stdout)
	}
	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	search.FormatTable(hits, os.Stdout)
	return nil
}
