// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/crawl"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>...",
	Short: "Fetch and clean pages without searching",
	Long: `Crawl fetches each URL with the configured renderer, extracts the
content regions, and prints the cleaned text and images. Pages whose text
does not exceed the minimum content length are reported as skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("renderer", "", "renderer override: browser or http")
	crawlCmd.Flags().Bool("json", false, "output the research bundle as JSON")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if r, _ := cmd.Flags().GetString("renderer"); r != "" {
		cfg.Crawl.Renderer = r
	}

	fetcher, release, err := newFetcher(cfg, logger())
	if err != nil {
		return err
	}
	defer release()

	notes, images := crawl.CrawlURLs(cmd.Context(), fetcher, args, len(args), crawl.OptionsFrom(cfg.Crawl, logger()))
	bundle := types.NewResearchBundle(notes, images)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	}

	fmt.Printf("%s (%d of %d pages kept)\n\n", bundle.Summary, len(bundle.Notes), len(args))
	for _, n := range bundle.Notes {
		fmt.Printf("=== %s (%d chars)\n%s\n\n", n.URL, utf8.RuneCountInString(n.Text), n.Text)
	}
	if len(bundle.Images) > 0 {
		fmt.Println("Images:")
		for _, img := range bundle.Images {
			fmt.Println(" ", img)
		}
	}
	return nil
}
