// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pdiddy/curriculum-engine/internal/archive"
	"github.com/pdiddy/curriculum-engine/internal/outline"
	"github.com/pdiddy/curriculum-engine/internal/pipeline"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Research a topic and generate a curriculum",
	Long: `Generate runs the full pipeline for a topic: search, crawl, and
curriculum synthesis. The curriculum is printed as Markdown on stdout;
progress and warnings go to stderr.

Use --save to archive the run, --out to write it to a file (the format
follows the extension: .md, .yaml, or .json), and --render to format the
Markdown for the terminal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Bool("render", false, "render the Markdown for the terminal")
	generateCmd.Flags().Bool("json", false, "print the result as JSON")
	generateCmd.Flags().Bool("save", false, "save the run to the archive")
	generateCmd.Flags().String("out", "", "write the run to a file (.md, .yaml, or .json)")
	generateCmd.Flags().Bool("quiet", false, "hide the progress spinner")
	generateCmd.Flags().Bool("quality-gate", false, "retry research until it passes the quality gate")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("topic must not be empty")
	}

	cfg := appCfg
	if gate, _ := cmd.Flags().GetBool("quality-gate"); gate {
		cfg.Pipeline.QualityGate.Enabled = true
	}

	ctx := cmd.Context()
	ctrl, release, err := newController(ctx, cfg, logger())
	if err != nil {
		return err
	}
	defer release()

	quiet, _ := cmd.Flags().GetBool("quiet")
	var sp *spinner.Spinner
	if !quiet {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		sp.Suffix = fmt.Sprintf(" Researching %q...", topic)
		sp.Start()
	}
	st := ctrl.Invoke(ctx, topic)
	if sp != nil {
		sp.Stop()
	}

	for _, w := range outline.Inspect(st.Draft()).Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	if st.NeedsReview {
		fmt.Fprintln(os.Stderr, "warning: research stayed below the quality threshold, review before use")
	}

	run := archive.Run{CreatedAt: time.Now().UTC(), State: st}
	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := archive.NewStore(cfg.Archive, logger())
		if err != nil {
			return err
		}
		defer store.Close()
		if run, err = store.Save(ctx, st); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved run %s\n", run.ID)
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := writeRunFile(out, run); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	render, _ := cmd.Flags().GetBool("render")
	return printResult(st, asJSON, render)
}

// writeRunFile exports run to path in the format named by its extension.
func writeRunFile(path string, run archive.Run) error {
	format, err := archive.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := archive.Export(f, run, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printResult(st types.PipelineState, asJSON, render bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pipeline.ResultOf(st))
	}

	md := st.Draft()
	if render {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		if md, err = r.Render(md); err != nil {
			return fmt.Errorf("rendering curriculum: %w", err)
		}
	}
	fmt.Fprintln(os.Stdout, md)

	fmt.Fprintf(os.Stderr, "\nSources (generated by %s):\n", st.Curriculum.Source)
	for _, s := range st.Curriculum.SourcesLabel() {
		fmt.Fprintln(os.Stderr, " ", s)
	}
	return nil
}
