// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/curriculum-engine/internal/archive"
	"github.com/pdiddy/curriculum-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI and JSON API",
	Long: `Serve starts an HTTP server with a topic form at / and a JSON API under
/api/curricula. Every run is saved to the archive unless --no-archive is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("no-archive", false, "do not save runs")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ctrl, release, err := newController(ctx, appCfg, logger())
	if err != nil {
		return err
	}
	defer release()

	var store server.Archive
	if off, _ := cmd.Flags().GetBool("no-archive"); !off {
		s, err := archive.NewStore(appCfg.Archive, logger())
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	return server.New(ctrl, store, logger()).ListenAndServe(ctx, appCfg.Server.Addr)
}
