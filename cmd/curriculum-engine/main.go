// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the curriculum-engine CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/config"
	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/internal/secrets"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appCfg is the resolved configuration, set before any subcommand runs.
	appCfg types.Config

	// appLog is the process logger, closed by execute once the command returns.
	appLog *logging.Logger
)

// rootCmd is the base command for the curriculum-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "curriculum-engine",
	Short: "Generate course curricula from live web research",
	Long: `curriculum-engine researches a topic on the web and turns what it finds
into a structured Markdown curriculum.

A run searches with Tavily, crawls and cleans the top pages, and asks Gemini
to write the curriculum. When Gemini is unavailable a local Ollama model
writes one from the topic alone; when both fail a placeholder is returned.

Each stage is also available on its own (search, crawl) for diagnosis.
Saved runs can be listed with history and written out with export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}

		secretsDir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(secretsDir, nil)
		if err != nil {
			return err
		}

		cfg, err := config.Load(viper.GetViper(), s)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appCfg = cfg

		appLog, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}
		if used := viper.ConfigFileUsed(); used != "" {
			appLog.Debug("config file loaded", zap.String("path", used))
		}
		if len(s) > 0 {
			appLog.Debug("secrets loaded", zap.Int("count", len(s)))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./curriculum-engine.yaml or ~/.config/curriculum-engine/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of API key files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "append-only JSON log file")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("curriculum-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "curriculum-engine"))
		}
	}

	config.Bind(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Reading config file:", err)
		}
	}
}

// logger returns the process logger for components.
func logger() *zap.Logger {
	if appLog == nil {
		return zap.NewNop()
	}
	return appLog.Logger
}

// execute runs the root command and closes the logger whether or not the
// command succeeded.
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if appLog != nil {
		if cerr := appLog.Close(); cerr != nil && err == nil {
			err = cerr
		}
		appLog = nil
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
