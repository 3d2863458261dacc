// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the catch-backup CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command. Run without a subcommand it performs the
// backup.
var rootCmd = &cobra.Command{
	Use:   "catch-backup",
	Short: "Back up notes and media from a Catch account to local disk",
	Long: `catch-backup fetches every note of a Catch account and writes the API
response unchanged to a JSON file. With --dir it also writes one text file
per note and downloads each note's media attachments.

The password is always prompted for and never echoed. The username may be
given with --username, in the config file, or in .secrets/catch-username.

Subcommands index a JSON backup into a local SQLite database and search it.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setupLogging,
	RunE:              runBackup,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./catch-backup.yaml or ~/.config/catch-backup/config.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.StringP("file", "f", "notes.json", "JSON data file to write")
	pf.String("db", "notes.db", "SQLite notes index")

	mustBind("log_level", pf.Lookup("log-level"))
	mustBind("file", pf.Lookup("file"))
	mustBind("db", pf.Lookup("db"))
}

// configFileUsed is set by initConfig and reported once logging is ready.
var configFileUsed string

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("catch-backup")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "catch-backup"))
		}
	}

	viper.SetEnvPrefix("CATCH_BACKUP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		configFileUsed = viper.ConfigFileUsed()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Debug("run failed", "err", err)
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
