package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/catch-backup/internal/backup"
	"github.com/pdiddy/catch-backup/internal/catch"
	"github.com/pdiddy/catch-backup/internal/credentials"
	"github.com/pdiddy/catch-backup/pkg/types"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultRetries    = 3
	defaultUserAgent  = "catch-backup/0.1"
	defaultSecretsDir = ".secrets/"
)

func init() {
	f := rootCmd.Flags()
	f.StringP("dir", "d", "", "output directory for media and one note per file dump")
	f.StringP("username", "u", "", "username to use")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
	f.Int("retries", defaultRetries, "retries for rate-limited or failed requests (0 disables)")
	f.Duration("media-delay", 0, "minimum delay between media downloads")
	f.Bool("skip-failed-media", false, "warn and continue when a media download fails")
	f.String("secrets-dir", defaultSecretsDir, "directory holding a catch-username file")
	f.String("base-url", catch.DefaultBaseURL, "notes API base URL")
	_ = f.MarkHidden("base-url")

	for key, name := range map[string]string{
		"dir":               "dir",
		"username":          "username",
		"timeout":           "timeout",
		"retries":           "retries",
		"media_delay":       "media-delay",
		"skip_failed_media": "skip-failed-media",
		"secrets_dir":       "secrets-dir",
		"base_url":          "base-url",
	} {
		mustBind(key, f.Lookup(name))
	}
}

// backupOptions is the resolved configuration of one backup run.
type backupOptions struct {
	File   string
	API    types.APIConfig
	Export types.ExportConfig
}

func backupOptionsFromViper() backupOptions {
	httpCfg := types.HTTPConfig{
		Timeout:    viper.GetDuration("timeout"),
		UserAgent:  defaultUserAgent,
		MaxRetries: viper.GetInt("retries"),
	}
	if httpCfg.MaxRetries <= 0 {
		httpCfg.MaxRetries = -1
	}
	return backupOptions{
		File: viper.GetString("file"),
		API: types.APIConfig{
			HTTPConfig: httpCfg,
			BaseURL:    viper.GetString("base_url"),
		},
		Export: types.ExportConfig{
			HTTPConfig:      httpCfg,
			Dir:             viper.GetString("dir"),
			MediaDelay:      viper.GetDuration("media_delay"),
			SkipFailedMedia: viper.GetBool("skip_failed_media"),
		},
	}
}

func runBackup(cmd *cobra.Command, args []string) error {
	username := viper.GetString("username")
	if username == "" {
		var err error
		username, err = credentials.LoadUsername(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
	}

	provider := &credentials.Terminal{
		Username: username,
		In:       cmd.InOrStdin(),
		Out:      cmd.OutOrStdout(),
	}
	return runPipeline(cmd.Context(), cmd.OutOrStdout(), provider, backupOptionsFromViper())
}

// runPipeline collects credentials, fetches the notes, writes the raw dump,
// and, when a directory is configured, the per-note export. Nothing is
// written unless the fetch succeeds, and the export does not run unless the
// dump succeeds.
func runPipeline(ctx context.Context, out io.Writer, provider credentials.Provider, opts backupOptions) error {
	if opts.File == "" {
		return backup.ErrFilenameRequired
	}

	creds, err := provider.Credentials(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Fetching notes...")
	snap, err := catch.NewClient(opts.API).FetchNotes(ctx, creds)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Writing notes to %s\n", opts.File)
	if err := backup.DumpRaw(opts.File, snap); err != nil {
		return err
	}
	fmt.Fprintln(out, "JSON Backup complete!")

	if opts.Export.Dir == "" {
		return nil
	}

	fmt.Fprintf(out, "Starting one-note-per-file and media dump. Output dir: %s\n", opts.Export.Dir)
	result, err := backup.NewExporter(opts.Export, out).Export(ctx, opts.Export.Dir, &snap.Collection)
	if err != nil {
		return err
	}
	if result.SkippedAttachments > 0 {
		fmt.Fprintf(out, "%d media attachment(s) could not be downloaded\n", result.SkippedAttachments)
	}
	fmt.Fprintln(out, "One-note-per-file and media dump complete")
	return nil
}
