package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// setupLogging installs the default slog logger on stderr. Progress output
// stays on stdout; slog carries diagnostics only.
func setupLogging(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	slog.SetDefault(newLogger(os.Stderr, level))

	if configFileUsed != "" {
		slog.Info("using config file", "path", configFileUsed)
	}
	return nil
}

func newLogger(f *os.File, level slog.Level) *slog.Logger {
	var w io.Writer = f
	noColor := !isatty.IsTerminal(f.Fd())
	if !noColor {
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
