package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/settings"
)

type rootFlags struct {
	logLevel  string
	logFormat string
	envFiles  []string
}

func newRootCmd() *cobra.Command {
	var rf rootFlags

	cmd := &cobra.Command{
		Use:          "matdisco",
		Short:        "Discover novel, high-value materials by iterative dataset augmentation",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return settings.LoadEnv(rf.envFiles...)
		},
	}

	cmd.PersistentFlags().StringVar(&rf.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&rf.logFormat, "log-format", "text", "log format (text, json)")
	cmd.PersistentFlags().StringSliceVar(&rf.envFiles, "env-file", []string{".env"}, "dotenv files to load; missing files are skipped")

	cmd.AddCommand(newRunCmd(&rf), newServeCmd(&rf))
	return cmd
}

func (rf *rootFlags) logger() (*matdisco.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(rf.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", rf.logLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(rf.logFormat) {
	case "text":
		return matdisco.NewLogger(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return matdisco.NewLogger(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", rf.logFormat)
	}
}
