package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"reviewsync/internal/adapters/observability"
	"reviewsync/internal/shared"
)

// errFailed marks a run that completed but left at least one business failed.
// The summary already explains it, so it is not printed again.
var errFailed = errors.New("one or more businesses failed")

var (
	cfg         shared.Config
	logFile     string
	logLevel    string
	metricsAddr string

	logSink io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "reviewsync",
	Short:         "reviewsync fetches HelloPeter reviews and statistics into a local store.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = shared.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		var extra []io.Writer
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			logSink = f
			extra = append(extra, f)
		}
		log.Logger = observability.NewLoggerTo(os.Stderr, cfg.AppEnv, cfg.LogLevel, extra...)

		observability.Serve(metricsAddr, observability.InitRegistry())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error). Overrides LOG_LEVEL.")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running.")
}

func closeLog() {
	if logSink != nil {
		_ = logSink.Close()
		logSink = nil
	}
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	closeLog()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailed):
		return 1
	default:
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
}
