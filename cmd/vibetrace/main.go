package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vibetrace/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "vibetrace",
	Short: "Correlate AI chat history with the commits it produced",
	Long: `vibetrace reads a chat export from an AI coding session, pulls the
repository's recent commit history and asks a model to link parts of the
conversation to the code changes they led to.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		setupLogging(os.Stderr, cfg.LogLevel)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, analyzeCmd, eventsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs the default JSON logger. Logs go to w, never stdout,
// which carries the analyze command's result.
func setupLogging(w io.Writer, level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
