package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/vibetrace/internal/anthropic"
	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
	"github.com/MikeSquared-Agency/vibetrace/internal/correlate"
	"github.com/MikeSquared-Agency/vibetrace/internal/gitlog"
	"github.com/MikeSquared-Agency/vibetrace/internal/vibe"
)

var (
	chatPath  string
	repoPath  string
	sinceDays int
	limit     int
	timeout   time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Correlate a chat export with a local git checkout",
	Long: `analyze runs the vibe history pipeline against a local repository and
prints the links as JSON. Nothing is cached or published.`,
	Example: `  vibetrace analyze --chat session.jsonl --repo ~/src/api
  vibetrace analyze --chat conversations.json --repo . --since-days 14 --limit 30`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&chatPath, "chat", "", "path to the chat export")
	analyzeCmd.Flags().StringVar(&repoPath, "repo", ".", "path to the git checkout")
	analyzeCmd.Flags().IntVar(&sinceDays, "since-days", 0, "lookback window in days (default VIBETRACE_LOOKBACK_DAYS)")
	analyzeCmd.Flags().IntVar(&limit, "limit", 0, "maximum commits to consider (default VIBETRACE_COMMIT_LIMIT)")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 0, "run timeout (default VIBETRACE_RUN_TIMEOUT)")
	_ = analyzeCmd.MarkFlagRequired("chat")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	data, err := os.ReadFile(chatPath)
	if err != nil {
		return fmt.Errorf("read chat file: %w", err)
	}
	dir, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("resolve repo path: %w", err)
	}

	var oracle correlate.Oracle
	if cfg.AnthropicAPIKey != "" {
		oracle = anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, logger)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, links will be empty")
	}

	vcfg := vibe.Config{
		LookbackDays: cfg.LookbackDays,
		CommitLimit:  cfg.CommitLimit,
		RunTimeout:   cfg.RunTimeout,
	}
	if sinceDays > 0 {
		vcfg.LookbackDays = sinceDays
	}
	if limit > 0 {
		vcfg.CommitLimit = limit
	}
	if timeout > 0 {
		vcfg.RunTimeout = timeout
	}

	svc := vibe.NewService(gitlog.New(dir, logger), correlate.New(oracle, logger), nil, nil, vcfg, logger)
	resp, err := svc.Analyze(cmd.Context(), vibe.Request{
		AccountID:      "local",
		Repository:     commits.Repository{Owner: "local", Name: filepath.Base(dir)},
		ChatFile:       data,
		ChatFileName:   filepath.Base(chatPath),
		ForceReanalyze: true,
	})
	if err != nil {
		var vErr *vibe.Error
		if errors.As(err, &vErr) && vErr.Hint != "" {
			return fmt.Errorf("%w\nhint: %s", err, vErr.Hint)
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
