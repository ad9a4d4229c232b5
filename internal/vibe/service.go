package vibe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/MikeSquared-Agency/vibetrace/internal/chat"
	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
	"github.com/MikeSquared-Agency/vibetrace/internal/correlate"
	"github.com/MikeSquared-Agency/vibetrace/internal/metrics"
)

// Config bounds a single run.
type Config struct {
	LookbackDays int
	CommitLimit  int
	RunTimeout   time.Duration
}

// Service runs the vibe-history pipeline: normalize the chat, filter it,
// fetch the commit window, correlate, then cache and announce the result.
type Service struct {
	source     commits.Source
	correlator *correlate.Correlator
	cache      Cache
	publisher  Publisher
	cfg        Config
	logger     *slog.Logger
	validate   *validator.Validate
	flights    singleflight.Group
	now        func() time.Time
}

// NewService wires the pipeline. cache and publisher may be nil.
func NewService(source commits.Source, correlator *correlate.Correlator, cache Cache, publisher Publisher, cfg Config, logger *slog.Logger) *Service {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 90
	}
	if cfg.CommitLimit <= 0 {
		cfg.CommitLimit = 100
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 5 * time.Minute
	}
	return &Service{
		source:     source,
		correlator: correlator,
		cache:      cache,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// Analyze returns the cached result for the request's key unless a refresh
// is forced, and otherwise runs the pipeline. Identical concurrent requests
// share one run.
func (s *Service) Analyze(ctx context.Context, req Request) (*Response, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newError(CodeInvalidRequest, "invalid vibe history request",
			"Provide an account id and a repository in owner/name form.", err)
	}

	if !req.ForceReanalyze {
		if cached := s.lookup(ctx, req.AccountID, req.Repository); cached != nil {
			metrics.RecordRun(metrics.OutcomeCacheHit)
			s.logger.Info("vibe history served from cache",
				"account_id", req.AccountID,
				"repo", req.Repository.String(),
			)
			return cached.response(true), nil
		}
	}

	ch := s.flights.DoChan(flightKey(req), func() (any, error) {
		return s.run(ctx, req)
	})
	select {
	case <-ctx.Done():
		return nil, s.abandoned(ctx)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("joined in-flight run", "repo", req.Repository.String())
		}
		return res.Val.(*CorrelationResult).response(false), nil
	}
}

// Cached returns the stored result for an account and repository, or nil
// when nothing has been analyzed yet.
func (s *Service) Cached(ctx context.Context, accountID string, repo commits.Repository) (*Response, error) {
	if s.cache == nil {
		return nil, nil
	}
	r, err := s.cache.GetCorrelation(ctx, accountID, repo)
	if err != nil {
		return nil, fmt.Errorf("read cached vibe history: %w", err)
	}
	if r == nil {
		return nil, nil
	}
	return r.response(true), nil
}

func (s *Service) lookup(ctx context.Context, accountID string, repo commits.Repository) *CorrelationResult {
	if s.cache == nil {
		return nil
	}
	r, err := s.cache.GetCorrelation(ctx, accountID, repo)
	if err != nil {
		s.logger.Warn("cache read failed, running analysis", "repo", repo.String(), "error", err)
		return nil
	}
	return r
}

// run executes one uncached pipeline pass. It is detached from the caller's
// cancellation so joined callers are not cut off when the first one leaves,
// and is bounded by the run timeout instead.
func (s *Service) run(ctx context.Context, req Request) (*CorrelationResult, error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	repo := req.Repository.String()
	log := s.logger.With("account_id", req.AccountID, "repo", repo)

	transcript, err := chat.Normalize(req.ChatFile, req.ChatFileName)
	if err != nil {
		return nil, s.fail(metrics.OutcomeParseFailure, newError(CodeParseFailure,
			"could not parse chat file",
			"Upload a chat export in one of these formats: "+strings.Join(chat.SupportedFormats(), ", ")+".",
			err))
	}

	relevant := chat.FilterRelevant(transcript.Messages)
	if len(relevant) == 0 {
		log.Warn("no code-relevant messages, using full transcript", "messages", len(transcript.Messages))
		relevant = transcript.Messages
	}

	since := s.now().AddDate(0, 0, -s.cfg.LookbackDays)
	list, err := s.source.ListRecentCommits(runCtx, req.Repository, req.InstallationRef, since, s.cfg.CommitLimit)
	if err != nil {
		if runCtx.Err() != nil {
			return nil, s.timeout(err)
		}
		return nil, s.fail(metrics.OutcomeCommitFetchFailure, newError(CodeCommitFetchFailure,
			"could not fetch commits for "+repo,
			"Check that the GitHub App is installed on the repository and can read its contents.",
			err))
	}
	code := commits.FilterCodeCommits(list)

	outcome, err := s.correlator.Correlate(runCtx, repo, relevant, code)
	if errors.Is(err, correlate.ErrNoCommits) {
		return nil, s.fail(metrics.OutcomeNoCommits, newError(CodeNoCommitsInWindow,
			fmt.Sprintf("no code commits in the last %d days", s.cfg.LookbackDays),
			"Push the changes made during the conversation, then analyze again.",
			nil))
	}
	if err != nil {
		metrics.RecordRun(metrics.OutcomeError)
		return nil, fmt.Errorf("correlate: %w", err)
	}
	if runCtx.Err() != nil {
		return nil, s.timeout(runCtx.Err())
	}

	result := &CorrelationResult{
		Repository:    req.Repository,
		AccountID:     req.AccountID,
		Links:         outcome.Links,
		TotalMessages: len(transcript.Messages),
		TotalCommits:  len(code),
		AnalyzedAt:    outcome.AnalyzedAt,
	}

	persisted := false
	if s.cache != nil {
		if err := s.cache.PutCorrelation(runCtx, result); err != nil {
			metrics.RecordCachePersistFailure()
			log.Error("failed to cache vibe history", "error", err)
		} else {
			persisted = true
		}
	}
	s.announce(result, persisted)

	metrics.RecordRun(metrics.OutcomeSuccess)
	metrics.RecordRunDuration(time.Since(start).Seconds())
	log.Info("vibe history analyzed",
		"format", transcript.Format,
		"messages", len(transcript.Messages),
		"relevant", len(relevant),
		"commits", len(list),
		"code_commits", len(code),
		"links", len(result.Links),
		"degraded", outcome.Degraded,
		"duration", time.Since(start),
	)
	return result, nil
}

// announce publishes the analyzed event. cached reports whether the result
// was written to the cache.
func (s *Service) announce(r *CorrelationResult, cached bool) {
	if s.publisher == nil {
		return
	}
	ev := AnalyzedEvent{
		RunID:         uuid.New().String(),
		AccountID:     r.AccountID,
		Repository:    r.Repository.String(),
		Links:         len(r.Links),
		TotalMessages: r.TotalMessages,
		TotalCommits:  r.TotalCommits,
		AnalyzedAt:    r.AnalyzedAt,
		Cached:        cached,
	}
	if err := s.publisher.Publish(SubjectAnalyzed, ev); err != nil {
		s.logger.Warn("failed to publish analyzed event", "repo", ev.Repository, "error", err)
	}
}

func (s *Service) fail(outcome string, err *Error) error {
	metrics.RecordRun(outcome)
	s.logger.Warn("vibe history run failed", "code", err.Code, "error", err)
	return err
}

func (s *Service) timeout(cause error) error {
	return s.fail(metrics.OutcomeTimeout, newError(CodeTimeout,
		fmt.Sprintf("analysis did not finish within %s", s.cfg.RunTimeout),
		"Try again with a shorter chat export.",
		cause))
}

// abandoned classifies a caller that stopped waiting on a run. No outcome is
// recorded since the detached run reports its own.
func (s *Service) abandoned(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(CodeTimeout, "request deadline passed before the analysis finished",
			"The analysis continues in the background; fetch the result with GET.", ctx.Err())
	}
	return newError(CodeCanceled, "request canceled before the analysis finished",
		"The analysis continues in the background; fetch the result with GET.", ctx.Err())
}

func flightKey(req Request) string {
	sum := sha256.Sum256(req.ChatFile)
	return fmt.Sprintf("%s|%s|%s|%t", req.AccountID, req.Repository.String(), hex.EncodeToString(sum[:]), req.ForceReanalyze)
}
