package vibe

import (
	"context"
	"time"

	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
	"github.com/MikeSquared-Agency/vibetrace/internal/correlate"
)

// Request is one vibe-history call. Account and installation context are
// passed explicitly rather than read from request state.
type Request struct {
	AccountID       string `validate:"required,max=200"`
	Repository      commits.Repository
	InstallationRef string
	ChatFile        []byte
	ChatFileName    string
	ForceReanalyze  bool
}

// Response is the caller-facing result of a run or cache hit.
type Response struct {
	Links         []correlate.VibeLink `json:"links"`
	TotalMessages int                  `json:"totalMessages"`
	TotalCommits  int                  `json:"totalCommits"`
	AnalyzedAt    time.Time            `json:"analyzedAt"`
	FromCache     bool                 `json:"fromCache"`
}

// CorrelationResult is the unit of caching: at most one per account and
// repository, replaced wholesale on every successful run.
type CorrelationResult struct {
	Repository    commits.Repository
	AccountID     string
	Links         []correlate.VibeLink
	TotalMessages int
	TotalCommits  int
	AnalyzedAt    time.Time
}

func (r *CorrelationResult) response(fromCache bool) *Response {
	links := r.Links
	if links == nil {
		links = []correlate.VibeLink{}
	}
	return &Response{
		Links:         links,
		TotalMessages: r.TotalMessages,
		TotalCommits:  r.TotalCommits,
		AnalyzedAt:    r.AnalyzedAt,
		FromCache:     fromCache,
	}
}

// Cache stores correlation results keyed by account and repository.
// GetCorrelation returns nil and no error when nothing is stored.
type Cache interface {
	GetCorrelation(ctx context.Context, accountID string, repo commits.Repository) (*CorrelationResult, error)
	PutCorrelation(ctx context.Context, result *CorrelationResult) error
}

// Publisher announces completed analyses.
type Publisher interface {
	Publish(subject string, data any) error
}

// AnalyzedEvent is published after every successful uncached run.
type AnalyzedEvent struct {
	RunID         string    `json:"run_id"`
	AccountID     string    `json:"account_id"`
	Repository    string    `json:"repository"`
	Links         int       `json:"links"`
	TotalMessages int       `json:"total_messages"`
	TotalCommits  int       `json:"total_commits"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
	Cached        bool      `json:"cached"`
}

const SubjectAnalyzed = "vibetrace.history.analyzed"
