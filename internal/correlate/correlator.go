package correlate

import (
	"context"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/vibetrace/internal/chat"
	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
	"github.com/MikeSquared-Agency/vibetrace/internal/metrics"
)

const defaultMaxTokens = 8192

type Correlator struct {
	oracle    Oracle
	logger    *slog.Logger
	maxTokens int
	now       func() time.Time
}

// New creates a Correlator. A nil oracle degrades every run to an empty
// link list.
func New(oracle Oracle, logger *slog.Logger) *Correlator {
	return &Correlator{
		oracle:    oracle,
		logger:    logger,
		maxTokens: defaultMaxTokens,
		now:       time.Now,
	}
}

// Correlate asks the oracle to link messages to commits and validates its
// answer. Oracle failures never surface as errors: the outcome is marked
// degraded and carries no links. ErrNoCommits is the only error returned.
func (c *Correlator) Correlate(ctx context.Context, repo string, msgs []chat.Message, commitList []commits.Commit) (*Outcome, error) {
	if len(commitList) == 0 {
		return nil, ErrNoCommits
	}

	runAt := c.now().UTC()
	out := &Outcome{Links: []VibeLink{}, AnalyzedAt: runAt}

	if c.oracle == nil {
		c.degrade(out, repo, DegradeDisabled, nil)
		return out, nil
	}

	prompt := BuildPrompt(repo, msgs, commitList)
	c.logger.Info("correlating chat with commits",
		"repo", repo,
		"messages", len(msgs),
		"commits", len(commitList),
		"prompt_len", len(prompt),
	)

	raw, err := c.oracle.CompleteText(ctx, systemPrompt, prompt, c.maxTokens)
	if err != nil {
		c.degrade(out, repo, DegradeCallError, err)
		return out, nil
	}

	res := decodeLinks(raw, commitList, runAt)
	if !res.Found {
		c.logger.Debug("oracle response without link list", "repo", repo, "raw", raw)
		c.degrade(out, repo, DegradeNoList, nil)
		return out, nil
	}

	out.Links = res.Links
	out.Rejected = res.Rejected
	metrics.RecordLinksRejected("decode", res.Malformed)
	metrics.RecordLinksRejected("invalid", res.Rejected-res.Malformed)

	c.logger.Info("correlation complete",
		"repo", repo,
		"links", len(res.Links),
		"rejected", res.Rejected,
	)
	return out, nil
}

func (c *Correlator) degrade(out *Outcome, repo, reason string, err error) {
	out.Degraded = true
	out.DegradeReason = reason
	metrics.RecordOracleDegraded(reason)
	c.logger.Warn("correlation degraded to empty link list",
		"repo", repo,
		"reason", reason,
		"error", err,
	)
}
