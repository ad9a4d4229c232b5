package correlate

import (
	"context"
	"errors"
	"time"
)

// CodeChange is one file-level change a link attributes to the conversation.
type CodeChange struct {
	File        string     `json:"file"`
	Description string     `json:"description"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	CommitSHA   string     `json:"commitSha,omitempty"`
}

// VibeLink ties an excerpt of the conversation to the code changes it
// produced. IDs are assigned locally and are unique within one run.
type VibeLink struct {
	ID          string       `json:"id"`
	ChatExcerpt string       `json:"chatExcerpt"`
	CodeChanges []CodeChange `json:"codeChanges"`
	Reasoning   string       `json:"reasoning"`
	Confidence  int          `json:"confidence"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Oracle is the external model that proposes links as free text.
type Oracle interface {
	CompleteText(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// ErrNoCommits is returned when there are no code commits to correlate.
var ErrNoCommits = errors.New("no code commits in window")

// Degrade reasons.
const (
	DegradeCallError = "call_error"
	DegradeNoList    = "no_list"
	DegradeDisabled  = "disabled"
)

// Outcome is the result of one correlation. A degraded outcome carries no
// links and is still a success.
type Outcome struct {
	Links         []VibeLink
	Rejected      int
	Degraded      bool
	DegradeReason string
	AnalyzedAt    time.Time
}
