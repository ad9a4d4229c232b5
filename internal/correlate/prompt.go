package correlate

import (
	"fmt"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/vibetrace/internal/chat"
	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
)

const maxMessageRunes = 500

// BuildPrompt renders messages and commits into the oracle's user prompt.
// Each message is capped at maxMessageRunes so prompt size is bounded by the
// message and commit counts alone.
func BuildPrompt(repo string, msgs []chat.Message, commitList []commits.Commit) string {
	var conv strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&conv, "[%d] %s: %s\n\n", m.Index, strings.ToUpper(string(m.Role)), truncate(m.Content, maxMessageRunes))
	}

	var hist strings.Builder
	for _, c := range commitList {
		fmt.Fprintf(&hist, "- %s (%s) %s\n", c.SHA, c.AuthoredAt.UTC().Format(time.RFC3339), firstLine(c.Message))
		for _, f := range c.Files {
			fmt.Fprintf(&hist, "    %s (+%d/-%d)\n", f.Path, f.LinesAdded, f.LinesRemoved)
		}
		fmt.Fprintf(&hist, "    total: +%d/-%d\n", c.LinesAdded(), c.LinesRemoved())
	}

	return fmt.Sprintf(userPromptTemplate,
		repo,
		len(msgs), strings.TrimRight(conv.String(), "\n"),
		len(commitList), strings.TrimRight(hist.String(), "\n"),
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
