package gitlog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Adapter reads commit history from a local git checkout. The repository
// and installation arguments of ListRecentCommits are ignored; the checkout
// directory decides which history is read.
type Adapter struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Adapter {
	return &Adapter{dir: dir, logger: logger}
}

// ListRecentCommits runs git log for non-merge commits since the given time
// and counts per-file line changes from each commit's patch.
func (a *Adapter) ListRecentCommits(ctx context.Context, _ commits.Repository, _ string, since time.Time, limit int) ([]commits.Commit, error) {
	if limit <= 0 {
		return []commits.Commit{}, nil
	}

	out, err := a.git(ctx,
		"log",
		"--no-merges",
		"--format=%H"+"%x1f"+"%aI"+"%x1f"+"%B"+"%x1e",
		"--since="+since.UTC().Format(time.RFC3339),
		"-n", strconv.Itoa(limit),
	)
	if err != nil {
		return nil, err
	}

	result := parseLog(out)
	for i := range result {
		patch, err := a.git(ctx, "show", "--format=", "--no-color", "--no-ext-diff", "--unified=0", result[i].SHA)
		if err != nil {
			return nil, err
		}
		files, err := parsePatch(patch)
		if err != nil {
			a.logger.Warn("skipping unparseable patch", "sha", result[i].SHA, "error", err)
			continue
		}
		result[i].Files = files
	}

	a.logger.Debug("read local commits", "dir", a.dir, "count", len(result))
	return result, nil
}

func (a *Adapter) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", a.dir}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: git %s: %v: %s", commits.ErrFetch, args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// parseLog splits git log output produced with the record/field separators.
// Malformed records are skipped.
func parseLog(out []byte) []commits.Commit {
	var result []commits.Commit
	for _, rec := range strings.Split(string(out), recordSep) {
		rec = strings.TrimLeft(rec, "\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		parts := strings.SplitN(rec, fieldSep, 3)
		if len(parts) != 3 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			continue
		}
		result = append(result, commits.Commit{
			SHA:        strings.TrimSpace(parts[0]),
			Message:    strings.TrimSpace(parts[2]),
			AuthoredAt: ts,
		})
	}
	return result
}

// parsePatch counts added and removed lines per file in a unified diff.
func parsePatch(patch []byte) ([]commits.ChangedFile, error) {
	if len(bytes.TrimSpace(patch)) == 0 {
		return []commits.ChangedFile{}, nil
	}
	fileDiffs, err := diff.ParseMultiFileDiff(patch)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	files := make([]commits.ChangedFile, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		cf := commits.ChangedFile{Path: filePath(fd)}
		for _, h := range fd.Hunks {
			for _, line := range bytes.Split(h.Body, []byte("\n")) {
				switch {
				case bytes.HasPrefix(line, []byte("+")):
					cf.LinesAdded++
				case bytes.HasPrefix(line, []byte("-")):
					cf.LinesRemoved++
				}
			}
		}
		files = append(files, cf)
	}
	return files, nil
}

func filePath(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = fd.OrigName
	}
	name = strings.TrimPrefix(name, "b/")
	return strings.TrimPrefix(name, "a/")
}
