package commits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository identifies a repository on the source-control host.
type Repository struct {
	Owner string `json:"owner" validate:"required,max=100"`
	Name  string `json:"name" validate:"required,max=100"`
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository parses an "owner/name" reference.
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// ChangedFile is one file touched by a commit.
type ChangedFile struct {
	Path         string `json:"path"`
	LinesAdded   int    `json:"linesAdded"`
	LinesRemoved int    `json:"linesRemoved"`
}

// Commit is an immutable fact read from the source-control host.
type Commit struct {
	SHA        string        `json:"sha"`
	Message    string        `json:"message"`
	AuthoredAt time.Time     `json:"authoredAt"`
	Files      []ChangedFile `json:"files"`
}

// LinesAdded is the aggregate added-line count across all files.
func (c Commit) LinesAdded() int {
	n := 0
	for _, f := range c.Files {
		n += f.LinesAdded
	}
	return n
}

// LinesRemoved is the aggregate removed-line count across all files.
func (c Commit) LinesRemoved() int {
	n := 0
	for _, f := range c.Files {
		n += f.LinesRemoved
	}
	return n
}

// ShortSHA returns the first seven characters of the sha.
func (c Commit) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

// ErrFetch marks a failure to reach or authorize against the source-control
// host. Sources wrap it so callers can tell it apart from cancellation.
var ErrFetch = errors.New("commit fetch failed")

// Source lists commits authored since a point in time, newest first, capped
// at limit. A source returns an empty slice, not an error, when nothing
// matches.
type Source interface {
	ListRecentCommits(ctx context.Context, repo Repository, installationRef string, since time.Time, limit int) ([]Commit, error)
}
