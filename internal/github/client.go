package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
)

const (
	defaultAPIURL     = "https://api.github.com"
	apiVersion        = "2022-11-28"
	maxPerPage        = 100
	detailConcurrency = 8
)

// TokenSource resolves the access token used for a given installation.
type TokenSource interface {
	Token(ctx context.Context, installationRef string) (string, error)
}

// PassthroughTokens treats the installation reference as an installation
// access token minted upstream, falling back to a fixed token when the
// reference is empty.
type PassthroughTokens struct {
	Fallback string
}

func (p PassthroughTokens) Token(_ context.Context, installationRef string) (string, error) {
	if installationRef != "" {
		return installationRef, nil
	}
	if p.Fallback != "" {
		return p.Fallback, nil
	}
	return "", errors.New("no installation token available")
}

// Client reads commit history from the GitHub REST API.
type Client struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type listItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type commitDetail struct {
	Files []struct {
		Filename  string `json:"filename"`
		Additions int    `json:"additions"`
		Deletions int    `json:"deletions"`
	} `json:"files"`
}

type apiError struct {
	Message string `json:"message"`
}

// ListRecentCommits lists commits since the given time, newest first, and
// fills in each commit's changed files.
func (c *Client) ListRecentCommits(ctx context.Context, repo commits.Repository, installationRef string, since time.Time, limit int) ([]commits.Commit, error) {
	if limit <= 0 {
		return []commits.Commit{}, nil
	}

	token, err := c.tokens.Token(ctx, installationRef)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve token: %v", commits.ErrFetch, err)
	}

	items, err := c.listCommits(ctx, repo, token, since, limit)
	if err != nil {
		return nil, err
	}

	out := make([]commits.Commit, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)
	for i, it := range items {
		out[i] = commits.Commit{
			SHA:        it.SHA,
			Message:    strings.TrimSpace(it.Commit.Message),
			AuthoredAt: it.Commit.Author.Date,
		}
		g.Go(func() error {
			files, err := c.commitFiles(gctx, repo, token, it.SHA)
			if err != nil {
				return err
			}
			out[i].Files = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("listed commits",
		"repo", repo.String(),
		"since", since.Format(time.RFC3339),
		"count", len(out),
	)
	return out, nil
}

func (c *Client) listCommits(ctx context.Context, repo commits.Repository, token string, since time.Time, limit int) ([]listItem, error) {
	perPage := min(limit, maxPerPage)
	var all []listItem

	for page := 1; len(all) < limit; page++ {
		q := url.Values{}
		q.Set("since", since.UTC().Format(time.RFC3339))
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))
		endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?%s",
			c.baseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name), q.Encode())

		var batch []listItem
		status, err := c.get(ctx, endpoint, token, &batch)
		if status == http.StatusConflict {
			// Empty repository.
			return []listItem{}, nil
		}
		if err != nil {
			return nil, err
		}

		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (c *Client) commitFiles(ctx context.Context, repo commits.Repository, token, sha string) ([]commits.ChangedFile, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits/%s",
		c.baseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name), url.PathEscape(sha))

	var detail commitDetail
	if _, err := c.get(ctx, endpoint, token, &detail); err != nil {
		return nil, err
	}

	files := make([]commits.ChangedFile, 0, len(detail.Files))
	for _, f := range detail.Files {
		files = append(files, commits.ChangedFile{
			Path:         f.Filename,
			LinesAdded:   f.Additions,
			LinesRemoved: f.Deletions,
		})
	}
	return files, nil
}

// get performs an authenticated GET and decodes the JSON body into dst.
// Transport and HTTP failures are wrapped in commits.ErrFetch; context
// errors are returned as-is.
func (c *Client) get(ctx context.Context, endpoint, token string, dst any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w: api call: %v", commits.ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read response: %v", commits.ErrFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return resp.StatusCode, fmt.Errorf("%w: github %d: %s", commits.ErrFetch, resp.StatusCode, msg)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: unmarshal response: %v", commits.ErrFetch, err)
	}
	return resp.StatusCode, nil
}
