package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
	"github.com/MikeSquared-Agency/vibetrace/internal/correlate"
	"github.com/MikeSquared-Agency/vibetrace/internal/vibe"
)

// GetCorrelation fetches the cached result for an account and repository.
// It returns nil and no error when nothing has been stored yet.
func (s *Store) GetCorrelation(ctx context.Context, accountID string, repo commits.Repository) (*vibe.CorrelationResult, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT links, total_messages, total_commits, analyzed_at
		FROM vibe_histories
		WHERE account_id = $1 AND repo_owner = $2 AND repo_name = $3`,
		accountID, repo.Owner, repo.Name,
	)

	var (
		linksJSON []byte
		r         = vibe.CorrelationResult{AccountID: accountID, Repository: repo}
	)
	err := row.Scan(&linksJSON, &r.TotalMessages, &r.TotalCommits, &r.AnalyzedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get correlation: %w", err)
	}

	if err := json.Unmarshal(linksJSON, &r.Links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	if r.Links == nil {
		r.Links = []correlate.VibeLink{}
	}
	r.AnalyzedAt = r.AnalyzedAt.UTC()
	return &r, nil
}

// PutCorrelation replaces the cached result for the result's account and
// repository.
func (s *Store) PutCorrelation(ctx context.Context, r *vibe.CorrelationResult) error {
	links := r.Links
	if links == nil {
		links = []correlate.VibeLink{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO vibe_histories (id, account_id, repo_owner, repo_name, links, total_messages, total_commits, analyzed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (account_id, repo_owner, repo_name)
		DO UPDATE SET
			links = $5,
			total_messages = $6,
			total_commits = $7,
			analyzed_at = $8,
			updated_at = now()`,
		uuid.New(), r.AccountID, r.Repository.Owner, r.Repository.Name, linksJSON, r.TotalMessages, r.TotalCommits, r.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert correlation: %w", err)
	}
	return nil
}
