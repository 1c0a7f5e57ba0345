package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hurttlocker/featuremap/internal/pipeline"
)

// ErrNoRuns is returned when no mining run has been recorded yet.
var ErrNoRuns = errors.New("no mining runs recorded")

// SaveRun persists a completed mining run and its ranked clusters in one
// transaction. Cluster rows are stored in ranking order but keyed by their
// stable cluster index.
func (s *Store) SaveRun(ctx context.Context, run *Run, clusters []pipeline.Cluster) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, k, issue_count, params) VALUES (?, ?, ?, ?)`,
		run.CreatedAt, run.K, run.IssueCount, run.Params,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	for _, c := range clusters {
		terms, err := json.Marshal(c.TopTerms)
		if err != nil {
			return 0, fmt.Errorf("encoding top terms: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_clusters
				(run_id, cluster_index, top_terms, issue_count, vote_sum, issue_score, vote_score, combined_score)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.Index, string(terms), c.IssueCount, c.VoteSum,
			c.IssueScore, c.VoteScore, c.CombinedScore,
		); err != nil {
			return 0, fmt.Errorf("inserting cluster %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	run.ID = runID
	return runID, nil
}

// LatestRun returns the most recent run, or ErrNoRuns.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, k, issue_count, params FROM runs ORDER BY id DESC LIMIT 1`,
	).Scan(&run.ID, &run.CreatedAt, &run.K, &run.IssueCount, &run.Params)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest run: %w", err)
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, k, issue_count, params FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.K, &run.IssueCount, &run.Params); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// RunClusters returns the ranked clusters of a run, ordered by descending
// combined score with ascending index breaking ties — the same total order
// the pipeline produced.
func (s *Store) RunClusters(ctx context.Context, runID int64) ([]pipeline.Cluster, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cluster_index, top_terms, issue_count, vote_sum, issue_score, vote_score, combined_score
		 FROM run_clusters WHERE run_id = ?
		 ORDER BY combined_score DESC, cluster_index ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading clusters for run %d: %w", runID, err)
	}
	defer rows.Close()

	var clusters []pipeline.Cluster
	for rows.Next() {
		var c pipeline.Cluster
		var terms string
		if err := rows.Scan(&c.Index, &terms, &c.IssueCount, &c.VoteSum,
			&c.IssueScore, &c.VoteScore, &c.CombinedScore); err != nil {
			return nil, fmt.Errorf("scanning cluster: %w", err)
		}
		if err := json.Unmarshal([]byte(terms), &c.TopTerms); err != nil {
			return nil, fmt.Errorf("decoding top terms for cluster %d: %w", c.Index, err)
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}
