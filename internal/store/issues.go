package store

import (
	"context"
	"fmt"
	"time"
)

// UpsertIssue inserts an issue or refreshes it in place when its external id
// is already cached. Returns the row id.
func (s *Store) UpsertIssue(ctx context.Context, issue *Issue) (int64, error) {
	if issue.ExternalID == "" {
		return 0, fmt.Errorf("issue missing external id")
	}
	if issue.Votes < 0 {
		return 0, fmt.Errorf("issue %s: negative vote count %d", issue.ExternalID, issue.Votes)
	}
	if issue.FetchedAt.IsZero() {
		issue.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO issues (external_id, number, title, description, votes, url, updated_at, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
			number      = excluded.number,
			title       = excluded.title,
			description = excluded.description,
			votes       = excluded.votes,
			url         = excluded.url,
			updated_at  = excluded.updated_at,
			fetched_at  = excluded.fetched_at`,
		issue.ExternalID, issue.Number, issue.Title, issue.Description,
		issue.Votes, issue.URL, nullableTime(issue.UpdatedAt), issue.FetchedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting issue %s: %w", issue.ExternalID, err)
	}

	// LastInsertId is unreliable for the DO UPDATE path; always read back.
	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM issues WHERE external_id = ?`, issue.ExternalID,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading back issue id: %w", err)
	}
	issue.ID = id
	return id, nil
}

// ListIssues returns all cached issues in insertion order.
func (s *Store) ListIssues(ctx context.Context) ([]*Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, external_id, number, title, description, votes, url, updated_at, fetched_at
		 FROM issues ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	defer rows.Close()

	var issues []*Issue
	for rows.Next() {
		var issue Issue
		var updatedAt *time.Time
		if err := rows.Scan(&issue.ID, &issue.ExternalID, &issue.Number, &issue.Title,
			&issue.Description, &issue.Votes, &issue.URL, &updatedAt, &issue.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		if updatedAt != nil {
			issue.UpdatedAt = *updatedAt
		}
		issues = append(issues, &issue)
	}
	return issues, rows.Err()
}

// CountIssues returns the number of cached issues.
func (s *Store) CountIssues(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting issues: %w", err)
	}
	return n, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
