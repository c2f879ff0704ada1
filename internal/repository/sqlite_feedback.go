package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jagoff/obsidian-para/internal/db"
	"github.com/jagoff/obsidian-para/internal/domain"
)

// SQLiteFeedbackRepo implements FeedbackRepo.
type SQLiteFeedbackRepo struct {
	db db.DBTX
}

// NewSQLiteFeedbackRepo creates a FeedbackRepo bound to the given connection
// or transaction.
func NewSQLiteFeedbackRepo(dbtx db.DBTX) *SQLiteFeedbackRepo {
	return &SQLiteFeedbackRepo{db: dbtx}
}

func (r *SQLiteFeedbackRepo) Append(ctx context.Context, f *domain.FeedbackRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (id, decision_id, action, correction, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.DecisionID, string(f.Action), string(f.Correction), f.Notes,
		f.At.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting feedback: %w", err)
	}
	return nil
}

func (r *SQLiteFeedbackRepo) List(ctx context.Context) ([]*domain.FeedbackRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, decision_id, action, correction, notes, created_at
		 FROM feedback ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	defer rows.Close()

	var out []*domain.FeedbackRecord
	for rows.Next() {
		var f domain.FeedbackRecord
		var action, correction, createdAt string
		if err := rows.Scan(&f.ID, &f.DecisionID, &action, &correction, &f.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		f.Action = domain.FeedbackAction(action)
		f.Correction = domain.Category(correction)
		f.At = parseTime(createdAt)
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (r *SQLiteFeedbackRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting feedback: %w", err)
	}
	return n, nil
}

// SQLiteFolderFeedbackRepo implements FolderFeedbackRepo.
type SQLiteFolderFeedbackRepo struct {
	db db.DBTX
}

// NewSQLiteFolderFeedbackRepo creates a FolderFeedbackRepo.
func NewSQLiteFolderFeedbackRepo(dbtx db.DBTX) *SQLiteFolderFeedbackRepo {
	return &SQLiteFolderFeedbackRepo{db: dbtx}
}

func (r *SQLiteFolderFeedbackRepo) Append(ctx context.Context, f *domain.FolderCreationFeedback) error {
	tags, err := json.Marshal(f.Tags)
	if err != nil {
		return fmt.Errorf("encoding folder feedback tags: %w", err)
	}
	patterns, err := json.Marshal(f.Patterns)
	if err != nil {
		return fmt.Errorf("encoding folder feedback patterns: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO folder_feedback
			(id, folder_name, category, content_excerpt, tags, patterns, user_action, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.FolderName, string(f.Category), f.ContentExcerpt,
		string(tags), string(patterns), string(f.UserAction), f.Reason,
		f.At.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting folder feedback: %w", err)
	}
	return nil
}

func (r *SQLiteFolderFeedbackRepo) List(ctx context.Context) ([]*domain.FolderCreationFeedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, folder_name, category, content_excerpt, tags, patterns, user_action, reason, created_at
		 FROM folder_feedback ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing folder feedback: %w", err)
	}
	defer rows.Close()

	var out []*domain.FolderCreationFeedback
	for rows.Next() {
		var f domain.FolderCreationFeedback
		var cat, tags, patterns, action, createdAt string
		if err := rows.Scan(&f.ID, &f.FolderName, &cat, &f.ContentExcerpt,
			&tags, &patterns, &action, &f.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning folder feedback row: %w", err)
		}
		f.Category = domain.Category(cat)
		f.UserAction = domain.FeedbackAction(action)
		f.At = parseTime(createdAt)
		if err := json.Unmarshal([]byte(tags), &f.Tags); err != nil {
			return nil, fmt.Errorf("decoding folder feedback tags: %w", err)
		}
		if err := json.Unmarshal([]byte(patterns), &f.Patterns); err != nil {
			return nil, fmt.Errorf("decoding folder feedback patterns: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
