package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jagoff/obsidian-para/internal/db"
	"github.com/jagoff/obsidian-para/internal/domain"
)

// SQLiteLearningSnapshotRepo implements LearningSnapshotRepo.
type SQLiteLearningSnapshotRepo struct {
	db db.DBTX
}

// NewSQLiteLearningSnapshotRepo creates a LearningSnapshotRepo.
func NewSQLiteLearningSnapshotRepo(dbtx db.DBTX) *SQLiteLearningSnapshotRepo {
	return &SQLiteLearningSnapshotRepo{db: dbtx}
}

const snapshotColumns = `id, created_at, total_classifications, accuracy_rate,
	confidence_correlation, learning_velocity, category_balance, semantic_coherence,
	user_satisfaction, system_adaptability, improvement_score`

func (r *SQLiteLearningSnapshotRepo) Append(ctx context.Context, s *domain.LearningSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO learning_snapshots (`+snapshotColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.At.UTC().Format(time.RFC3339),
		s.TotalClassifications, s.AccuracyRate, s.ConfidenceCorrelation,
		s.LearningVelocity, s.CategoryBalance, s.SemanticCoherence,
		s.UserSatisfaction, s.SystemAdaptability, s.ImprovementScore,
	)
	if err != nil {
		return fmt.Errorf("inserting learning snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteLearningSnapshotRepo) ListRecent(ctx context.Context, n int) ([]*domain.LearningSnapshot, error) {
	// Newest n rows, re-ordered oldest first for slope fitting.
	rows, err := r.db.QueryContext(ctx,
		`SELECT * FROM (
			SELECT `+snapshotColumns+` FROM learning_snapshots
			ORDER BY created_at DESC LIMIT ?
		) ORDER BY created_at ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("listing learning snapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func (r *SQLiteLearningSnapshotRepo) List(ctx context.Context) ([]*domain.LearningSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM learning_snapshots ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing learning snapshots: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

func scanSnapshots(rows *sql.Rows) ([]*domain.LearningSnapshot, error) {
	var out []*domain.LearningSnapshot
	for rows.Next() {
		var s domain.LearningSnapshot
		var createdAt string
		if err := rows.Scan(&s.ID, &createdAt,
			&s.TotalClassifications, &s.AccuracyRate, &s.ConfidenceCorrelation,
			&s.LearningVelocity, &s.CategoryBalance, &s.SemanticCoherence,
			&s.UserSatisfaction, &s.SystemAdaptability, &s.ImprovementScore); err != nil {
			return nil, fmt.Errorf("scanning learning snapshot: %w", err)
		}
		s.At = parseTime(createdAt)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// SQLitePolicyRepo implements PolicyRepo. The policy is a single JSON
// document row, the one-way interface between the feedback loop and fusion.
type SQLitePolicyRepo struct {
	db db.DBTX
}

// NewSQLitePolicyRepo creates a PolicyRepo.
func NewSQLitePolicyRepo(dbtx db.DBTX) *SQLitePolicyRepo {
	return &SQLitePolicyRepo{db: dbtx}
}

func (r *SQLitePolicyRepo) Save(ctx context.Context, p *domain.PolicySnapshot) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding policy: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO policy (id, document, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, saved_at = excluded.saved_at`,
		string(doc), nowUTC())
	if err != nil {
		return fmt.Errorf("saving policy: %w", err)
	}
	return nil
}

func (r *SQLitePolicyRepo) Load(ctx context.Context) (*domain.PolicySnapshot, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM policy WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		p := domain.DefaultPolicy()
		return &p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading policy: %w", err)
	}
	var p domain.PolicySnapshot
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, fmt.Errorf("decoding policy: %w", err)
	}
	return &p, nil
}
