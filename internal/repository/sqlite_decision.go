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

// SQLiteDecisionRepo implements DecisionRepo. Decision rows are append-only;
// the feedback column is the single mutable field.
type SQLiteDecisionRepo struct {
	db db.DBTX
}

// NewSQLiteDecisionRepo creates a DecisionRepo bound to the given connection
// or transaction.
func NewSQLiteDecisionRepo(dbtx db.DBTX) *SQLiteDecisionRepo {
	return &SQLiteDecisionRepo{db: dbtx}
}

const decisionColumns = `id, note_id, created_at, category, folder_name, confidence, method,
	semantic_score, llm_score, rule_score, weight_semantic, weight_llm, weight_rule,
	reasoning, factors, feedback`

func (r *SQLiteDecisionRepo) Append(ctx context.Context, d *domain.DecisionRecord) error {
	factors, err := json.Marshal(d.FactorsApplied)
	if err != nil {
		return fmt.Errorf("encoding decision factors: %w", err)
	}
	var feedback any
	if d.Feedback != nil {
		data, err := json.Marshal(d.Feedback)
		if err != nil {
			return fmt.Errorf("encoding decision feedback: %w", err)
		}
		feedback = string(data)
	}

	query := `INSERT INTO decisions (` + decisionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		d.ID,
		d.NoteID,
		d.Timestamp.UTC().Format(time.RFC3339Nano),
		string(d.Category),
		d.FolderName,
		d.Confidence,
		string(d.Method),
		d.SemanticScore,
		d.LLMScore,
		d.RuleScore,
		d.Weights.Semantic,
		d.Weights.LLM,
		d.Weights.Rule,
		d.Reasoning,
		string(factors),
		feedback,
	)
	if err != nil {
		return fmt.Errorf("inserting decision: %w", err)
	}
	return nil
}

func (r *SQLiteDecisionRepo) Get(ctx context.Context, id string) (*domain.DecisionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE id = ?`, id)
	d, err := scanDecision(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *SQLiteDecisionRepo) ListRecent(ctx context.Context, n int) ([]*domain.DecisionRecord, error) {
	return r.list(ctx,
		`SELECT `+decisionColumns+` FROM decisions ORDER BY created_at DESC, id DESC LIMIT ?`, n)
}

func (r *SQLiteDecisionRepo) ListByNote(ctx context.Context, noteID string) ([]*domain.DecisionRecord, error) {
	return r.list(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE note_id = ? ORDER BY created_at`, noteID)
}

func (r *SQLiteDecisionRepo) LatestByNote(ctx context.Context, noteID string) (*domain.DecisionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE note_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`, noteID)
	d, err := scanDecision(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *SQLiteDecisionRepo) SetFeedback(ctx context.Context, id string, fb *domain.Feedback) error {
	data, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("encoding feedback: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE decisions SET feedback = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return fmt.Errorf("updating decision feedback: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteDecisionRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting decisions: %w", err)
	}
	return n, nil
}

func (r *SQLiteDecisionRepo) list(ctx context.Context, query string, args ...any) ([]*domain.DecisionRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}
	defer rows.Close()

	var out []*domain.DecisionRecord
	for rows.Next() {
		d, err := scanDecision(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decisions: %w", err)
	}
	return out, nil
}

func scanDecision(scan func(...any) error) (*domain.DecisionRecord, error) {
	var d domain.DecisionRecord
	var createdAt, catStr, methodStr, factorsStr string
	var feedbackStr sql.NullString

	err := scan(
		&d.ID, &d.NoteID, &createdAt, &catStr, &d.FolderName, &d.Confidence, &methodStr,
		&d.SemanticScore, &d.LLMScore, &d.RuleScore,
		&d.Weights.Semantic, &d.Weights.LLM, &d.Weights.Rule,
		&d.Reasoning, &factorsStr, &feedbackStr,
	)
	if err != nil {
		return nil, err
	}

	d.Category = domain.Category(catStr)
	d.Method = domain.Method(methodStr)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		d.Timestamp = t
	}
	if factorsStr != "" {
		if err := json.Unmarshal([]byte(factorsStr), &d.FactorsApplied); err != nil {
			return nil, fmt.Errorf("decoding decision factors: %w", err)
		}
	}
	if feedbackStr.Valid && feedbackStr.String != "" {
		var fb domain.Feedback
		if err := json.Unmarshal([]byte(feedbackStr.String), &fb); err != nil {
			return nil, fmt.Errorf("decoding decision feedback: %w", err)
		}
		d.Feedback = &fb
	}
	return &d, nil
}
