package contract

import (
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// MoveResult is the outcome of one executed plan action.
type MoveResult struct {
	NoteID    string
	FromPath  string
	ToPath    string
	AppliedAt time.Time
	Err       string // empty on success
}

// Failed reports whether this move did not apply.
func (m MoveResult) Failed() bool { return m.Err != "" }

// ExecutionReport is the executor's result for one applied plan.
type ExecutionReport struct {
	ID         string
	PlanID     string
	SnapshotID string
	StartedAt  time.Time
	FinishedAt time.Time
	Moves      []MoveResult
	Partial    bool
	// Degradations lists collaborator failures the run worked around,
	// e.g. "LLM degraded", "embedder unavailable".
	Degradations []string
}

// FailedMoves returns the subset of moves that did not apply.
func (r *ExecutionReport) FailedMoves() []MoveResult {
	var out []MoveResult
	for _, m := range r.Moves {
		if m.Failed() {
			out = append(out, m)
		}
	}
	return out
}

// ReindexReport summarizes a semantic-index rebuild pass.
type ReindexReport struct {
	Scope      domain.PlanScope
	Scanned    int
	Embedded   int
	Reembedded int
	Removed    int
	Skipped    int
	Warnings   []string
}

// RestoreReport summarizes a snapshot restore.
type RestoreReport struct {
	SnapshotID    string
	FilesRestored int
	BytesRestored int64
	// InvalidatedNoteIDs lists index entries dropped for re-upsert on the
	// next sweep.
	InvalidatedNoteIDs []string
}
