// Package executor applies move plans: snapshot first, then ordered moves,
// index updates, and decision appends.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/embedding"
	"github.com/jagoff/obsidian-para/internal/index"
	"github.com/jagoff/obsidian-para/internal/repository"
	"github.com/jagoff/obsidian-para/internal/snapshot"
	"github.com/jagoff/obsidian-para/internal/vault"
)

// Excluder guards the checked precondition that no excluded path is touched.
type Excluder interface {
	Contains(path string) bool
}

// Executor applies a move plan atomically from the caller's perspective.
type Executor struct {
	VaultPath string
	Snapshots *snapshot.Store
	Index     *index.Index
	Decisions repository.DecisionRepo
	Reader    *vault.Reader
	Excluder  Excluder
	// Warn receives per-move soft failures. Nil discards.
	Warn func(msg string, err error)
}

// Execute runs the plan: create a snapshot, then apply moves in plan order.
// A snapshot failure aborts before any move. A single-file move failure is
// recorded and the plan continues. Index and decision-store write failures
// go to Warn and do not stop the plan; a move touching an excluded path
// stops it with an integrity error. Cancellation takes effect between
// moves, never mid-move.
func (e *Executor) Execute(ctx context.Context, plan *domain.MovePlan) (*contract.ExecutionReport, error) {
	if plan == nil || !plan.Execute {
		return nil, contract.Preconditionf("build the plan in execute mode first", "refusing to apply a simulation plan")
	}

	report := &contract.ExecutionReport{
		ID:        uuid.NewString(),
		PlanID:    plan.ID,
		StartedAt: time.Now(),
	}

	manifest, err := e.Snapshots.Create(ctx, e.VaultPath, "plan-"+string(plan.Scope))
	if err != nil {
		if ctx.Err() != nil {
			return nil, contract.ErrCancelled
		}
		return nil, contract.Transient("snapshot failed; no moves were applied", err)
	}
	report.SnapshotID = manifest.ID

	decisionsByNote := make(map[string]*domain.DecisionRecord, len(plan.Decisions))
	for i := range plan.Decisions {
		decisionsByNote[plan.Decisions[i].NoteID] = &plan.Decisions[i]
	}

	for _, move := range plan.Moves {
		if ctx.Err() != nil {
			report.Partial = true
			report.FinishedAt = time.Now()
			return report, contract.ErrCancelled
		}

		// Excluded paths can never appear in a plan; reaching one here is
		// a planner bug, not a per-move failure.
		if e.Excluder != nil && (e.Excluder.Contains(move.FromPath) || e.Excluder.Contains(move.ToPath)) {
			report.Partial = true
			report.FinishedAt = time.Now()
			return report, contract.Integrity(
				fmt.Sprintf("plan contains excluded path %s", move.FromPath), nil,
				"rebuild the plan; snapshot "+manifest.ID+" preserves the pre-plan state")
		}

		result := e.applyMove(ctx, move, decisionsByNote[move.NoteID], report)
		report.Moves = append(report.Moves, result)
		if result.Failed() {
			report.Partial = true
		}
	}

	report.FinishedAt = time.Now()
	if report.Partial {
		return report, contract.Partial(
			fmt.Sprintf("%d of %d moves failed", len(report.FailedMoves()), len(report.Moves)), nil)
	}
	return report, nil
}

// applyMove performs one move plus its index and decision bookkeeping.
func (e *Executor) applyMove(ctx context.Context, move domain.PlannedMove, decision *domain.DecisionRecord, report *contract.ExecutionReport) contract.MoveResult {
	result := contract.MoveResult{
		NoteID:   move.NoteID,
		FromPath: move.FromPath,
	}

	target, err := e.placeFile(move)
	if err != nil {
		e.warn("move failed: "+move.FromPath, err)
		result.Err = err.Error()
		return result
	}
	result.ToPath = target
	result.AppliedAt = time.Now()

	// The note's identity is its path hash: drop the stale entry and index
	// the note at its new location.
	if err := e.Index.Delete(ctx, move.NoteID); err != nil {
		e.warn("index cleanup failed: "+move.NoteID, err)
	}
	note, err := e.Reader.ReadNote(e.VaultPath, target)
	if err != nil {
		e.warn("re-reading moved note failed: "+target, err)
	} else if err := e.Index.Upsert(ctx, note, move.Category, move.FolderName); err != nil {
		if errors.Is(err, embedding.ErrUnavailable) {
			addDegradation(report, "embedder unavailable; moved notes flagged for re-embed")
		} else {
			e.warn("index upsert failed: "+note.ID, err)
		}
	}

	if decision != nil {
		if err := e.Decisions.Append(ctx, decision); err != nil {
			e.warn("decision append failed: "+decision.ID, err)
		}
	}

	e.removeEmptySourceDir(move.FromPath)
	return result
}

// placeFile creates the target folder and moves the file. A name collision
// in the target keeps the source filename and appends a unique suffix to
// the filename only, never the folder.
func (e *Executor) placeFile(move domain.PlannedMove) (string, error) {
	targetDir := filepath.Dir(move.ToPath)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", targetDir, err)
	}

	target := move.ToPath
	if _, err := os.Stat(target); err == nil {
		target = uniqueName(target)
	}
	if err := os.Rename(move.FromPath, target); err != nil {
		return "", fmt.Errorf("moving %s: %w", move.FromPath, err)
	}
	return target, nil
}

// uniqueName finds an unused variant of path by suffixing the basename.
func uniqueName(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// removeEmptySourceDir deletes a sub-folder left empty by a move. Category
// roots are never removed.
func (e *Executor) removeEmptySourceDir(fromPath string) {
	dir := filepath.Dir(fromPath)
	rel, err := filepath.Rel(e.VaultPath, dir)
	if err != nil {
		return
	}
	// Only folders strictly below a category root qualify.
	if len(strings.Split(filepath.ToSlash(rel), "/")) < 2 {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	_ = os.Remove(dir)
}

func (e *Executor) warn(msg string, err error) {
	if e.Warn != nil {
		e.Warn(msg, err)
	}
}

func addDegradation(report *contract.ExecutionReport, msg string) {
	for _, d := range report.Degradations {
		if d == msg {
			return
		}
	}
	report.Degradations = append(report.Degradations, msg)
}
