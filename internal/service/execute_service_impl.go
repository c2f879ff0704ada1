package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/db"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/executor"
	"github.com/jagoff/obsidian-para/internal/learning"
)

type executeService struct {
	session  *Session
	executor *executor.Executor
	learning *learning.Store
	database *sql.DB
	observer UseCaseObserver
}

// NewExecuteService wires plan execution: integrity check, backup gate,
// executor run, learning snapshot afterwards.
func NewExecuteService(session *Session, ex *executor.Executor, ls *learning.Store, database *sql.DB, observer UseCaseObserver) ExecuteService {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &executeService{
		session:  session,
		executor: ex,
		learning: ls,
		database: database,
		observer: observer,
	}
}

func (s *executeService) Execute(ctx context.Context, plan *domain.MovePlan) (*contract.ExecutionReport, error) {
	started := time.Now()

	report, err := s.execute(ctx, plan)

	fields := map[string]any{}
	if plan != nil {
		fields["plan_id"] = plan.ID
		fields["moves"] = len(plan.Moves)
	}
	if report != nil {
		fields["snapshot_id"] = report.SnapshotID
		fields["partial"] = report.Partial
	}
	observe(ctx, s.observer, "execute", fields, started, err)
	return report, err
}

func (s *executeService) execute(ctx context.Context, plan *domain.MovePlan) (*contract.ExecutionReport, error) {
	if s.session.Config.AutoBackup != nil && !*s.session.Config.AutoBackup {
		return nil, contract.Preconditionf(
			"enable auto_backup in the config; the executor does not run without snapshots",
			"auto_backup is disabled")
	}
	if err := s.verifyIntegrity(); err != nil {
		return nil, err
	}
	if !s.session.ExclusionsConfigured() {
		return nil, contract.Preconditionf(
			"configure exclusions (or explicitly confirm an empty registry) before executing",
			"exclusions not configured for this session")
	}

	report, err := s.executor.Execute(ctx, plan)
	if report != nil {
		// Metrics are recomputed after plan completion, not per-move.
		if _, snapErr := s.learning.TakeSnapshot(ctx); snapErr != nil && err == nil {
			err = snapErr
		}
	}
	return report, err
}

// verifyIntegrity refuses to run against a store from a newer schema.
func (s *executeService) verifyIntegrity() error {
	version, err := db.CurrentSchemaVersion(s.database)
	if err != nil {
		return contract.Integrity("learning store unreadable", err, "run reindex to rebuild the index")
	}
	if version > db.SchemaVersion {
		return contract.Integrity(
			"index schema is newer than this build understands", nil,
			"upgrade the tool, or rebuild the index with reindex")
	}
	return nil
}
