// Package planner builds, scores, and gates move plans over the vault.
package planner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/feature"
	"github.com/jagoff/obsidian-para/internal/fusion"
	"github.com/jagoff/obsidian-para/internal/index"
	"github.com/jagoff/obsidian-para/internal/llm"
	"github.com/jagoff/obsidian-para/internal/rules"
	"github.com/jagoff/obsidian-para/internal/vault"
)

// perMoveDuration is the per-action estimate used in plan summaries.
const perMoveDuration = 75 * time.Millisecond

// PolicyLoader supplies the fusion policy snapshot. The feedback loop writes
// it; the planner only reads.
type PolicyLoader interface {
	Load(ctx context.Context) (*domain.PolicySnapshot, error)
}

// Planner turns the current vault state into a proposed move plan.
type Planner struct {
	VaultPath  string
	Reader     *vault.Reader
	Cache      *feature.Cache
	Index      *index.Index
	Classifier llm.Classifier // nil disables the LLM component
	Policy     PolicyLoader
	NeighborK  int
	MaxNotes   int // 0 means unlimited
}

// Request parameterizes one planning run.
type Request struct {
	Scope     domain.PlanScope
	ScopePath string // for ScopePath
	Directive string
	// Execute requests an executable plan. Requires the exclusion registry
	// to have been configured for this session.
	Execute bool
	// ExclusionsConfigured mirrors the session context flag.
	ExclusionsConfigured bool
	// FixNames authorizes moves that only repair a folder name violating
	// the naming rules; user folders stay put without it.
	FixNames bool
}

// Result is a built plan plus the degradations encountered while deciding.
type Result struct {
	Plan         *domain.MovePlan
	Degradations []string
}

// Build produces a move plan for the requested scope. Simulation mode always
// succeeds; execute mode enforces the exclusion precondition. Cancellation
// aborts between notes.
func (p *Planner) Build(ctx context.Context, req Request) (*Result, error) {
	if req.Execute && !req.ExclusionsConfigured {
		return nil, contract.Preconditionf(
			"configure exclusions (or explicitly confirm an empty registry) before executing",
			"exclusions not configured for this session")
	}

	notes, err := p.notesInScope(req)
	if err != nil {
		return nil, err
	}

	truncated := false
	if p.MaxNotes > 0 && len(notes) > p.MaxNotes {
		notes = notes[:p.MaxNotes]
		truncated = true
	}

	now := time.Now()
	vectors, err := feature.ExtractAll(ctx, p.Cache, notes, req.Directive, now)
	if err != nil {
		return nil, cancelOr(ctx, err)
	}

	policy := domain.DefaultPolicy()
	if p.Policy != nil {
		if loaded, err := p.Policy.Load(ctx); err == nil {
			policy = *loaded
		}
	}

	indexed, err := p.Index.Count(ctx)
	if err != nil {
		return nil, contract.Integrity("semantic index unreadable", err, "run reindex to rebuild the index")
	}

	plan := &domain.MovePlan{
		ID:        uuid.NewString(),
		Scope:     req.Scope,
		ScopePath: req.ScopePath,
		Directive: req.Directive,
		CreatedAt: now,
		Execute:   req.Execute,
	}
	degraded := newDegradationSet()

	task := llm.TaskClassifyInbox
	if req.Scope == domain.ScopeArchive {
		task = llm.TaskClassifyArchive
	}

	for i, note := range notes {
		if err := ctx.Err(); err != nil {
			return nil, contract.ErrCancelled
		}

		neighborCounts := p.neighborCounts(ctx, note, degraded)
		llmResult := p.classify(ctx, note, req.Directive, task, degraded)
		votes := rules.Evaluate(note, vectors[i])

		record := fusion.Decide(fusion.Input{
			Note:           note,
			Features:       vectors[i],
			NeighborCounts: neighborCounts,
			RuleVotes:      votes,
			LLM:            llmResult,
			Policy:         policy,
			IndexedNotes:   indexed,
			Now:            now,
		})
		record.ID = uuid.NewString()
		plan.Decisions = append(plan.Decisions, *record)

		if move, ok := p.proposeMove(note, record, req.FixNames); ok {
			plan.Moves = append(plan.Moves, move)
		}
	}

	plan.Summary = p.summarize(plan, len(notes), req.Execute)
	if truncated {
		plan.Summary.Patterns = append(plan.Summary.Patterns,
			fmt.Sprintf("note cap reached: only the first %d notes considered", p.MaxNotes))
	}
	plan.Summary.Patterns = append(plan.Summary.Patterns, detectPatterns(plan)...)

	return &Result{Plan: plan, Degradations: degraded.list()}, nil
}

// notesInScope lists and filters the notes a scope covers. Exclusions are
// subtracted during the walk.
func (p *Planner) notesInScope(req Request) ([]*domain.Note, error) {
	if _, err := os.Stat(p.VaultPath); err != nil {
		return nil, contract.Preconditionf("check vault_path in the config", "vault missing: %s", p.VaultPath)
	}

	all, err := p.Reader.List(p.VaultPath, false)
	if err != nil {
		return nil, contract.Data("listing vault notes", err)
	}

	var keep func(*domain.Note) bool
	switch req.Scope {
	case domain.ScopeInbox:
		keep = func(n *domain.Note) bool { return n.Category == domain.CategoryInbox }
	case domain.ScopeArchive:
		keep = func(n *domain.Note) bool { return n.Category == domain.CategoryArchive }
	case domain.ScopeAll:
		keep = func(n *domain.Note) bool { return n.Category != domain.CategoryUnknown }
	case domain.ScopePath:
		prefix, err := filepath.Abs(req.ScopePath)
		if err != nil {
			return nil, contract.Preconditionf("pass a valid path scope", "bad scope path %q: %v", req.ScopePath, err)
		}
		if !strings.HasPrefix(prefix, p.VaultPath) {
			return nil, contract.Preconditionf("the path scope must be inside the vault", "path %s outside vault", prefix)
		}
		keep = func(n *domain.Note) bool {
			return n.Path == prefix || strings.HasPrefix(n.Path, prefix+string(filepath.Separator))
		}
	default:
		return nil, contract.Preconditionf("use inbox, archive, all, or path:<p>", "unknown scope %q", req.Scope)
	}

	var notes []*domain.Note
	for _, n := range all {
		if keep(n) {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

// neighborCounts queries the semantic index, degrading to nil when the
// embedder is unavailable.
func (p *Planner) neighborCounts(ctx context.Context, note *domain.Note, degraded *degradationSet) map[domain.Category]int {
	vec, err := p.Index.Embed(ctx, note.Text)
	if err != nil {
		degraded.add("embedder unavailable")
		return nil
	}
	counts, err := p.Index.CategoryOfNeighbors(ctx, vec, p.NeighborK)
	if err != nil {
		degraded.add("semantic index query failed")
		return nil
	}
	// Neighbor votes only count for classifiable buckets.
	delete(counts, domain.CategoryInbox)
	delete(counts, domain.CategoryUnknown)
	return counts
}

// classify runs the LLM component, degrading to nil on failure.
func (p *Planner) classify(ctx context.Context, note *domain.Note, directive string, task llm.TaskType, degraded *degradationSet) *llm.Classification {
	if p.Classifier == nil {
		return nil
	}
	result, err := p.Classifier.Classify(ctx, note.Text, directive, task)
	if err != nil {
		degraded.add("LLM degraded")
		return nil
	}
	return result
}

// proposeMove decides whether the note needs to move and where to.
func (p *Planner) proposeMove(note *domain.Note, record *domain.DecisionRecord, fixNames bool) (domain.PlannedMove, bool) {
	categoryChanged := note.Category != record.Category
	nameFixNeeded := fixNames && !categoryChanged &&
		note.FolderName != "" && fusion.ValidateFolderName(note.FolderName) != nil

	if !categoryChanged && !nameFixNeeded {
		return domain.PlannedMove{}, false
	}

	folder := record.FolderName
	targetDir := filepath.Join(p.VaultPath, record.Category.Folder(), folder)
	toPath := filepath.Join(targetDir, filepath.Base(note.Path))
	_, statErr := os.Stat(targetDir)

	return domain.PlannedMove{
		NoteID:       note.ID,
		FromPath:     note.Path,
		ToPath:       toPath,
		CreateFolder: os.IsNotExist(statErr),
		Category:     record.Category,
		FolderName:   folder,
		Confidence:   record.Confidence,
		Method:       record.Method,
		Reasoning:    record.Reasoning,
	}, true
}

func (p *Planner) summarize(plan *domain.MovePlan, totalNotes int, execute bool) domain.PlanSummary {
	s := domain.PlanSummary{
		TotalNotes:     totalNotes,
		TotalMoves:     len(plan.Moves),
		ByCategory:     make(map[domain.Category]int),
		ByConfidence:   make(map[domain.ConfidenceBucket]int),
		ByMethod:       make(map[domain.Method]int),
		BackupRequired: execute,
	}

	risk := RiskInput{TotalMoves: len(plan.Moves)}
	for _, m := range plan.Moves {
		s.ByCategory[m.Category]++
		s.ByConfidence[domain.BucketFor(m.Confidence)]++
		s.ByMethod[m.Method]++
		if m.Confidence < 0.4 {
			risk.LowConfidence++
		}
		switch m.Method {
		case domain.MethodFallback:
			risk.Fallback++
		case domain.MethodConsensus:
			risk.Consensus++
		}
		fromCat := categoryOfPath(p.VaultPath, m.FromPath)
		if fromCat != domain.CategoryInbox && fromCat != domain.CategoryUnknown && fromCat != m.Category {
			risk.CrossCategory++
		}
	}
	s.CrossCategory = risk.CrossCategory
	s.Risk = ComputeRisk(risk)
	s.EstimatedDuration = time.Duration(len(plan.Moves)) * perMoveDuration
	return s
}

// categoryOfPath recovers the source bucket from a path's top-level folder
// under the vault root.
func categoryOfPath(vaultPath, path string) domain.Category {
	rel, err := filepath.Rel(vaultPath, path)
	if err != nil {
		return domain.CategoryUnknown
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return domain.CategoryUnknown
	}
	return domain.CategoryForFolder(parts[0])
}

// detectPatterns surfaces notable plan-level observations for the summary.
func detectPatterns(plan *domain.MovePlan) []string {
	var out []string
	daily := 0
	for _, m := range plan.Moves {
		if m.FolderName == "Daily Notes" {
			daily++
		}
	}
	if daily > 0 {
		out = append(out, fmt.Sprintf("%d daily notes routed to Archive/Daily Notes", daily))
	}
	if n := plan.Summary.ByMethod[domain.MethodFallback]; n > 0 {
		out = append(out, fmt.Sprintf("%d low-signal notes defaulted to Archive", n))
	}
	return out
}

type degradationSet struct {
	seen  map[string]struct{}
	order []string
}

func newDegradationSet() *degradationSet {
	return &degradationSet{seen: make(map[string]struct{})}
}

func (d *degradationSet) add(msg string) {
	if _, ok := d.seen[msg]; ok {
		return
	}
	d.seen[msg] = struct{}{}
	d.order = append(d.order, msg)
}

func (d *degradationSet) list() []string { return d.order }

func cancelOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return contract.ErrCancelled
	}
	return err
}
