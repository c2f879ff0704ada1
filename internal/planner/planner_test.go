package planner

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/feature"
	"github.com/jagoff/obsidian-para/internal/index"
	"github.com/jagoff/obsidian-para/internal/llm"
	"github.com/jagoff/obsidian-para/internal/repository"
	"github.com/jagoff/obsidian-para/internal/testutil"
	"github.com/jagoff/obsidian-para/internal/vault"
)

type stubExcluder struct{ prefixes []string }

func (e *stubExcluder) Contains(path string) bool {
	for _, p := range e.prefixes {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

type fixture struct {
	planner  *Planner
	vault    *testutil.VaultBuilder
	repo     *repository.SQLiteIndexRepo
	excluder *stubExcluder
	embedder *testutil.FakeEmbedder
	llm      *testutil.FakeClassifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := testutil.NewVault(t)
	db := testutil.NewTestDB(t)
	repo := repository.NewSQLiteIndexRepo(db)
	embedder := testutil.NewFakeEmbedder()
	classifier := &testutil.FakeClassifier{}
	excluder := &stubExcluder{}

	f := &fixture{
		planner: &Planner{
			VaultPath:  b.Root,
			Reader:     vault.NewReader(nil, excluder),
			Cache:      feature.NewCache(),
			Index:      index.New(repo, embedder),
			Classifier: classifier,
			Policy:     repository.NewSQLitePolicyRepo(db),
			NeighborK:  5,
		},
		vault:    b,
		repo:     repo,
		excluder: excluder,
		embedder: embedder,
		llm:      classifier,
	}
	return f
}

// seedIndex fills the semantic index so it is not sparse.
func (f *fixture) seedIndex(t *testing.T, n int, cat domain.Category) {
	t.Helper()
	for i := 0; i < n; i++ {
		vec, err := f.embedder.Embed(context.Background(), "seed "+string(rune('a'+i%26)))
		require.NoError(t, err)
		require.NoError(t, f.repo.Upsert(context.Background(), &repository.IndexEntry{
			NoteID:    "seed-" + string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Embedding: vec,
			Path:      "/elsewhere/seed.md",
			Category:  cat,
		}))
	}
}

// A tagged inbox note with todos and a date moves to Projects with a clean
// folder name and solid confidence.
func TestPlanInboxClassifiesTaggedProjectNote(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("00-Inbox/todo-draft-app.md", `---
tags: [project]
---
- [ ] sketch screens
- [ ] wire backend
- [ ] ship beta
Deadline 2025-03-01.
`)
	f.llm.Result = &llm.Classification{
		Category:   domain.CategoryProjects,
		FolderName: "Draft App Build",
		Reasoning:  "open tasks with a deadline",
	}
	f.seedIndex(t, 30, domain.CategoryProjects)

	result, err := f.planner.Build(context.Background(), Request{
		Scope:     domain.ScopeInbox,
		Directive: "ship fast",
	})
	require.NoError(t, err)

	plan := result.Plan
	require.Len(t, plan.Moves, 1)
	move := plan.Moves[0]

	assert.Equal(t, domain.CategoryProjects, move.Category)
	assert.Contains(t, move.ToPath, filepath.Join("01-Projects", move.FolderName))
	assert.Equal(t, "todo-draft-app.md", filepath.Base(move.ToPath))
	assert.Greater(t, move.Confidence, 0.7)
	assert.Contains(t, []domain.Method{domain.MethodConsensus, domain.MethodRuleWeighted}, move.Method)

	words := len(strings.Fields(move.FolderName))
	assert.GreaterOrEqual(t, words, 2)
	assert.LessOrEqual(t, words, 4)
	assert.NotRegexp(t, `[_ ]\d+$`, move.FolderName)
}

// An empty daily note archives under a shared Daily Notes folder.
func TestPlanInboxArchivesEmptyDailyNote(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("00-Inbox/2024-11-03.md", "hi\n")
	f.llm.Err = llm.ErrUnavailable

	result, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox})
	require.NoError(t, err)

	require.Len(t, result.Plan.Moves, 1)
	move := result.Plan.Moves[0]
	assert.Equal(t, domain.CategoryArchive, move.Category)
	assert.Equal(t, filepath.Join(f.vault.Root, "04-Archive", "Daily Notes", "2024-11-03.md"), move.ToPath)
	assert.Contains(t, move.Reasoning, "empty daily note")
}

// Notes under excluded subtrees never appear in a plan.
func TestPlanOmitsExcludedSubtrees(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("00-Inbox/visible.md", "- [ ] work\n")
	excluded := filepath.Join(f.vault.Root, "02-Areas", "Personal")
	f.vault.Note("02-Areas/Personal/diary.md", "private\n")
	f.excluder.prefixes = []string{excluded}
	f.llm.Err = llm.ErrUnavailable

	result, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeAll})
	require.NoError(t, err)

	for _, m := range result.Plan.Moves {
		assert.NotContains(t, m.FromPath, "Personal")
	}
	for _, d := range result.Plan.Decisions {
		assert.NotEqual(t, domain.NoteID(filepath.Join(excluded, "diary.md")), d.NoteID)
	}
}

// Simulation is idempotent: the same unchanged vault yields the same action set.
func TestPlanSimulationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.vault.NoteWithAge("00-Inbox/one.md", "- [ ] a 2025-01-02\n", time.Hour)
	f.vault.NoteWithAge("00-Inbox/2024-12-01.md", "x\n", time.Hour)
	f.llm.Err = llm.ErrUnavailable

	first, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox})
	require.NoError(t, err)
	second, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox})
	require.NoError(t, err)

	actions := func(plan *domain.MovePlan) []string {
		var out []string
		for _, m := range plan.Moves {
			out = append(out, m.FromPath+" -> "+m.ToPath)
		}
		sort.Strings(out)
		return out
	}
	assert.Equal(t, actions(first.Plan), actions(second.Plan))
}

// Execute-mode plans require a configured exclusion registry; simulation
// does not.
func TestPlanExecuteRequiresConfiguredExclusions(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("00-Inbox/a.md", "text\n")
	f.llm.Err = llm.ErrUnavailable

	_, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox, Execute: true})
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindPrecondition))

	_, err = f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox})
	assert.NoError(t, err)

	_, err = f.planner.Build(context.Background(), Request{
		Scope: domain.ScopeInbox, Execute: true, ExclusionsConfigured: true,
	})
	assert.NoError(t, err)
}

// With the LLM down and a populated index, decisions still come out of the
// semantic path and the plan reports the degradation.
func TestPlanDegradesWhenLLMFails(t *testing.T) {
	f := newFixture(t)
	body := "meeting notes about the quarterly budget review\n"
	f.vault.Note("00-Inbox/budget.md", body)
	f.llm.Err = llm.ErrUnavailable

	// Neighbors that embed near the note's own vector.
	vec, err := f.embedder.Embed(context.Background(), body)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		entry := &repository.IndexEntry{
			NoteID:    "seed-" + string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Embedding: vec,
			Path:      "/elsewhere/x.md",
			Category:  domain.CategoryAreas,
		}
		require.NoError(t, f.repo.Upsert(context.Background(), entry))
	}

	result, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox})
	require.NoError(t, err)

	assert.Contains(t, result.Degradations, "LLM degraded")
	require.Len(t, result.Plan.Decisions, 1)
	d := result.Plan.Decisions[0]
	assert.Contains(t, []domain.Method{domain.MethodSemanticWeighted, domain.MethodSemanticOnly}, d.Method)
	assert.Equal(t, domain.CategoryAreas, d.Category)
}

// Embedder failure degrades to rules (and LLM when available).
func TestPlanDegradesWhenEmbedderFails(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("00-Inbox/note.md", "- [ ] a 2025-05-05\n")
	f.embedder.Fail = true
	f.llm.Result = &llm.Classification{
		Category:   domain.CategoryProjects,
		FolderName: "Spring Launch Work",
		Reasoning:  "tasks",
	}

	result, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox})
	require.NoError(t, err)
	assert.Contains(t, result.Degradations, "embedder unavailable")
	require.Len(t, result.Plan.Decisions, 1)
	assert.NotEqual(t, domain.MethodSemanticOnly, result.Plan.Decisions[0].Method)
}

func TestPlanMaxNotesCap(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a", "b", "c", "d"} {
		f.vault.Note("00-Inbox/"+name+".md", "text here\n")
	}
	f.llm.Err = llm.ErrUnavailable
	f.planner.MaxNotes = 2

	result, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox})
	require.NoError(t, err)
	assert.Len(t, result.Plan.Decisions, 2)
}

func TestPlanCancellation(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("00-Inbox/a.md", "text\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.planner.Build(ctx, Request{Scope: domain.ScopeInbox})
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindCancelled))
}

func TestPlanPathScope(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("00-Inbox/in.md", "inside\n")
	f.vault.Note("03-Resources/Go Notes/out.md", "outside\n")
	f.llm.Err = llm.ErrUnavailable

	result, err := f.planner.Build(context.Background(), Request{
		Scope:     domain.ScopePath,
		ScopePath: filepath.Join(f.vault.Root, "03-Resources"),
	})
	require.NoError(t, err)
	require.Len(t, result.Plan.Decisions, 1)

	_, err = f.planner.Build(context.Background(), Request{
		Scope:     domain.ScopePath,
		ScopePath: t.TempDir(),
	})
	assert.True(t, contract.IsKind(err, contract.KindPrecondition))
}

// A note already in the right category only moves under fix-names, and only
// when its folder violates the naming rules.
func TestPlanFixNamesRepairsBadFolders(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("01-Projects/Budget Plans_2/note.md", `---
tags: [project]
---
- [ ] budget work 2025-06-01
`)
	f.llm.Err = llm.ErrUnavailable

	result, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeAll})
	require.NoError(t, err)
	assert.Empty(t, result.Plan.Moves)

	result, err = f.planner.Build(context.Background(), Request{Scope: domain.ScopeAll, FixNames: true})
	require.NoError(t, err)
	require.Len(t, result.Plan.Moves, 1)
	move := result.Plan.Moves[0]
	assert.Equal(t, domain.CategoryProjects, move.Category)
	assert.NotRegexp(t, `[_ ]\d+$`, move.FolderName)
}

func TestPlanEmbedderUnavailableStillArchivesByFallback(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("00-Inbox/mystery.md", "short text\n")
	f.embedder.Fail = true
	f.llm.Err = llm.ErrUnavailable

	result, err := f.planner.Build(context.Background(), Request{Scope: domain.ScopeInbox})
	require.NoError(t, err)
	require.Len(t, result.Plan.Decisions, 1)
	d := result.Plan.Decisions[0]
	assert.Equal(t, domain.MethodFallback, d.Method)
	assert.Equal(t, domain.CategoryArchive, d.Category)
	assert.Less(t, d.Confidence, 0.4)
}
