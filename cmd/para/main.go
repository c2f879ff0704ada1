package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/jagoff/obsidian-para/internal/cli"
	"github.com/jagoff/obsidian-para/internal/config"
	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/db"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/embedding"
	"github.com/jagoff/obsidian-para/internal/exclusion"
	"github.com/jagoff/obsidian-para/internal/executor"
	"github.com/jagoff/obsidian-para/internal/feature"
	"github.com/jagoff/obsidian-para/internal/index"
	"github.com/jagoff/obsidian-para/internal/learning"
	"github.com/jagoff/obsidian-para/internal/llm"
	"github.com/jagoff/obsidian-para/internal/planner"
	"github.com/jagoff/obsidian-para/internal/repository"
	"github.com/jagoff/obsidian-para/internal/service"
	"github.com/jagoff/obsidian-para/internal/snapshot"
	"github.com/jagoff/obsidian-para/internal/vault"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	configPath := os.Getenv("PARA_CONFIG")
	if configPath == "" {
		configPath = "para.json"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return cli.ExitPrecondition, err
	}
	if err := cfg.ResolveVault(defaultSearchRoots()); err != nil {
		return cli.ExitPrecondition, err
	}

	registry, err := exclusion.Open(filepath.Join(cfg.VaultPath, config.AppDirName))
	if err != nil {
		return cli.ExitFatalIO, err
	}
	for _, p := range cfg.Exclusions {
		if err := registry.Add(p, "configured"); err != nil {
			return cli.ExitFatalIO, err
		}
	}
	session := service.NewSession(cfg, registry)

	// Single-writer policy: the index directory lock serializes mutating
	// processes for the whole invocation.
	lock, err := db.AcquireLock(cfg.IndexPath)
	if err != nil {
		return cli.ExitPrecondition, contract.Preconditionf(
			"another para process is running; wait for it or remove a stale lock", "%v", err)
	}
	defer lock.Release()

	database, err := db.OpenDB(filepath.Join(cfg.IndexPath, "para.db"))
	if err != nil {
		return cli.ExitFatalIO, err
	}
	defer database.Close()

	var useCaseObserver service.UseCaseObserver = service.NoopUseCaseObserver{}
	if envEnabled("PARA_LOG_USECASES") {
		useCaseObserver = service.NewLogUseCaseObserver(os.Stderr)
	}
	var llmObserver llm.Observer = llm.NoopObserver{}
	if envEnabled("PARA_LOG_LLM") {
		llmObserver = llm.NewLogObserver(os.Stderr)
	}

	// Repositories.
	indexRepo := repository.NewSQLiteIndexRepo(database)
	decisionRepo := repository.NewSQLiteDecisionRepo(database)
	feedbackRepo := repository.NewSQLiteFeedbackRepo(database)
	folderFeedbackRepo := repository.NewSQLiteFolderFeedbackRepo(database)
	snapshotRepo := repository.NewSQLiteLearningSnapshotRepo(database)
	policyRepo := repository.NewSQLitePolicyRepo(database)

	// External collaborators.
	embedCfg := embedding.LoadConfig()
	embedCfg.Model = cfg.EmbeddingModel
	embedder := embedding.WithCache(embedding.NewOllamaEmbedder(embedCfg), domain.ContentHash)

	llmCfg := llm.LoadConfig()
	llmCfg.Model = cfg.LLMModel
	classifier := llm.NewClassifier(llm.NewOllamaClient(llmCfg, llmObserver), cfg.MaxPromptWords)

	// Core components.
	reader := vault.NewReader(cfg.NoteExtensions, registry)
	semanticIndex := index.New(indexRepo, embedder)
	snapshots := snapshot.NewStore(cfg.SnapshotPath, registry)
	learningStore := learning.NewStore(decisionRepo, feedbackRepo, folderFeedbackRepo, snapshotRepo, policyRepo, cfg.RecentHistoryN)

	notePlanner := &planner.Planner{
		VaultPath:  cfg.VaultPath,
		Reader:     reader,
		Cache:      feature.NewCache(),
		Index:      semanticIndex,
		Classifier: classifier,
		Policy:     policyRepo,
		NeighborK:  cfg.NeighborK,
		MaxNotes:   cfg.MaxNotesPerRun,
	}
	planExecutor := &executor.Executor{
		VaultPath: cfg.VaultPath,
		Snapshots: snapshots,
		Index:     semanticIndex,
		Decisions: decisionRepo,
		Reader:    reader,
		Excluder:  registry,
	}

	app := &cli.App{
		Session:    session,
		Plans:      service.NewPlanService(session, notePlanner, useCaseObserver),
		Executions: service.NewExecuteService(session, planExecutor, learningStore, database, useCaseObserver),
		Reindexer:  service.NewReindexService(session, reader, semanticIndex, indexRepo, useCaseObserver),
		Snapshots:  service.NewSnapshotService(session, snapshots, indexRepo, useCaseObserver),
		Exclusions: service.NewExclusionService(session, useCaseObserver),
		Learning:   service.NewLearningService(learningStore, indexRepo, useCaseObserver),
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	return cli.Execute(app, os.Args[1:]), nil
}

func defaultSearchRoots() []string {
	var roots []string
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots,
			home,
			filepath.Join(home, "Documents"),
			filepath.Join(home, "Obsidian"),
		)
	}
	return roots
}

func envEnabled(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
