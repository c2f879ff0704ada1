package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// SchemaVersion is the current on-disk schema tag. A database reporting a
// higher version than this binary understands is treated as corrupted by
// the integrity check in the service layer.
const SchemaVersion = 2

// Migrate runs all schema migrations in order. Statements are idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE re-runs tolerate duplicate columns.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if _, err := db.Exec(
		`INSERT INTO schema_info (id, version) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version = MAX(version, excluded.version)`,
		SchemaVersion,
	); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}

// CurrentSchemaVersion reads the stored schema tag.
func CurrentSchemaVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow(`SELECT version FROM schema_info WHERE id = 1`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schema_info (
		id      INTEGER PRIMARY KEY CHECK(id = 1),
		version INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS index_entries (
		note_id       TEXT PRIMARY KEY,
		embedding     BLOB,
		dimension     INTEGER NOT NULL DEFAULT 0,
		content_hash  TEXT NOT NULL DEFAULT '',
		path          TEXT NOT NULL,
		title         TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL
		              CHECK(category IN ('Projects','Areas','Resources','Archive','Inbox','Unknown')),
		folder_name   TEXT NOT NULL DEFAULT '',
		word_count    INTEGER NOT NULL DEFAULT 0,
		needs_reembed INTEGER NOT NULL DEFAULT 0,
		first_seen    TEXT NOT NULL,
		last_updated  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_index_entries_category ON index_entries(category)`,
	`CREATE INDEX IF NOT EXISTS idx_index_entries_reembed ON index_entries(needs_reembed)`,

	`CREATE TABLE IF NOT EXISTS decisions (
		id              TEXT PRIMARY KEY,
		note_id         TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		category        TEXT NOT NULL
		                CHECK(category IN ('Projects','Areas','Resources','Archive')),
		folder_name     TEXT NOT NULL DEFAULT '',
		confidence      REAL NOT NULL CHECK(confidence >= 0 AND confidence <= 1),
		method          TEXT NOT NULL
		                CHECK(method IN ('consensus','semantic_weighted','llm_weighted','rule_weighted',
		                                 'semantic_only','llm_only','rule_only','fallback')),
		semantic_score  REAL NOT NULL DEFAULT 0,
		llm_score       REAL NOT NULL DEFAULT 0,
		rule_score      REAL NOT NULL DEFAULT 0,
		weight_semantic REAL NOT NULL DEFAULT 0,
		weight_llm      REAL NOT NULL DEFAULT 0,
		weight_rule     REAL NOT NULL DEFAULT 0,
		reasoning       TEXT NOT NULL DEFAULT '',
		factors         TEXT NOT NULL DEFAULT '{}',
		feedback        TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_decisions_note ON decisions(note_id)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at)`,

	`CREATE TABLE IF NOT EXISTS feedback (
		id          TEXT PRIMARY KEY,
		decision_id TEXT NOT NULL REFERENCES decisions(id),
		action      TEXT NOT NULL CHECK(action IN ('accepted','rejected','corrected')),
		correction  TEXT NOT NULL DEFAULT '',
		notes       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_feedback_decision ON feedback(decision_id)`,

	`CREATE TABLE IF NOT EXISTS folder_feedback (
		id              TEXT PRIMARY KEY,
		folder_name     TEXT NOT NULL,
		category        TEXT NOT NULL,
		content_excerpt TEXT NOT NULL DEFAULT '',
		tags            TEXT NOT NULL DEFAULT '[]',
		patterns        TEXT NOT NULL DEFAULT '[]',
		user_action     TEXT NOT NULL,
		reason          TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS learning_snapshots (
		id                     TEXT PRIMARY KEY,
		created_at             TEXT NOT NULL,
		total_classifications  INTEGER NOT NULL,
		accuracy_rate          REAL NOT NULL,
		confidence_correlation REAL NOT NULL,
		learning_velocity      REAL NOT NULL,
		category_balance       REAL NOT NULL,
		semantic_coherence     REAL NOT NULL,
		user_satisfaction      REAL NOT NULL,
		system_adaptability    REAL NOT NULL,
		improvement_score      REAL NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_learning_snapshots_created ON learning_snapshots(created_at)`,

	`CREATE TABLE IF NOT EXISTS policy (
		id       INTEGER PRIMARY KEY CHECK(id = 1),
		document TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`,
}
