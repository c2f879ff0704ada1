package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jagoff/obsidian-para/internal/db"
	"github.com/jagoff/obsidian-para/internal/domain"
)

// SQLiteIndexRepo implements IndexRepo over a DBTX.
type SQLiteIndexRepo struct {
	db db.DBTX
}

// NewSQLiteIndexRepo creates an IndexRepo bound to the given connection or
// transaction.
func NewSQLiteIndexRepo(dbtx db.DBTX) *SQLiteIndexRepo {
	return &SQLiteIndexRepo{db: dbtx}
}

const indexColumns = `note_id, embedding, dimension, content_hash, path, title,
	category, folder_name, word_count, needs_reembed, first_seen, last_updated`

func (r *SQLiteIndexRepo) Upsert(ctx context.Context, e *IndexEntry) error {
	now := nowUTC()
	firstSeen := now
	if !e.FirstSeen.IsZero() {
		firstSeen = e.FirstSeen.UTC().Format(time.RFC3339Nano)
	}
	query := `INSERT INTO index_entries (` + indexColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			content_hash = excluded.content_hash,
			path = excluded.path,
			title = excluded.title,
			category = excluded.category,
			folder_name = excluded.folder_name,
			word_count = excluded.word_count,
			needs_reembed = excluded.needs_reembed,
			last_updated = excluded.last_updated`
	_, err := r.db.ExecContext(ctx, query,
		e.NoteID,
		vectorToBlob(e.Embedding),
		len(e.Embedding),
		e.ContentHash,
		e.Path,
		e.Title,
		string(e.Category),
		e.FolderName,
		e.WordCount,
		boolToInt(e.NeedsReembed),
		firstSeen,
		now,
	)
	if err != nil {
		return fmt.Errorf("upserting index entry: %w", err)
	}
	return nil
}

func (r *SQLiteIndexRepo) Get(ctx context.Context, noteID string) (*IndexEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+indexColumns+` FROM index_entries WHERE note_id = ?`, noteID)
	e, err := scanIndexEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (r *SQLiteIndexRepo) Delete(ctx context.Context, noteID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM index_entries WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("deleting index entry: %w", err)
	}
	return nil
}

func (r *SQLiteIndexRepo) List(ctx context.Context) ([]*IndexEntry, error) {
	return r.list(ctx, `SELECT `+indexColumns+` FROM index_entries ORDER BY note_id`)
}

func (r *SQLiteIndexRepo) ListNeedingReembed(ctx context.Context) ([]*IndexEntry, error) {
	return r.list(ctx, `SELECT `+indexColumns+` FROM index_entries WHERE needs_reembed = 1 ORDER BY note_id`)
}

func (r *SQLiteIndexRepo) list(ctx context.Context, query string) ([]*IndexEntry, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing index entries: %w", err)
	}
	defer rows.Close()

	var entries []*IndexEntry
	for rows.Next() {
		e, err := scanIndexEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating index entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteIndexRepo) CategoryDistribution(ctx context.Context) (map[domain.Category]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM index_entries GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("querying category distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[domain.Category]int)
	for rows.Next() {
		var cat string
		var count int
		if err := rows.Scan(&cat, &count); err != nil {
			return nil, fmt.Errorf("scanning distribution row: %w", err)
		}
		dist[domain.Category(cat)] = count
	}
	return dist, rows.Err()
}

func (r *SQLiteIndexRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting index entries: %w", err)
	}
	return n, nil
}

func scanIndexEntry(scan func(...any) error) (*IndexEntry, error) {
	var e IndexEntry
	var blob []byte
	var dim, reembed int
	var catStr, firstSeen, lastUpdated string

	err := scan(
		&e.NoteID, &blob, &dim, &e.ContentHash, &e.Path, &e.Title,
		&catStr, &e.FolderName, &e.WordCount, &reembed, &firstSeen, &lastUpdated,
	)
	if err != nil {
		return nil, err
	}
	e.Embedding = blobToVector(blob)
	e.Category = domain.Category(catStr)
	e.NeedsReembed = reembed != 0
	e.FirstSeen = parseTime(firstSeen)
	e.LastUpdated = parseTime(lastUpdated)
	return &e, nil
}
