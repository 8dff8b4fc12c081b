package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vineelpeddi/BITS-IR-PROJECT/internal/models"
)

// Registry is the SQLite document registry: the id to name mapping written
// once at build time and read by the query and serve phases, plus the build
// history.
type Registry struct {
	db *sql.DB
}

// BuildRecord describes one completed index build.
type BuildRecord struct {
	ID        string
	Zoned     bool
	DocCount  int
	VocabSize int
	CreatedAt time.Time
}

// OpenRegistry opens or creates the registry database at dbPath. Parent
// directories are created if needed.
func OpenRegistry(dbPath string) (*Registry, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		source TEXT,
		indexed_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		zoned INTEGER NOT NULL,
		doc_count INTEGER NOT NULL,
		vocab_size INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_builds_created_at ON builds(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize registry schema: %w", err)
	}
	return &Registry{db: db}, nil
}

// ReplaceDocuments replaces the id to name mapping with docs in one
// transaction, so readers never observe a half-written corpus.
func (r *Registry) ReplaceDocuments(ctx context.Context, docs []models.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, name, source, indexed_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range docs {
		doc := &docs[i]
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Name, doc.Source, now); err != nil {
			return fmt.Errorf("insert document %q: %w", doc.ID, err)
		}
	}
	return tx.Commit()
}

// DocumentName returns the display name for a document id.
func (r *Registry) DocumentName(ctx context.Context, id string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM documents WHERE id = ?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("document %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// CountDocuments returns the number of registered documents.
func (r *Registry) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// RecordBuild appends a build history row and returns it.
func (r *Registry) RecordBuild(ctx context.Context, zoned bool, docCount, vocabSize int) (*BuildRecord, error) {
	rec := &BuildRecord{
		ID:        uuid.New().String(),
		Zoned:     zoned,
		DocCount:  docCount,
		VocabSize: vocabSize,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO builds (id, zoned, doc_count, vocab_size, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Zoned, rec.DocCount, rec.VocabSize, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("record build: %w", err)
	}
	return rec, nil
}

// LatestBuild returns the most recent build record, or ErrNotFound when no
// build has completed yet.
func (r *Registry) LatestBuild(ctx context.Context) (*BuildRecord, error) {
	var rec BuildRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, zoned, doc_count, vocab_size, created_at
		 FROM builds ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&rec.ID, &rec.Zoned, &rec.DocCount, &rec.VocabSize, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no builds recorded: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Close closes the registry database.
func (r *Registry) Close() error {
	return r.db.Close()
}
