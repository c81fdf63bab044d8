// Package sqlite provides a SQLite-backed vault store for local mode,
// where passports and memories persist on disk without a remote vault.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/heirloomhq/heirloom/pkg/passport"
	"github.com/heirloomhq/heirloom/pkg/vault"
)

// Store implements vault.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite-backed vault store. The dbPath can
// be a file path or ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS passports (
		passport_id TEXT PRIMARY KEY,
		family_name TEXT NOT NULL,
		contributor TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memories (
		memory_id TEXT PRIMARY KEY,
		passport_id TEXT NOT NULL REFERENCES passports(passport_id),
		body TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_memories_passport_id ON memories(passport_id);
	CREATE INDEX IF NOT EXISTS idx_passports_contributor ON passports(contributor);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreatePassport stores the document under a fresh id.
func (s *Store) CreatePassport(ctx context.Context, doc *passport.Passport) (string, error) {
	if doc == nil {
		return "", errors.New("cannot store nil passport")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal passport: %w", err)
	}

	id := uuid.NewString()
	query := `INSERT INTO passports (passport_id, family_name, contributor, body, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		id,
		doc.Heritage.FamilyName,
		doc.Heritage.PrimaryContributor.Name,
		string(body),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("insert passport: %w", err)
	}
	return id, nil
}

// UpdatePassport replaces an existing document body.
func (s *Store) UpdatePassport(ctx context.Context, passportID string, doc *passport.Passport) error {
	if doc == nil {
		return errors.New("cannot store nil passport")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal passport: %w", err)
	}

	query := `UPDATE passports SET family_name = ?, contributor = ?, body = ? WHERE passport_id = ?`
	res, err := s.db.ExecContext(ctx, query,
		doc.Heritage.FamilyName,
		doc.Heritage.PrimaryContributor.Name,
		string(body),
		passportID,
	)
	if err != nil {
		return fmt.Errorf("update passport: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update passport: %w", err)
	}
	if affected == 0 {
		return vault.NotFoundError{ID: passportID}
	}
	return nil
}

// ListPassports returns summary info for all stored passports.
func (s *Store) ListPassports(ctx context.Context) ([]vault.Info, error) {
	query := `SELECT passport_id, family_name, contributor, created_at FROM passports ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list passports: %w", err)
	}
	defer rows.Close()

	var out []vault.Info
	for rows.Next() {
		var info vault.Info
		if err := rows.Scan(&info.PassportID, &info.FamilyName, &info.Contributor, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan passport: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// FindPassportByContributor returns the most recent passport for the named
// contributor, or "".
func (s *Store) FindPassportByContributor(ctx context.Context, name string) (string, error) {
	query := `SELECT passport_id FROM passports WHERE contributor = ? ORDER BY created_at DESC LIMIT 1`
	var id string
	err := s.db.QueryRowContext(ctx, query, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find passport: %w", err)
	}
	return id, nil
}

// CreateMemory stores one memory under an existing passport.
func (s *Store) CreateMemory(ctx context.Context, passportID string, mem passport.Memory) error {
	body, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("marshal memory: %w", err)
	}

	query := `INSERT OR IGNORE INTO memories (memory_id, passport_id, body, created_at) VALUES (?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, mem.MemoryID, passportID, string(body), mem.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// ListMemories returns all memories stored under a passport.
func (s *Store) ListMemories(ctx context.Context, passportID string) ([]passport.Memory, error) {
	if err := s.requirePassport(ctx, passportID); err != nil {
		return nil, err
	}

	query := `SELECT body FROM memories WHERE passport_id = ? ORDER BY created_at, memory_id`
	rows, err := s.db.QueryContext(ctx, query, passportID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []passport.Memory
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		var mem passport.Memory
		if err := json.Unmarshal([]byte(body), &mem); err != nil {
			return nil, fmt.Errorf("unmarshal memory: %w", err)
		}
		out = append(out, mem)
	}
	return out, rows.Err()
}

// ExportPassport returns the full document for a passport id.
func (s *Store) ExportPassport(ctx context.Context, passportID string) (*passport.Passport, error) {
	query := `SELECT body FROM passports WHERE passport_id = ?`
	var body string
	err := s.db.QueryRowContext(ctx, query, passportID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vault.NotFoundError{ID: passportID}
	}
	if err != nil {
		return nil, fmt.Errorf("export passport: %w", err)
	}

	var doc passport.Passport
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal passport: %w", err)
	}
	return &doc, nil
}

func (s *Store) requirePassport(ctx context.Context, passportID string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM passports WHERE passport_id = ?`, passportID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return vault.NotFoundError{ID: passportID}
	}
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
