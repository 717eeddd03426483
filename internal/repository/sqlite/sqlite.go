package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gotrabandhus/internal/domain"
	"gotrabandhus/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New opens (and migrates) the database at dbPath. ":memory:" opens a
// private in-memory database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func dsn(dbPath string) string {
	if dbPath == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trees (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS persons (
		tree_id TEXT NOT NULL,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		data JSON,
		father TEXT,
		mother TEXT,
		spouses JSON,
		children JSON,
		PRIMARY KEY (tree_id, id),
		FOREIGN KEY (tree_id) REFERENCES trees(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS profiles (
		tree_id TEXT PRIMARY KEY,
		data JSON NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_persons_tree_position ON persons(tree_id, position);
	`

	_, err := r.db.Exec(schema)
	return err
}

// GetTree loads a tree in stored node order
func (r *Repository) GetTree(ctx context.Context, treeID string) (*domain.FamilyGraph, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+personColumns+`
		FROM persons
		WHERE tree_id = ?
		ORDER BY position
	`, treeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	g := domain.NewFamilyGraph()
	for rows.Next() {
		var row personRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		node, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("person %s: %w", row.ID, err)
		}
		g.Put(node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating persons: %w", err)
	}

	return g, nil
}

// SaveTree replaces all persons of the tree in one transaction
func (r *Repository) SaveTree(ctx context.Context, treeID string, g *domain.FamilyGraph) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trees (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, treeID, now, now); err != nil {
		return fmt.Errorf("failed to upsert tree: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE tree_id = ?`, treeID); err != nil {
		return fmt.Errorf("failed to clear persons: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO persons (`+personColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare person statement: %w", err)
	}
	defer stmt.Close()

	for i, node := range g.Nodes() {
		args, err := personInsertArgs(treeID, i, node)
		if err != nil {
			return fmt.Errorf("person %s: %w", node.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert person %s: %w", node.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteTree removes a tree, its persons and its profile
func (r *Repository) DeleteTree(ctx context.Context, treeID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE tree_id = ?`, treeID); err != nil {
		return fmt.Errorf("failed to delete persons: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trees WHERE id = ?`, treeID); err != nil {
		return fmt.Errorf("failed to delete tree: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE tree_id = ?`, treeID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListTrees returns every stored tree with its member count
func (r *Repository) ListTrees(ctx context.Context) ([]repository.TreeSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.updated_at, COUNT(p.id)
		FROM trees t
		LEFT JOIN persons p ON p.tree_id = t.id
		GROUP BY t.id, t.updated_at
		ORDER BY t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trees: %w", err)
	}
	defer rows.Close()

	trees := make([]repository.TreeSummary, 0)
	for rows.Next() {
		var (
			summary   repository.TreeSummary
			updatedAt int64
		)
		if err := rows.Scan(&summary.ID, &updatedAt, &summary.Members); err != nil {
			return nil, fmt.Errorf("failed to scan tree: %w", err)
		}
		summary.UpdatedAt = time.UnixMilli(updatedAt)
		trees = append(trees, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trees: %w", err)
	}
	return trees, nil
}

// GetProfile returns the saved profile, or nil if there is none
func (r *Repository) GetProfile(ctx context.Context, treeID string) (*domain.Profile, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM profiles WHERE tree_id = ?`, treeID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	var p domain.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

// SaveProfile stores the profile of a tree's owner
func (r *Repository) SaveProfile(ctx context.Context, treeID string, p *domain.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (tree_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(tree_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, treeID, string(data), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
