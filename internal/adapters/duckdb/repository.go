// Package duckdb persists traces in an embedded DuckDB database. Nested
// structures (nodes, logs, metadata) are stored as JSON columns; filtering
// happens on the flat scalar columns.
package duckdb

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/tracedeck/tracedeck/internal/core/services"
)

type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at path and runs migrations.
// An empty path opens an in-memory database.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *Repository) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS traces (
			id                 VARCHAR PRIMARY KEY,
			context_type       VARCHAR NOT NULL,
			reference_id       VARCHAR NOT NULL,
			reference_name     VARCHAR,
			tenant_id          VARCHAR,
			created_by         VARCHAR,
			updated_by         VARCHAR,
			created_at         TIMESTAMP,
			updated_at         TIMESTAMP,
			logs               VARCHAR,
			reference_metadata VARCHAR,
			nodes              VARCHAR,
			node_count         INTEGER
		)`)
	return err
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Ensure Repository satisfies the collector's persistence port.
var _ services.TraceRepository = (*Repository)(nil)
