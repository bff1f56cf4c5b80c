package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tracedeck/tracedeck/internal/core/domain"
	"github.com/tracedeck/tracedeck/internal/core/services"
)

// SaveTrace upserts one trace, nodes and all.
func (r *Repository) SaveTrace(ctx context.Context, trace *domain.Trace) error {
	logsJSON, _ := json.Marshal(trace.Logs)
	metaJSON, _ := json.Marshal(trace.ReferenceMetadata)
	nodesJSON, _ := json.Marshal(trace.Nodes)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO traces (id, context_type, reference_id, reference_name, tenant_id,
		                    created_by, updated_by, created_at, updated_at,
		                    logs, reference_metadata, nodes, node_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			reference_name     = excluded.reference_name,
			updated_by         = excluded.updated_by,
			updated_at         = excluded.updated_at,
			logs               = excluded.logs,
			reference_metadata = excluded.reference_metadata,
			nodes              = excluded.nodes,
			node_count         = excluded.node_count`,
		trace.ID,
		string(trace.ContextType),
		trace.ReferenceID,
		trace.ReferenceName,
		trace.TenantID,
		trace.CreatedBy,
		trace.UpdatedBy,
		trace.CreatedAt,
		trace.UpdatedAt,
		string(logsJSON),
		string(metaJSON),
		string(nodesJSON),
		trace.NodeCount(),
	)
	if err != nil {
		return fmt.Errorf("upsert trace: %w", err)
	}
	return nil
}

// ListTraces returns full traces matching the filter, newest first.
func (r *Repository) ListTraces(ctx context.Context, filter services.TraceFilter) ([]domain.Trace, error) {
	var conds []string
	var args []any
	if filter.ContextType != "" {
		conds = append(conds, "context_type = ?")
		args = append(args, string(filter.ContextType))
	}
	if filter.ReferenceID != "" {
		conds = append(conds, "reference_id = ?")
		args = append(args, filter.ReferenceID)
	}
	if filter.TenantID != "" {
		conds = append(conds, "tenant_id = ?")
		args = append(args, filter.TenantID)
	}

	query := `
		SELECT id, context_type, reference_id, reference_name, tenant_id,
		       created_by, updated_by, created_at, updated_at,
		       logs, reference_metadata, nodes
		FROM traces`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	defer rows.Close()

	var out []domain.Trace
	for rows.Next() {
		t, err := scanTrace(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if out == nil {
		out = []domain.Trace{}
	}
	return out, rows.Err()
}

// GetTrace returns one trace by id.
func (r *Repository) GetTrace(ctx context.Context, id string) (*domain.Trace, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, context_type, reference_id, reference_name, tenant_id,
		       created_by, updated_by, created_at, updated_at,
		       logs, reference_metadata, nodes
		FROM traces WHERE id = ?`, id)

	t, err := scanTrace(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trace not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get trace: %w", err)
	}
	return t, nil
}

func scanTrace(scan func(...any) error) (*domain.Trace, error) {
	var t domain.Trace
	var contextType, logsJSON, metaJSON, nodesJSON string

	err := scan(
		&t.ID, &contextType, &t.ReferenceID, &t.ReferenceName, &t.TenantID,
		&t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt,
		&logsJSON, &metaJSON, &nodesJSON,
	)
	if err != nil {
		return nil, err
	}

	t.ContextType = domain.ContextType(contextType)
	if logsJSON != "" && logsJSON != "null" {
		_ = json.Unmarshal([]byte(logsJSON), &t.Logs)
	}
	if metaJSON != "" && metaJSON != "null" {
		_ = json.Unmarshal([]byte(metaJSON), &t.ReferenceMetadata)
	}
	if nodesJSON != "" && nodesJSON != "null" {
		_ = json.Unmarshal([]byte(nodesJSON), &t.Nodes)
	}
	return &t, nil
}
