package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Query implements types.QueryableCatalog using the SQLite index.
func (b *Backend) Query(ctx context.Context, filter types.RecordFilter) ([]*types.EvidenceRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCatalogDetached
	}

	var where []string
	var args []any
	if filter.Namespace != "" {
		if !filter.Namespace.IsValid() {
			return nil, fmt.Errorf("%w: %q", types.ErrInvalidNamespace, filter.Namespace)
		}
		where = append(where, "namespace = ?")
		args = append(args, string(filter.Namespace))
	}
	if filter.Status != "" {
		if filter.Status != types.StatusPending && filter.Status != types.StatusConfirmed {
			return nil, fmt.Errorf("%w: %q", types.ErrInvalidStatus, filter.Status)
		}
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if !filter.IncludeRemoved {
		where = append(where, "removed = 0")
	}

	q := "SELECT body FROM records"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += ` ORDER BY namespace,
    CASE status WHEN 'confirmed' THEN 0 ELSE 1 END,
    sequence_number, intake_order, record_id`

	rows, err := b.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []*types.EvidenceRecord
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var rec types.EvidenceRecord
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}
