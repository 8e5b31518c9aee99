// This file loads the JSONL data files and keeps the SQLite index in step
// with them.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// loadSnapshot reads records.jsonl and counters.jsonl from dataDir.
// Malformed lines are skipped and logged. Unknown fields are ignored so
// newer files still load.
func loadSnapshot(dataDir string, logger hclog.Logger) (*types.Snapshot, error) {
	lines, skipped, err := readJSONL(filepath.Join(dataDir, recordsJSONL))
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logger.Warn("skipped malformed lines", "file", recordsJSONL, "count", skipped)
	}

	snap := types.NewSnapshot()
	for _, line := range lines {
		var rec types.EvidenceRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.RecordID == "" {
			logger.Warn("skipped unreadable record", "file", recordsJSONL, "error", err)
			continue
		}
		snap.Records = append(snap.Records, &rec)
	}

	counters, _, err := readJSONL(filepath.Join(dataDir, countersJSONL))
	if err != nil {
		return nil, err
	}
	applyCounters(snap, counters)
	reconcileCounters(snap)
	return snap, nil
}

// rebuildIndex replaces the contents of the records table with records in
// one transaction.
func rebuildIndex(ctx context.Context, db *sql.DB, records []*types.EvidenceRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records index: %w", err)
	}
	if err := insertRecords(ctx, tx, records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index transaction: %w", err)
	}
	return nil
}

// insertRecords inserts records into the records table.
func insertRecords(ctx context.Context, tx *sql.Tx, records []*types.EvidenceRecord) error {
	placeholders := make([]string, len(recordColumns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO records (%s) VALUES (%s)",
		strings.Join(recordColumns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for records: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		args, err := recordArgs(r)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("indexing record %s: %w", r.RecordID, err)
		}
	}
	return nil
}

// recordArgs returns the column values for r in recordColumns order.
func recordArgs(r *types.EvidenceRecord) ([]any, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding record %s: %w", r.RecordID, err)
	}
	var resolved any
	if r.ResolvedDate != nil {
		resolved = r.ResolvedDate.String()
	}
	return []any{
		r.RecordID,
		string(r.Namespace),
		r.Status,
		nullString(r.TempID),
		nullString(r.FinalID),
		nullString(r.DisplayNumber),
		nullString(r.Artifact.Handle),
		nullString(r.Artifact.Name),
		resolved,
		r.SequenceNumber,
		r.IntakeOrder,
		boolInt(r.HasCompletedPayload),
		boolInt(r.Removed),
		nullString(r.MergedInto),
		string(body),
	}, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
