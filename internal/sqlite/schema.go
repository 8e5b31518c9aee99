package sqlite

// Schema DDL for the records index. The JSONL file is the source of truth;
// body holds the full record as written there.
const (
	createRecords = `CREATE TABLE records (
    record_id TEXT PRIMARY KEY,
    namespace TEXT NOT NULL,
    status TEXT NOT NULL,
    temp_id TEXT,
    final_id TEXT,
    display_number TEXT,
    artifact_handle TEXT,
    artifact_name TEXT,
    resolved_date TEXT,
    sequence_number INTEGER NOT NULL DEFAULT 0,
    intake_order INTEGER NOT NULL,
    has_completed_payload INTEGER NOT NULL DEFAULT 0,
    removed INTEGER NOT NULL DEFAULT 0,
    merged_into TEXT,
    body TEXT NOT NULL
);`
)

// Index DDL for list queries.
const (
	idxRecordsNamespaceStatus = `CREATE INDEX idx_records_namespace_status ON records(namespace, status);`
	idxRecordsSequence        = `CREATE INDEX idx_records_sequence ON records(namespace, sequence_number);`
	idxRecordsArtifact        = `CREATE INDEX idx_records_artifact ON records(artifact_handle);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createRecords,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRecordsNamespaceStatus,
	idxRecordsSequence,
	idxRecordsArtifact,
}

// recordColumns lists the records columns in insert order.
var recordColumns = []string{
	"record_id", "namespace", "status", "temp_id", "final_id", "display_number",
	"artifact_handle", "artifact_name", "resolved_date", "sequence_number",
	"intake_order", "has_completed_payload", "removed", "merged_into", "body",
}
