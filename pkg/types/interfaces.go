package types

import "context"

// ArtifactStore renames artifacts in the external store that owns them.
// Rename must be safe to invoke once per (ref, newName) pair; stores whose
// handles change on rename return the updated reference.
type ArtifactStore interface {
	Rename(ctx context.Context, ref ArtifactRef, newName string) (ArtifactRef, error)
}

// DatePayloadProvider supplies the ranked raw date strings for a record.
// Content analysis (OCR, model calls, metadata extraction) happens behind
// this interface; the core only parses what it is given.
type DatePayloadProvider interface {
	Candidates(ctx context.Context, rec *EvidenceRecord) ([]DateCandidate, error)
}

// PersistentCatalog is the atomic load/save boundary for record snapshots.
type PersistentCatalog interface {
	// Load returns the current snapshot. Mutating the result does not
	// affect the catalog until Save is called.
	Load(ctx context.Context) (*Snapshot, error)

	// Save replaces the catalog contents with snap atomically.
	Save(ctx context.Context, snap *Snapshot) error
}

// Catalog is a PersistentCatalog with an explicit attach/detach lifecycle.
type Catalog interface {
	PersistentCatalog

	// Attach connects to the backend described by config, creating the data
	// directory if needed. Returns ErrAlreadyAttached when called twice.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error
}

// RecordFilter selects records for Query. Zero values match everything
// except removed records.
type RecordFilter struct {
	Namespace      Namespace
	Status         string
	IncludeRemoved bool
}

// QueryableCatalog is a Catalog that can list records without loading a
// full snapshot.
type QueryableCatalog interface {
	Catalog

	// Query returns matching records ordered by namespace, then confirmed
	// records by sequence number, then pending records by intake order.
	Query(ctx context.Context, filter RecordFilter) ([]*EvidenceRecord, error)
}
