// Package sqlite implements the evidence catalog backend: JSONL files in
// the data directory are the source of truth and a SQLite database indexes
// them for listing.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-hclog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/docket/pkg/types"
)

// Backend implements types.QueryableCatalog. It holds an exclusive file
// lock on the data directory while attached so that two processes never
// interleave saves.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	lock     *flock.Flock
	logger   hclog.Logger
}

// NewBackend creates a new backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(logger hclog.Logger) *Backend {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Backend{logger: logger.Named("catalog")}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, takes the data directory lock,
// creates the SQLite schema and indexes the JSONL records.
// Returns ErrAlreadyAttached if already attached and ErrCatalogLocked if
// another process holds the lock.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(dataDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", dataDir, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", types.ErrCatalogLocked, dataDir)
	}
	release := func() { _ = lock.Unlock() }

	if err := initJSONLFiles(dataDir); err != nil {
		release()
		return err
	}

	// The index is rebuilt from JSONL on every attach.
	dbPath := filepath.Join(dataDir, databaseFile)
	_ = os.Remove(dbPath)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		release()
		return err
	}
	if err := createSchema(db); err != nil {
		db.Close()
		release()
		return err
	}

	snap, err := loadSnapshot(dataDir, b.logger)
	if err != nil {
		db.Close()
		release()
		return fmt.Errorf("load JSONL: %w", err)
	}
	if err := rebuildIndex(context.Background(), db, snap.Records); err != nil {
		db.Close()
		release()
		return fmt.Errorf("index records: %w", err)
	}

	b.db = db
	b.lock = lock
	b.config = config
	b.dataDir = dataDir
	b.attached = true
	b.logger.Debug("catalog attached", "data_dir", dataDir, "records", len(snap.Records))
	return nil
}

// Detach closes the SQLite connection and releases the lock. After Detach,
// all operations return ErrCatalogDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	var closeErr error
	if b.db != nil {
		closeErr = b.db.Close()
		b.db = nil
	}
	if b.lock != nil {
		if err := b.lock.Unlock(); err != nil && closeErr == nil {
			closeErr = err
		}
		b.lock = nil
	}
	b.attached = false
	return closeErr
}

// Load implements types.PersistentCatalog. Records are read from JSONL, so
// the result reflects the last successful Save even if the index is stale.
func (b *Backend) Load(ctx context.Context) (*types.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCatalogDetached
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadSnapshot(b.dataDir, b.logger)
}

// Save implements types.PersistentCatalog. The records file is replaced
// atomically; the counters file and the index follow. Save does not check
// sequence invariants: a cascade checkpoints intermediate states through
// it.
func (b *Backend) Save(ctx context.Context, snap *types.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrCatalogDetached
	}
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", types.ErrInvariantViolation)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make([]*types.EvidenceRecord, len(snap.Records))
	copy(records, snap.Records)
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].IntakeOrder != records[j].IntakeOrder {
			return records[i].IntakeOrder < records[j].IntakeOrder
		}
		return records[i].RecordID < records[j].RecordID
	})

	lines, err := marshalLines(records)
	if err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(b.dataDir, recordsJSONL), lines); err != nil {
		return fmt.Errorf("persist %s: %w", recordsJSONL, err)
	}
	counters, err := encodeCounters(snap)
	if err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(b.dataDir, countersJSONL), counters); err != nil {
		return fmt.Errorf("persist %s: %w", countersJSONL, err)
	}
	if err := rebuildIndex(ctx, b.db, records); err != nil {
		return fmt.Errorf("index records: %w", err)
	}
	b.logger.Trace("catalog saved", "records", len(records))
	return nil
}

// DataDir returns the attached data directory.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dataDir
}

func createSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}
