// Package catalog provides the public factory for evidence catalogs while
// keeping the backend implementation internal.
package catalog

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/mesh-intelligence/docket/internal/sqlite"
	"github.com/mesh-intelligence/docket/pkg/types"
)

// NewBackend creates a new catalog backend for the named backend type.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	cat, err := catalog.NewBackend(types.BackendSQLite, logger)
//	if err != nil { ... }
//	err = cat.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".docket-db",
//	})
//	defer cat.Detach()
func NewBackend(backend string, logger hclog.Logger) (types.QueryableCatalog, error) {
	switch backend {
	case types.BackendSQLite:
		return sqlite.NewBackend(logger), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, backend)
	}
}

// Open creates the backend named in config and attaches it.
func Open(config types.Config, logger hclog.Logger) (types.QueryableCatalog, error) {
	cat, err := NewBackend(config.Backend, logger)
	if err != nil {
		return nil, err
	}
	if err := cat.Attach(config); err != nil {
		return nil, err
	}
	return cat, nil
}
