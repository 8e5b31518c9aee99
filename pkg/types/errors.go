package types

import "errors"

// Sequencing error kinds. ErrParseFailure and ErrMergeAmbiguity are
// non-fatal and only surface in reports and logs; ErrInvariantViolation and
// ErrRenameFailure abort the operation that raised them.
var (
	ErrParseFailure       = errors.New("date source could not be parsed")
	ErrInvariantViolation = errors.New("sequence invariant violated")
	ErrRenameFailure      = errors.New("artifact rename failed")
	ErrMergeAmbiguity     = errors.New("multiple canonical candidates")
)

// Record errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidID         = errors.New("invalid identifier")
	ErrInvalidNamespace  = errors.New("invalid namespace")
	ErrInvalidStatus     = errors.New("invalid status value")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidPosition   = errors.New("invalid sequence position")
	ErrArtifactOwned     = errors.New("artifact is already bound to another record")
)

// Artifact store errors.
var (
	ErrArtifactExists   = errors.New("artifact target name already exists")
	ErrArtifactNotFound = errors.New("artifact not found")
)

// Catalog lifecycle errors.
var (
	ErrCatalogDetached = errors.New("catalog is detached")
	ErrAlreadyAttached = errors.New("catalog is already attached")
	ErrCatalogLocked   = errors.New("catalog is locked by another process")
)
