// Package types defines the evidence record model, the two identifier
// namespaces, the catalog snapshot, the collaborator interfaces consumed by
// the sequencing core (ArtifactStore, DatePayloadProvider, PersistentCatalog),
// and the standard error values shared by every docket package.
//
// Entity methods only modify structs in memory. Callers load a Snapshot from
// a PersistentCatalog, mutate it, and save it back as one logical unit.
package types
