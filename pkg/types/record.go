package types

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArtifactRef points at exactly one externally stored artifact. Handle is
// opaque to the core (a file path, an object key, a drive file id); Name is
// the artifact's current display name, which carries the record's id token.
type ArtifactRef struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
}

// IsZero reports whether the reference is empty.
func (a ArtifactRef) IsZero() bool {
	return a.Handle == "" && a.Name == ""
}

// Sibling returns the location an artifact called name would occupy next
// to a. Names only collide when their siblings are equal.
func (a ArtifactRef) Sibling(name string) string {
	dir := path.Dir(strings.ReplaceAll(a.Handle, `\`, "/"))
	if dir == "." || dir == "/" {
		return name
	}
	return path.Join(dir, name)
}

// EvidenceRecord is one intake item bound to one external artifact.
//
// SequenceNumber is 0 while the record is pending and positive once it is
// confirmed. FinalID always matches FormatFinalID(Namespace, SequenceNumber)
// for confirmed records. Removed records stay in the catalog so that every
// merge decision remains visible.
type EvidenceRecord struct {
	RecordID            string        `json:"record_id"`
	Namespace           Namespace     `json:"namespace"`
	Status              string        `json:"status"`
	TempID              string        `json:"temp_id,omitempty"`
	FinalID             string        `json:"final_id,omitempty"`
	DisplayNumber       string        `json:"display_number,omitempty"`
	Artifact            ArtifactRef   `json:"artifact"`
	ResolvedDate        *ResolvedDate `json:"resolved_date,omitempty"`
	SequenceNumber      int           `json:"sequence_number,omitempty"`
	IntakeOrder         int64         `json:"intake_order"`
	HasCompletedPayload bool          `json:"has_completed_payload"`
	Removed             bool          `json:"removed,omitempty"`
	MergedInto          string        `json:"merged_into,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// NewRecordID generates a UUID v7 record key.
func NewRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ID returns the record's current identifier: the final id once confirmed,
// the temporary id before that.
func (r *EvidenceRecord) ID() string {
	if r.Status == StatusConfirmed && r.FinalID != "" {
		return r.FinalID
	}
	return r.TempID
}

// IsLive reports whether the record has not been merged away.
func (r *EvidenceRecord) IsLive() bool {
	return !r.Removed
}

// IsPending reports whether the record is live and still waiting for a
// sequence number.
func (r *EvidenceRecord) IsPending() bool {
	return r.IsLive() && r.Status == StatusPending
}

// IsConfirmed reports whether the record is live and holds a sequence number.
func (r *EvidenceRecord) IsConfirmed() bool {
	return r.IsLive() && r.Status == StatusConfirmed
}

// Confirm moves a pending record into slot seq of its namespace.
// Returns ErrInvalidTransition if the record is not pending and
// ErrInvalidPosition if seq is not positive.
func (r *EvidenceRecord) Confirm(seq int) error {
	if r.Status != StatusPending || r.Removed {
		return ErrInvalidTransition
	}
	if seq <= 0 {
		return ErrInvalidPosition
	}
	r.Status = StatusConfirmed
	r.SequenceNumber = seq
	r.FinalID = FormatFinalID(r.Namespace, seq)
	r.UpdatedAt = time.Now()
	return nil
}

// Renumber moves a confirmed record to a different sequence number.
// The caller is responsible for keeping the namespace contiguous.
func (r *EvidenceRecord) Renumber(seq int) error {
	if r.Status != StatusConfirmed || r.Removed {
		return ErrInvalidTransition
	}
	if seq <= 0 {
		return ErrInvalidPosition
	}
	r.SequenceNumber = seq
	r.FinalID = FormatFinalID(r.Namespace, seq)
	r.UpdatedAt = time.Now()
	return nil
}

// MarkMerged retires the record in favour of the canonical record.
// Idempotent when called again with the same canonical id.
func (r *EvidenceRecord) MarkMerged(canonicalID string) error {
	if canonicalID == "" || canonicalID == r.RecordID {
		return ErrInvalidID
	}
	if r.Removed && r.MergedInto != canonicalID {
		return ErrInvalidTransition
	}
	r.Removed = true
	r.MergedInto = canonicalID
	r.UpdatedAt = time.Now()
	return nil
}

// Clone returns a deep copy of the record.
func (r *EvidenceRecord) Clone() *EvidenceRecord {
	c := *r
	if r.ResolvedDate != nil {
		d := *r.ResolvedDate
		c.ResolvedDate = &d
	}
	return &c
}
