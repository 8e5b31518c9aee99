package types

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Snapshot is the in-memory catalog state a caller loads, mutates and saves
// as one unit. The core never keeps a snapshot between calls.
type Snapshot struct {
	Records         []*EvidenceRecord `json:"records"`
	NextIntakeOrder int64             `json:"next_intake_order"`
	NextTempOrdinal map[Namespace]int `json:"next_temp_ordinal"`
}

// NewSnapshot returns an empty snapshot with counters initialized.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		NextIntakeOrder: 1,
		NextTempOrdinal: make(map[Namespace]int),
	}
}

// Intake registers a new pending record bound to artifact. The record gets
// the next temporary id of its namespace and the next intake order.
func (s *Snapshot) Intake(ns Namespace, artifact ArtifactRef) (*EvidenceRecord, error) {
	if !ns.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNamespace, ns)
	}
	if artifact.Handle == "" {
		return nil, fmt.Errorf("%w: empty artifact handle", ErrInvalidID)
	}
	if owner := s.FindByArtifact(artifact.Handle); owner != nil {
		return nil, fmt.Errorf("%w: %s is bound to %s", ErrArtifactOwned, artifact.Handle, owner.RecordID)
	}
	if s.NextTempOrdinal == nil {
		s.NextTempOrdinal = make(map[Namespace]int)
	}
	if s.NextIntakeOrder <= 0 {
		s.NextIntakeOrder = 1
	}
	if s.NextTempOrdinal[ns] <= 0 {
		s.NextTempOrdinal[ns] = 1
	}

	now := time.Now()
	rec := &EvidenceRecord{
		RecordID:    NewRecordID(),
		Namespace:   ns,
		Status:      StatusPending,
		TempID:      FormatTempID(ns, s.NextTempOrdinal[ns]),
		Artifact:    artifact,
		IntakeOrder: s.NextIntakeOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.NextTempOrdinal[ns]++
	s.NextIntakeOrder++
	s.Records = append(s.Records, rec)
	return rec, nil
}

// Find returns the record with the given record id, live or removed.
func (s *Snapshot) Find(recordID string) (*EvidenceRecord, error) {
	for _, r := range s.Records {
		if r.RecordID == recordID {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

// FindByID returns the live record of ns whose current id is id.
func (s *Snapshot) FindByID(ns Namespace, id string) (*EvidenceRecord, error) {
	for _, r := range s.Records {
		if r.IsLive() && r.Namespace == ns && strings.EqualFold(r.ID(), id) {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

// FindByArtifact returns the live record that owns handle, or nil.
func (s *Snapshot) FindByArtifact(handle string) *EvidenceRecord {
	for _, r := range s.Records {
		if r.IsLive() && r.Artifact.Handle == handle {
			return r
		}
	}
	return nil
}

// Live returns all records that have not been merged away, in intake order.
func (s *Snapshot) Live() []*EvidenceRecord {
	var out []*EvidenceRecord
	for _, r := range s.Records {
		if r.IsLive() {
			out = append(out, r)
		}
	}
	sortByIntake(out)
	return out
}

// Pending returns the live pending records of ns in intake order.
func (s *Snapshot) Pending(ns Namespace) []*EvidenceRecord {
	var out []*EvidenceRecord
	for _, r := range s.Records {
		if r.Namespace == ns && r.IsPending() {
			out = append(out, r)
		}
	}
	sortByIntake(out)
	return out
}

// Confirmed returns the live confirmed records of ns ordered by sequence number.
func (s *Snapshot) Confirmed(ns Namespace) []*EvidenceRecord {
	var out []*EvidenceRecord
	for _, r := range s.Records {
		if r.Namespace == ns && r.IsConfirmed() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SequenceNumber < out[j].SequenceNumber
	})
	return out
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		NextIntakeOrder: s.NextIntakeOrder,
		NextTempOrdinal: make(map[Namespace]int, len(s.NextTempOrdinal)),
		Records:         make([]*EvidenceRecord, len(s.Records)),
	}
	for k, v := range s.NextTempOrdinal {
		c.NextTempOrdinal[k] = v
	}
	for i, r := range s.Records {
		c.Records[i] = r.Clone()
	}
	return c
}

// Validate checks every namespace and the artifact ownership invariant.
// All violations are returned together; each wraps ErrInvariantViolation.
func (s *Snapshot) Validate() error {
	var result *multierror.Error
	for _, r := range s.Records {
		if !r.Namespace.IsValid() {
			result = multierror.Append(result, fmt.Errorf("%w: record %s has unknown namespace %q",
				ErrInvariantViolation, r.RecordID, r.Namespace))
		}
		if !validStatuses[r.Status] {
			result = multierror.Append(result, fmt.Errorf("%w: record %s has status %q",
				ErrInvariantViolation, r.RecordID, r.Status))
		}
	}
	for _, ns := range Namespaces() {
		if err := s.ValidateNamespace(ns); err != nil {
			result = multierror.Append(result, err)
		}
	}

	owners := make(map[string]string)
	for _, r := range s.Live() {
		if r.Artifact.Handle == "" {
			continue
		}
		if other, ok := owners[r.Artifact.Handle]; ok {
			result = multierror.Append(result, fmt.Errorf("%w: artifact %s bound to %s and %s",
				ErrInvariantViolation, r.Artifact.Handle, other, r.RecordID))
			continue
		}
		owners[r.Artifact.Handle] = r.RecordID
	}
	return result.ErrorOrNil()
}

// ValidateNamespace checks that the confirmed sequence of ns is unique and
// contiguous from 1, that final ids match sequence numbers, that pending
// records carry unique temporary ids, and that confirmed artifact names are
// unique within their directory.
func (s *Snapshot) ValidateNamespace(ns Namespace) error {
	return s.ValidateNamespaceWithGap(ns, 0)
}

// ValidateNamespaceWithGap is ValidateNamespace for a namespace whose
// sequence is expected to skip exactly the number gap, as an interrupted
// insert leaves it: 1..N+1 without gap. A gap of 0 means none.
func (s *Snapshot) ValidateNamespaceWithGap(ns Namespace, gap int) error {
	var result *multierror.Error
	seen := make(map[int]string)
	numbered := 0
	tempIDs := make(map[string]string)
	names := make(map[string]string)

	for _, r := range s.Records {
		if r.Namespace != ns || !r.IsLive() {
			continue
		}
		switch r.Status {
		case StatusConfirmed:
			if r.SequenceNumber <= 0 {
				result = multierror.Append(result, fmt.Errorf("%w: %s: confirmed record %s has no sequence number",
					ErrInvariantViolation, ns, r.RecordID))
				break
			}
			numbered++
			if other, ok := seen[r.SequenceNumber]; ok {
				result = multierror.Append(result, fmt.Errorf("%w: %s: sequence %d held by %s and %s",
					ErrInvariantViolation, ns, r.SequenceNumber, other, r.RecordID))
			}
			seen[r.SequenceNumber] = r.RecordID
			if want := FormatFinalID(ns, r.SequenceNumber); r.FinalID != want {
				result = multierror.Append(result, fmt.Errorf("%w: %s: record %s has final id %q, want %q",
					ErrInvariantViolation, ns, r.RecordID, r.FinalID, want))
			}
		case StatusPending:
			if r.SequenceNumber != 0 {
				result = multierror.Append(result, fmt.Errorf("%w: %s: pending record %s has sequence %d",
					ErrInvariantViolation, ns, r.RecordID, r.SequenceNumber))
			}
			if r.TempID == "" {
				result = multierror.Append(result, fmt.Errorf("%w: %s: pending record %s has no temporary id",
					ErrInvariantViolation, ns, r.RecordID))
				break
			}
			if other, ok := tempIDs[r.TempID]; ok {
				result = multierror.Append(result, fmt.Errorf("%w: %s: temporary id %s used by %s and %s",
					ErrInvariantViolation, ns, r.TempID, other, r.RecordID))
			}
			tempIDs[r.TempID] = r.RecordID
		}
		if r.Status == StatusConfirmed && r.Artifact.Name != "" {
			key := r.Artifact.Sibling(r.Artifact.Name)
			if other, ok := names[key]; ok {
				result = multierror.Append(result, fmt.Errorf("%w: %s: artifact name %q used by %s and %s",
					ErrInvariantViolation, ns, key, other, r.RecordID))
			}
			names[key] = r.RecordID
		}
	}

	last := numbered
	if gap > 0 {
		last++
	}
	for seq := 1; seq <= last; seq++ {
		if seq == gap {
			continue
		}
		if _, ok := seen[seq]; !ok {
			result = multierror.Append(result, fmt.Errorf("%w: %s: sequence gap at %d",
				ErrInvariantViolation, ns, seq))
		}
	}
	return result.ErrorOrNil()
}

func sortByIntake(recs []*EvidenceRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].IntakeOrder != recs[j].IntakeOrder {
			return recs[i].IntakeOrder < recs[j].IntakeOrder
		}
		return recs[i].RecordID < recs[j].RecordID
	})
}
