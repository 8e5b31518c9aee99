package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/docket/pkg/types"
)

func pendingRecord(id string, order int64, date *types.ResolvedDate) *types.EvidenceRecord {
	return &types.EvidenceRecord{
		RecordID:     id,
		Namespace:    types.NamespaceEvidence,
		Status:       types.StatusPending,
		TempID:       types.FormatTempID(types.NamespaceEvidence, int(order)),
		IntakeOrder:  order,
		ResolvedDate: date,
	}
}

func day(y, m, d int) *types.ResolvedDate {
	return &types.ResolvedDate{Year: y, Month: m, Day: d, Precision: types.PrecisionDay}
}

func month(y, m int) *types.ResolvedDate {
	return &types.ResolvedDate{Year: y, Month: m, Precision: types.PrecisionMonth}
}

func year(y int) *types.ResolvedDate {
	return &types.ResolvedDate{Year: y, Precision: types.PrecisionYear}
}

func slotIDs(a Assignment) []string {
	var ids []string
	for _, s := range a.Slots {
		ids = append(ids, s.RecordID)
	}
	return ids
}

func TestAssignOrdering(t *testing.T) {
	tests := []struct {
		name    string
		pending []*types.EvidenceRecord
		want    []string
	}{
		{
			name: "by date",
			pending: []*types.EvidenceRecord{
				pendingRecord("a", 1, day(2023, 6, 1)),
				pendingRecord("b", 2, day(2023, 5, 12)),
				pendingRecord("c", 3, day(2022, 12, 31)),
			},
			want: []string{"c", "b", "a"},
		},
		{
			name: "unknown parts sort last within their year or month",
			pending: []*types.EvidenceRecord{
				pendingRecord("year", 1, year(2023)),
				pendingRecord("month", 2, month(2023, 5)),
				pendingRecord("day", 3, day(2023, 5, 31)),
				pendingRecord("dec", 4, day(2023, 12, 31)),
			},
			want: []string{"day", "month", "dec", "year"},
		},
		{
			name: "same date keeps intake order",
			pending: []*types.EvidenceRecord{
				pendingRecord("second", 2, day(2023, 5, 12)),
				pendingRecord("first", 1, day(2023, 5, 12)),
			},
			want: []string{"first", "second"},
		},
		{
			name: "undated appended in intake order",
			pending: []*types.EvidenceRecord{
				pendingRecord("u2", 5, nil),
				pendingRecord("d", 9, day(2024, 1, 1)),
				pendingRecord("u1", 2, nil),
				pendingRecord("unknown", 3, &types.ResolvedDate{Precision: types.PrecisionUnknown}),
			},
			want: []string{"d", "u1", "unknown", "u2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assign(tt.pending)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slotIDs(got))
			for i, s := range got.Slots {
				assert.Equal(t, i+1, s.Sequence)
				assert.Equal(t, types.FormatFinalID(types.NamespaceEvidence, i+1), s.FinalID)
			}
		})
	}
}

func TestAssignDeterministic(t *testing.T) {
	a := pendingRecord("a", 1, day(2023, 1, 1))
	b := pendingRecord("b", 2, nil)
	c := pendingRecord("c", 3, month(2022, 2))
	first, err := Assign([]*types.EvidenceRecord{a, b, c})
	require.NoError(t, err)
	second, err := Assign([]*types.EvidenceRecord{c, b, a})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssignDoesNotMutate(t *testing.T) {
	pending := []*types.EvidenceRecord{
		pendingRecord("a", 2, day(2023, 1, 1)),
		pendingRecord("b", 1, day(2022, 1, 1)),
	}
	_, err := Assign(pending)
	require.NoError(t, err)
	assert.Equal(t, "a", pending[0].RecordID)
	assert.True(t, pending[0].IsPending())
	assert.Zero(t, pending[0].SequenceNumber)
}

func TestAssignFrom(t *testing.T) {
	got, err := AssignFrom([]*types.EvidenceRecord{pendingRecord("a", 1, nil)}, 4)
	require.NoError(t, err)
	require.Len(t, got.Slots, 1)
	assert.Equal(t, 4, got.Slots[0].Sequence)
	assert.Equal(t, "E-004", got.Slots[0].FinalID)

	_, err = AssignFrom(nil, 0)
	assert.ErrorIs(t, err, types.ErrInvalidPosition)
}

func TestAssignRejectsBadInput(t *testing.T) {
	other := pendingRecord("x", 2, nil)
	other.Namespace = types.NamespaceAttachment
	_, err := Assign([]*types.EvidenceRecord{pendingRecord("a", 1, nil), other})
	assert.ErrorIs(t, err, types.ErrInvalidNamespace)

	done := pendingRecord("d", 1, nil)
	done.Status = types.StatusConfirmed
	_, err = Assign([]*types.EvidenceRecord{done})
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestAssignmentApply(t *testing.T) {
	snap := types.NewSnapshot()
	for _, name := range []string{"a", "b", "c"} {
		_, err := snap.Intake(types.NamespaceEvidence, types.ArtifactRef{Handle: name})
		require.NoError(t, err)
	}
	asg, err := Assign(snap.Pending(types.NamespaceEvidence))
	require.NoError(t, err)
	require.NoError(t, asg.Apply(snap))

	confirmed := snap.Confirmed(types.NamespaceEvidence)
	require.Len(t, confirmed, 3)
	for i, r := range confirmed {
		assert.Equal(t, i+1, r.SequenceNumber)
	}
	assert.NoError(t, snap.ValidateNamespace(types.NamespaceEvidence))
	assert.Error(t, asg.Apply(snap))
}
