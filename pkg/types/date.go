package types

import "fmt"

// Precision describes how much of a resolved date is known.
type Precision string

// Precision values. The precision is fixed by which pattern matched.
const (
	PrecisionDay     Precision = "day"
	PrecisionMonth   Precision = "month"
	PrecisionYear    Precision = "year"
	PrecisionUnknown Precision = "unknown"
)

// unknownPart stands in for a missing month or day in sort keys so that a
// partially known date sorts after every fully known date in the same period.
const unknownPart = 99

// DateCandidate is one raw date-like string offered for a record, ranked by
// the caller's source priority (lower rank is tried first).
type DateCandidate struct {
	Raw        string  `json:"raw"`
	Source     string  `json:"source,omitempty"`
	SourceRank int     `json:"source_rank"`
	Weight     float64 `json:"weight,omitempty"` // confidence multiplier; 0 means 1
}

// ResolvedDate is the parsed value of the winning candidate.
type ResolvedDate struct {
	Year       int       `json:"year"`
	Month      int       `json:"month,omitempty"`
	Day        int       `json:"day,omitempty"`
	Precision  Precision `json:"precision"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source,omitempty"`
}

// SortKey is the comparable form of a resolved date across precisions.
type SortKey struct {
	Year, Month, Day int
}

// Less orders keys chronologically.
func (k SortKey) Less(o SortKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Day < o.Day
}

// SortKey returns (year, month-or-99, day-or-99).
func (d ResolvedDate) SortKey() SortKey {
	k := SortKey{Year: d.Year, Month: unknownPart, Day: unknownPart}
	switch d.Precision {
	case PrecisionDay:
		k.Month, k.Day = d.Month, d.Day
	case PrecisionMonth:
		k.Month = d.Month
	}
	return k
}

// String returns the canonical form: 2006-01-02, 2006-01 or 2006 depending
// on precision.
func (d ResolvedDate) String() string {
	switch d.Precision {
	case PrecisionDay:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	case PrecisionYear:
		return fmt.Sprintf("%04d", d.Year)
	default:
		return ""
	}
}
