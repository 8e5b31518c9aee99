package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Id shapes. Final ids look like "E-003"; temporary ids look like "TMP-E-0007".
const (
	tempIDMarker   = "TMP"
	finalIDDigits  = 3
	tempIDDigits   = 4
	nameTokenSplit = "_"
)

var idPattern = regexp.MustCompile(`^(TMP-)?([A-Z])-([0-9]+)$`)

// FormatFinalID returns the finalized id for a sequence number.
func FormatFinalID(ns Namespace, seq int) string {
	return fmt.Sprintf("%s-%0*d", ns.Prefix(), finalIDDigits, seq)
}

// FormatTempID returns the temporary id for an intake ordinal.
func FormatTempID(ns Namespace, ordinal int) string {
	return fmt.Sprintf("%s-%s-%0*d", tempIDMarker, ns.Prefix(), tempIDDigits, ordinal)
}

// ParsedID is the decoded form of a temporary or final id.
type ParsedID struct {
	Namespace Namespace
	Number    int
	Temporary bool
}

// ParseID decodes an id string produced by FormatFinalID or FormatTempID.
func ParseID(s string) (ParsedID, error) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ParsedID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	var ns Namespace
	for candidate, prefix := range namespacePrefixes {
		if prefix == m[2] {
			ns = candidate
		}
	}
	if ns == "" {
		return ParsedID{}, fmt.Errorf("%w: unknown prefix in %q", ErrInvalidID, s)
	}
	n, err := strconv.Atoi(m[3])
	if err != nil || n <= 0 {
		return ParsedID{}, fmt.Errorf("%w: bad number in %q", ErrInvalidID, s)
	}
	return ParsedID{Namespace: ns, Number: n, Temporary: m[1] != ""}, nil
}

// PrefixName prepends an id token to an artifact name ("E-003_scan.pdf").
func PrefixName(id, name string) string {
	return id + nameTokenSplit + name
}

// ReplaceIDToken substitutes oldID with newID in an artifact name. The old
// token must appear as a whole token: the characters around it may not be
// letters or digits, so "E-004" is not found inside "E-0041" or "TMP-E-0004".
// When the token cannot be located the new id is prefixed instead.
func ReplaceIDToken(name, oldID, newID string) string {
	if i := indexToken(name, oldID); i >= 0 {
		return name[:i] + newID + name[i+len(oldID):]
	}
	return PrefixName(newID, name)
}

// ContainsIDToken reports whether id occurs as a whole token in name.
func ContainsIDToken(name, id string) bool {
	return indexToken(name, id) >= 0
}

func indexToken(name, token string) int {
	if token == "" {
		return -1
	}
	from := 0
	for from <= len(name)-len(token) {
		i := strings.Index(name[from:], token)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(token)
		if !isTokenChar(name, i-1) && !isTokenChar(name, end) && !precededByTempMarker(name, i) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isTokenChar(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

// precededByTempMarker rejects a final-id match that is really the tail of
// a temporary id ("TMP-E-0004" must not match "E-0004").
func precededByTempMarker(s string, i int) bool {
	return strings.HasSuffix(s[:i], tempIDMarker+"-")
}
