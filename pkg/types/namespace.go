package types

import "fmt"

// Namespace identifies an independent numbering space. Sequence numbers,
// temporary ids and final ids are only unique within one namespace.
type Namespace string

// The two intake classes.
const (
	NamespaceEvidence   Namespace = "evidence"
	NamespaceAttachment Namespace = "attachment"
)

// namespacePrefixes maps each namespace to the letter used in its ids.
var namespacePrefixes = map[Namespace]string{
	NamespaceEvidence:   "E",
	NamespaceAttachment: "A",
}

// Namespaces returns every known namespace in a fixed order.
func Namespaces() []Namespace {
	return []Namespace{NamespaceEvidence, NamespaceAttachment}
}

// IsValid reports whether ns is a known namespace.
func (ns Namespace) IsValid() bool {
	_, ok := namespacePrefixes[ns]
	return ok
}

// Prefix returns the id prefix letter for the namespace, or "" when unknown.
func (ns Namespace) Prefix() string {
	return namespacePrefixes[ns]
}

// String returns the namespace name.
func (ns Namespace) String() string {
	return string(ns)
}

// ParseNamespace converts a user-supplied name into a Namespace.
// Returns ErrInvalidNamespace for anything that is not a known namespace.
func ParseNamespace(s string) (Namespace, error) {
	ns := Namespace(s)
	if !ns.IsValid() {
		return "", fmt.Errorf("%w: %q (valid: %v)", ErrInvalidNamespace, s, Namespaces())
	}
	return ns, nil
}

// Record statuses. A record is created pending and becomes confirmed when it
// receives a sequence number.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// validStatuses is the set of recognized status values.
var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
}
