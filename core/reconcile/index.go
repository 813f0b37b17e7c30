package reconcile

import (
	"fmt"
	"strings"
)

// DedupePolicy decides which record an Index keeps when a key repeats.
type DedupePolicy string

const (
	// DedupeLast keeps the latest record for a key.
	DedupeLast DedupePolicy = "last"
	// DedupeFirst keeps the earliest record for a key.
	DedupeFirst DedupePolicy = "first"
	// DedupeReject treats a repeated key as an error.
	DedupeReject DedupePolicy = "reject"
)

// ParseDedupePolicy converts a configuration value into a DedupePolicy.
func ParseDedupePolicy(s string) (DedupePolicy, error) {
	switch p := DedupePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DedupeLast, DedupeFirst, DedupeReject:
		return p, nil
	case "":
		return DedupeLast, nil
	default:
		return "", fmt.Errorf("unknown dedupe policy %q (use last, first or reject)", s)
	}
}

// Index maps match keys to records and remembers first-insertion order.
// It is built by a single goroutine and then only read.
type Index struct {
	policy     DedupePolicy
	order      []string
	records    map[string]Record
	duplicates int
}

// NewIndex creates an empty Index resolving duplicates with policy.
func NewIndex(policy DedupePolicy) *Index {
	if policy == "" {
		policy = DedupeLast
	}
	return &Index{
		policy:  policy,
		records: make(map[string]Record),
	}
}

// Add indexes rec under key. Under DedupeReject a repeated key returns
// ErrDuplicateKey and leaves the index unchanged.
func (ix *Index) Add(key string, rec Record) error {
	if _, exists := ix.records[key]; !exists {
		ix.order = append(ix.order, key)
		ix.records[key] = rec
		return nil
	}

	ix.duplicates++
	switch ix.policy {
	case DedupeFirst:
	case DedupeReject:
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	default:
		ix.records[key] = rec
	}
	return nil
}

// Lookup returns the record indexed under key.
func (ix *Index) Lookup(key string) (Record, bool) {
	rec, ok := ix.records[key]
	return rec, ok
}

// Len returns the number of distinct keys.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Duplicates returns how many records repeated an already indexed key.
func (ix *Index) Duplicates() int {
	return ix.duplicates
}

// Complement returns, in first-insertion order, the records whose key is
// not in exclude.
func (ix *Index) Complement(exclude *KeySet) []Record {
	out := make([]Record, 0, len(ix.order))
	for _, key := range ix.order {
		if exclude != nil && exclude.Contains(key) {
			continue
		}
		out = append(out, ix.records[key])
	}
	return out
}
