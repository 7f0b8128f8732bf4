package ingest

import "github.com/bits-and-blooms/bloom/v3"

// Deduper reports whether a product ID was already seen.
//
// The bloom filter answers the common case of a new ID without touching the
// map; the map confirms positives, so there are no false duplicates.
type Deduper struct {
	filter *bloom.BloomFilter
	seen   map[string]struct{}
}

// NewDeduper sizes the filter for roughly capacity IDs at the given false
// positive rate.
func NewDeduper(capacity uint, fpr float64) *Deduper {
	return &Deduper{
		filter: bloom.NewWithEstimates(capacity, fpr),
		seen:   make(map[string]struct{}),
	}
}

// Seen marks id and returns true if it was marked before.
func (d *Deduper) Seen(id string) bool {
	if !d.filter.TestAndAddString(id) {
		d.seen[id] = struct{}{}
		return false
	}
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

// Len returns the number of distinct IDs seen.
func (d *Deduper) Len() int { return len(d.seen) }
