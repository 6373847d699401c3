// Package aggregator holds the merged suggestion list and the per-region
// completion ledger of a single round. It performs no I/O and no locking;
// the coordinator owns synchronization.
package aggregator

import (
	"fmt"

	"github.com/rubiojr/gsuggest/pkg/core"
)

// Aggregator merges suggestions in first-seen order and tracks which regions
// have reported.
type Aggregator struct {
	total     int
	results   []string
	seen      map[string]struct{}
	completed []string
	done      map[string]struct{}
}

// New returns an aggregator expecting total regions.
func New(total int) *Aggregator {
	return &Aggregator{
		total: total,
		seen:  make(map[string]struct{}),
		done:  make(map[string]struct{}),
	}
}

// Merge appends every item not already present, in order. Matching is exact
// and case-sensitive. It returns the number of items added.
func (a *Aggregator) Merge(items []string) int {
	added := 0
	for _, item := range items {
		if _, dup := a.seen[item]; dup {
			continue
		}
		a.seen[item] = struct{}{}
		a.results = append(a.results, item)
		added++
	}
	return added
}

// MarkComplete records that regionID has reported.
func (a *Aggregator) MarkComplete(regionID string) error {
	if _, dup := a.done[regionID]; dup {
		return fmt.Errorf("%w: region %s", core.ErrDuplicateCompletion, regionID)
	}
	a.done[regionID] = struct{}{}
	a.completed = append(a.completed, regionID)
	return nil
}

// IsCompleted reports whether regionID has already reported.
func (a *Aggregator) IsCompleted(regionID string) bool {
	_, ok := a.done[regionID]
	return ok
}

// IsRoundComplete reports whether every expected region has reported.
func (a *Aggregator) IsRoundComplete() bool {
	return len(a.done) == a.total
}

// Results returns a copy of the merged suggestions.
func (a *Aggregator) Results() []string {
	out := make([]string, len(a.results))
	copy(out, a.results)
	return out
}

// CompletedRegions returns region ids in the order they completed.
func (a *Aggregator) CompletedRegions() []string {
	out := make([]string, len(a.completed))
	copy(out, a.completed)
	return out
}

// Completed returns the number of regions that have reported.
func (a *Aggregator) Completed() int {
	return len(a.done)
}

// Total returns the number of regions expected.
func (a *Aggregator) Total() int {
	return a.total
}
