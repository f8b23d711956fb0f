package simulator

import (
	"sort"
	"time"

	"github.com/stayloop/bookingsim/pkg/models"
)

// PendingSet holds reservations whose arrival is still in the future,
// keyed by reference id. These are the eligible targets for modify and
// cancel events. Entries keep the full pre-normalization envelope so a
// later mutation can re-emit the complete record.
type PendingSet map[string]models.EventEnvelope

// NewPendingSet creates an empty pending set.
func NewPendingSet() PendingSet {
	return make(PendingSet)
}

// FilterFuture returns the subset whose arrival date is strictly after
// now's calendar date. The set is always rebuilt from the full history
// rather than aged incrementally, which makes the filter idempotent.
func (p PendingSet) FilterFuture(now time.Time) PendingSet {
	today := models.DateOf(now)

	future := NewPendingSet()
	for ref, envelope := range p {
		if envelope.Data.Arrival.After(today) {
			future[ref] = envelope
		}
	}
	return future
}

// SortedKeys returns the reference ids in lexical order. Random target
// selection draws over this ordering so seeded runs are reproducible.
func (p PendingSet) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for ref := range p {
		keys = append(keys, ref)
	}
	sort.Strings(keys)
	return keys
}
