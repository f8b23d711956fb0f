package simulator

import (
	"github.com/stayloop/bookingsim/pkg/models"
)

// DateRange is a half-open booked interval [Arrival, Departure). The
// departure day is checkout day and may coincide with another booking's
// arrival.
type DateRange struct {
	Arrival   models.Date `json:"arrival"`
	Departure models.Date `json:"departure"`
}

// Overlaps reports whether two half-open intervals share at least one night.
// Touching boundaries do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Arrival.Before(other.Departure) && other.Arrival.Before(r.Departure)
}

// BookingIndex is the derived per-apartment map of currently booked,
// non-overlapping intervals, keyed by apartment id and then reference id.
// It gates acceptance of new and modified reservations.
type BookingIndex map[string]map[string]DateRange

// NewBookingIndex creates an empty index.
func NewBookingIndex() BookingIndex {
	return make(BookingIndex)
}

// HasConflict reports whether the candidate interval overlaps any booked
// interval for the apartment. excludeRef, when non-empty, names the
// reservation being modified, which never conflicts with itself.
func (idx BookingIndex) HasConflict(apartmentID string, candidate DateRange, excludeRef string) bool {
	for ref, booked := range idx[apartmentID] {
		if ref == excludeRef {
			continue
		}
		if candidate.Overlaps(booked) {
			return true
		}
	}
	return false
}

// Put records or updates the interval for a reservation. Callers are
// expected to have checked HasConflict first; Put itself does not validate.
func (idx BookingIndex) Put(apartmentID, referenceID string, r DateRange) {
	byRef, ok := idx[apartmentID]
	if !ok {
		byRef = make(map[string]DateRange)
		idx[apartmentID] = byRef
	}
	byRef[referenceID] = r
}

// Remove drops a reservation's interval. Removing an absent id is a no-op.
func (idx BookingIndex) Remove(apartmentID, referenceID string) {
	if byRef, ok := idx[apartmentID]; ok {
		delete(byRef, referenceID)
	}
}

// Size returns the total number of booked intervals across all apartments.
func (idx BookingIndex) Size() int {
	n := 0
	for _, byRef := range idx {
		n += len(byRef)
	}
	return n
}
