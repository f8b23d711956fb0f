package simulator

import (
	"math/rand/v2"
	"time"

	"github.com/stayloop/bookingsim/pkg/models"
)

// eventUser is the fixed synthetic user id stamped on every envelope.
const eventUser = 1

var (
	actions       = []models.Action{models.ActionNew, models.ActionModify, models.ActionCancel}
	actionWeights = []float64{0.6, 0.2, 0.2}
)

// Selector chooses the next lifecycle event to attempt. New reservations
// are delegated to the Fabricator; modify and cancel pick a uniformly
// random target from the pending set. Mutations are staged on a copy, so
// a candidate the index later rejects leaves the pending entry untouched.
type Selector struct {
	rng        *rand.Rand
	fabricator *Fabricator
}

// NewSelector creates a Selector over the given random source.
func NewSelector(rng *rand.Rand, fabricator *Fabricator) *Selector {
	return &Selector{rng: rng, fabricator: fabricator}
}

// Next produces one candidate event envelope. With an empty pending set
// the only possible action is a new reservation.
func (s *Selector) Next(pending PendingSet, now time.Time) models.EventEnvelope {
	action := models.ActionNew
	if len(pending) > 0 {
		action = weightedChoice(s.rng, actions, actionWeights)
	}

	switch action {
	case models.ActionModify:
		return s.modify(pending, now)
	case models.ActionCancel:
		return s.cancel(pending, now)
	default:
		return s.fabricate(now)
	}
}

func (s *Selector) fabricate(now time.Time) models.EventEnvelope {
	var apartmentID int
	shape := StayShape{CheckinShiftDays: intBetween(s.rng, 3, 60)}

	if s.rng.IntN(2) == 0 {
		apartmentID = intBetween(s.rng, 1, models.ShortTermMaxApartmentID)
		shape.Stay = intBetween(s.rng, 1, 6) // nights
	} else {
		apartmentID = intBetween(s.rng, models.ShortTermMaxApartmentID+1, models.LongTermMaxApartmentID)
		shape.Stay = intBetween(s.rng, 1, 3) // months
	}

	return models.EventEnvelope{
		Action: models.ActionNew,
		User:   eventUser,
		Data:   s.fabricator.NewReservation(apartmentID, now, shape),
	}
}

func (s *Selector) modify(pending PendingSet, now time.Time) models.EventEnvelope {
	target := s.pickTarget(pending)
	reservation := target.Data

	reservation.ModifiedAt = models.TimestampOf(now)
	reservation.Price = round2(reservation.Price * floatBetween(s.rng, 0.95, 1.05))

	shift := intBetween(s.rng, 1, 7)
	reservation.Arrival = reservation.Arrival.AddDays(shift)
	reservation.Departure = reservation.Departure.AddDays(shift)

	return models.EventEnvelope{
		Action: models.ActionModify,
		User:   eventUser,
		Data:   reservation,
	}
}

func (s *Selector) cancel(pending PendingSet, now time.Time) models.EventEnvelope {
	target := s.pickTarget(pending)
	reservation := target.Data

	reservation.ModifiedAt = models.TimestampOf(now)

	return models.EventEnvelope{
		Action: models.ActionCancel,
		User:   eventUser,
		Data:   reservation,
	}
}

func (s *Selector) pickTarget(pending PendingSet) models.EventEnvelope {
	keys := pending.SortedKeys()
	return pending[keys[s.rng.IntN(len(keys))]]
}
