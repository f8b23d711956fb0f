package simulator

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/stayloop/bookingsim/pkg/models"
)

const (
	commissionRate  = 0.12
	prepaymentRate  = 0.20
	longTermDeposit = 3000.0
)

var (
	channels       = []string{"booking", "airbnb", "website", "phone"}
	channelWeights = []float64{0.5, 0.2, 0.2, 0.1}

	childCounts       = []int{0, 1, 2}
	childCountWeights = []float64{0.5, 0.25, 0.25}

	languages = []string{"pl", "de", "en", "it", "es"}
)

// StayShape describes how a fabricated reservation sits on the calendar.
// Stay is in days for short-term apartments and in months for long-term ones.
type StayShape struct {
	BookingShiftDays int
	CheckinShiftDays int
	Stay             int
}

// Fabricator constructs internally consistent reservation records. Guest
// identity fields come from the faker; all draws use the engine's random
// source so a fixed seed reproduces identical records.
type Fabricator struct {
	rng   *rand.Rand
	faker *gofakeit.Faker
}

// NewFabricator creates a Fabricator over the given random source and faker.
func NewFabricator(rng *rand.Rand, faker *gofakeit.Faker) *Fabricator {
	return &Fabricator{rng: rng, faker: faker}
}

// NewReservation fabricates a reservation for the apartment, branching on
// rental class. Short-term units (id <= 30) price nightly with a 20%
// prepayment; long-term units price monthly with a fixed deposit and the
// checkout computed by calendar-month arithmetic.
func (f *Fabricator) NewReservation(apartmentID int, now time.Time, shape StayShape) models.Reservation {
	ref := now.UTC().AddDate(0, 0, shape.BookingShiftDays)
	referenceID := f.newReferenceID(ref)

	checkin := models.DateOf(ref).AddDays(shape.CheckinShiftDays)

	var (
		checkout   models.Date
		price      float64
		prepayment *float64
		deposit    *float64
	)

	if models.IsShortTerm(apartmentID) {
		checkout = checkin.AddDays(shape.Stay)
		rate := floatBetween(f.rng, 200, 800)
		price = round2(rate * float64(shape.Stay))
		p := round2(price * prepaymentRate)
		prepayment = &p
	} else {
		checkout = checkin.AddMonths(shape.Stay)
		rate := floatBetween(f.rng, 5000, 8000)
		price = round2(rate * float64(shape.Stay))
		d := longTermDeposit
		deposit = &d
	}

	created := models.TimestampOf(ref)

	return models.Reservation{
		ID:                 intBetween(f.rng, 10000, 99999),
		ReferenceID:        referenceID,
		Arrival:            checkin,
		Departure:          checkout,
		CreatedAt:          created,
		ModifiedAt:         created,
		Apartment:          models.ApartmentRef(apartmentID),
		Channel:            weightedChoice(f.rng, channels, channelWeights),
		GuestName:          f.faker.Name(),
		Email:              f.faker.Email(),
		Adults:             intBetween(f.rng, 1, 4),
		Children:           weightedChoice(f.rng, childCounts, childCountWeights),
		Price:              price,
		PricePaid:          "no",
		CommissionIncluded: round2(price * commissionRate),
		Prepayment:         prepayment,
		PrepaymentPaid:     paidFlag(prepayment),
		Deposit:            deposit,
		DepositPaid:        paidFlag(deposit),
		Language:           languages[f.rng.IntN(len(languages))],
		GuestID:            intBetween(f.rng, 1000, 9999),
	}
}

// newReferenceID builds a human-scannable id like R-240601-ABCD1234.
// The suffix comes from the engine's random source so seeded runs stay
// reproducible; collisions are possible but practically negligible.
func (f *Fabricator) newReferenceID(ref time.Time) string {
	return fmt.Sprintf("R-%s-%08X", ref.Format("060102"), f.rng.Uint32())
}

func paidFlag(amount *float64) string {
	if amount == nil {
		return "no"
	}
	return "yes"
}
