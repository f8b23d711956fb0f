package models

import "fmt"

// Action identifies the lifecycle transition carried by an event envelope.
type Action string

const (
	ActionNew    Action = "newReservation"
	ActionModify Action = "modifyReservation"
	ActionCancel Action = "cancelReservation"
)

const (
	// ShortTermMaxApartmentID is the highest apartment id priced nightly.
	// Apartments above it are long-term (monthly) units.
	ShortTermMaxApartmentID = 30

	// LongTermMaxApartmentID is the highest apartment id in the portfolio.
	LongTermMaxApartmentID = 35
)

// Apartment is the nested unit descriptor the upstream webhook payloads carry.
type Apartment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ApartmentRef builds the descriptor for a numeric apartment id.
func ApartmentRef(apartmentID int) Apartment {
	return Apartment{
		ID:   fmt.Sprintf("KRA-%03d", apartmentID),
		Name: fmt.Sprintf("apartment%d", apartmentID),
	}
}

// IsShortTerm reports whether the apartment id denotes a nightly-priced unit.
func IsShortTerm(apartmentID int) bool {
	return apartmentID <= ShortTermMaxApartmentID
}

// Reservation is the raw, pre-normalization reservation record in the
// hyphenated field naming of the upstream channel-manager webhooks.
// Exactly one of Prepayment and Deposit is set, depending on rental class:
// short-term reservations carry a prepayment, long-term ones a deposit.
type Reservation struct {
	ID                 int       `json:"id"`
	ReferenceID        string    `json:"reference-id"`
	Arrival            Date      `json:"arrival"`
	Departure          Date      `json:"departure"`
	CreatedAt          Timestamp `json:"created-at"`
	ModifiedAt         Timestamp `json:"modified-at"`
	Apartment          Apartment `json:"apartment"`
	Channel            string    `json:"channel"`
	GuestName          string    `json:"guest-name"`
	Email              string    `json:"email"`
	Adults             int       `json:"adults"`
	Children           int       `json:"children"`
	Price              float64   `json:"price"`
	PricePaid          string    `json:"price-paid"`
	CommissionIncluded float64   `json:"commission-included"`
	Prepayment         *float64  `json:"prepayment"`
	PrepaymentPaid     string    `json:"prepayment-paid"`
	Deposit            *float64  `json:"deposit"`
	DepositPaid        string    `json:"deposit-paid"`
	Language           string    `json:"language"`
	GuestID            int       `json:"guest-id"`
}

// EventEnvelope is a reservation lifecycle event before normalization.
// This is the shape the pending snapshot stores.
type EventEnvelope struct {
	Action Action      `json:"action"`
	User   int         `json:"user"`
	Data   Reservation `json:"data"`
}
