package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Event is the normalized, flat schema handed to the stream sink. Field
// names are snake_case with the hyphenated webhook names unified and the
// nested apartment object flattened.
type Event struct {
	Action             Action    `json:"action" validate:"required,oneof=newReservation modifyReservation cancelReservation"`
	User               int       `json:"user" validate:"required"`
	ID                 int       `json:"id" validate:"required"`
	ReferenceID        string    `json:"reference_id" validate:"required"`
	Arrival            Date      `json:"arrival"`
	Departure          Date      `json:"departure"`
	CreatedAt          Timestamp `json:"created_at"`
	ModifiedAt         Timestamp `json:"modified_at"`
	ApartmentID        string    `json:"apartment_id" validate:"required"`
	ApartmentName      string    `json:"apartment_name" validate:"required"`
	ChannelName        string    `json:"channel_name"`
	GuestName          string    `json:"guest_name"`
	Email              string    `json:"email"`
	Adults             int       `json:"adults"`
	Children           int       `json:"children"`
	Price              float64   `json:"price"`
	PricePaid          string    `json:"price_paid"`
	CommissionIncluded float64   `json:"commission_included"`
	Prepayment         *float64  `json:"prepayment"`
	PrepaymentPaid     string    `json:"prepayment_paid"`
	Deposit            *float64  `json:"deposit"`
	DepositPaid        string    `json:"deposit_paid"`
	Language           string    `json:"language"`
	GuestID            int       `json:"guest_id"`
}

// Normalize flattens an event envelope into the external schema. This is a
// pure field-by-field mapping; the envelope is not mutated.
func Normalize(envelope EventEnvelope) Event {
	data := envelope.Data

	return Event{
		Action:             envelope.Action,
		User:               envelope.User,
		ID:                 data.ID,
		ReferenceID:        data.ReferenceID,
		Arrival:            data.Arrival,
		Departure:          data.Departure,
		CreatedAt:          data.CreatedAt,
		ModifiedAt:         data.ModifiedAt,
		ApartmentID:        data.Apartment.ID,
		ApartmentName:      data.Apartment.Name,
		ChannelName:        data.Channel,
		GuestName:          data.GuestName,
		Email:              data.Email,
		Adults:             data.Adults,
		Children:           data.Children,
		Price:              data.Price,
		PricePaid:          data.PricePaid,
		CommissionIncluded: data.CommissionIncluded,
		Prepayment:         data.Prepayment,
		PrepaymentPaid:     data.PrepaymentPaid,
		Deposit:            data.Deposit,
		DepositPaid:        data.DepositPaid,
		Language:           data.Language,
		GuestID:            data.GuestID,
	}
}

// Validate checks the normalized event against its field rules.
func (e Event) Validate() error {
	return validate.Struct(e)
}
