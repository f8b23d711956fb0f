package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloop/bookingsim/pkg/models"
)

func TestNormalizeFlattensEnvelope(t *testing.T) {
	arrival, err := models.ParseDate("2024-07-01")
	require.NoError(t, err)
	departure, err := models.ParseDate("2024-07-05")
	require.NoError(t, err)

	prepayment := 200.0
	created := models.TimestampOf(time.Date(2024, 6, 1, 9, 15, 30, 0, time.UTC))

	envelope := models.EventEnvelope{
		Action: models.ActionNew,
		User:   1,
		Data: models.Reservation{
			ID:                 54321,
			ReferenceID:        "R-240601-ABCD1234",
			Arrival:            arrival,
			Departure:          departure,
			CreatedAt:          created,
			ModifiedAt:         created,
			Apartment:          models.ApartmentRef(5),
			Channel:            "airbnb",
			GuestName:          "Anna Nowak",
			Email:              "anna@example.com",
			Adults:             3,
			Children:           2,
			Price:              1000.0,
			PricePaid:          "no",
			CommissionIncluded: 120.0,
			Prepayment:         &prepayment,
			PrepaymentPaid:     "yes",
			DepositPaid:        "no",
			Language:           "de",
			GuestID:            2024,
		},
	}

	event := models.Normalize(envelope)

	assert.Equal(t, models.ActionNew, event.Action)
	assert.Equal(t, 1, event.User)
	assert.Equal(t, 54321, event.ID)
	assert.Equal(t, "R-240601-ABCD1234", event.ReferenceID)
	assert.Equal(t, arrival, event.Arrival)
	assert.Equal(t, departure, event.Departure)
	assert.Equal(t, "KRA-005", event.ApartmentID)
	assert.Equal(t, "apartment5", event.ApartmentName)
	assert.Equal(t, "airbnb", event.ChannelName)
	assert.Equal(t, "Anna Nowak", event.GuestName)
	assert.Equal(t, 3, event.Adults)
	assert.Equal(t, 2, event.Children)
	assert.Equal(t, 1000.0, event.Price)
	assert.Equal(t, 120.0, event.CommissionIncluded)
	require.NotNil(t, event.Prepayment)
	assert.Equal(t, 200.0, *event.Prepayment)
	assert.Nil(t, event.Deposit)
	assert.Equal(t, "de", event.Language)
	assert.Equal(t, 2024, event.GuestID)

	assert.NoError(t, event.Validate())
}

func TestNormalizedEventJSONUsesFlatSnakeCase(t *testing.T) {
	arrival, err := models.ParseDate("2024-07-01")
	require.NoError(t, err)

	envelope := models.EventEnvelope{
		Action: models.ActionCancel,
		User:   1,
		Data: models.Reservation{
			ID:          1,
			ReferenceID: "R-240601-ABCD1234",
			Arrival:     arrival,
			Departure:   arrival.AddDays(3),
			CreatedAt:   models.TimestampOf(time.Date(2024, 6, 1, 9, 15, 30, 0, time.UTC)),
			Apartment:   models.ApartmentRef(31),
		},
	}

	data, err := json.Marshal(models.Normalize(envelope))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "cancelReservation", raw["action"])
	assert.Equal(t, "R-240601-ABCD1234", raw["reference_id"])
	assert.Equal(t, "2024-07-01", raw["arrival"])
	assert.Equal(t, "2024-07-04", raw["departure"])
	assert.Equal(t, "2024-06-01 09:15:30", raw["created_at"])
	assert.Equal(t, "KRA-031", raw["apartment_id"])
	assert.Equal(t, "apartment31", raw["apartment_name"])

	// nested or hyphenated names must not leak through
	assert.NotContains(t, raw, "apartment")
	assert.NotContains(t, raw, "reference-id")
	assert.NotContains(t, raw, "guest-name")
}

func TestReservationJSONKeepsWebhookShape(t *testing.T) {
	arrival, err := models.ParseDate("2024-07-01")
	require.NoError(t, err)

	deposit := 3000.0
	reservation := models.Reservation{
		ID:          7,
		ReferenceID: "R-240601-ABCD1234",
		Arrival:     arrival,
		Departure:   arrival.AddMonths(2),
		Apartment:   models.ApartmentRef(33),
		Deposit:     &deposit,
	}

	data, err := json.Marshal(reservation)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "R-240601-ABCD1234", raw["reference-id"])
	assert.Equal(t, "2024-09-01", raw["departure"])
	assert.Contains(t, raw, "guest-name")
	assert.Contains(t, raw, "commission-included")

	apartment, ok := raw["apartment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "KRA-033", apartment["id"])
}

func TestDateRoundTrip(t *testing.T) {
	date, err := models.ParseDate("2024-02-29")
	require.NoError(t, err)

	data, err := json.Marshal(date)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29"`, string(data))

	var decoded models.Date
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, date.Equal(decoded))
}

func TestDateComparisons(t *testing.T) {
	early := models.NewDate(2024, time.June, 1)
	late := models.NewDate(2024, time.June, 2)

	assert.True(t, early.Before(late))
	assert.True(t, late.After(early))
	assert.False(t, early.After(early))
	assert.False(t, early.Before(early))
	assert.True(t, early.Equal(models.NewDate(2024, time.June, 1)))
}

func TestAddMonthsUsesCalendarArithmetic(t *testing.T) {
	jan31 := models.NewDate(2024, time.January, 31)

	// AddDate normalization: Jan 31 + 1 month rolls into March in a leap year
	assert.Equal(t, "2024-03-02", jan31.AddMonths(1).String())
	assert.Equal(t, "2024-07-15", models.NewDate(2024, time.April, 15).AddMonths(3).String())
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := models.TimestampOf(time.Date(2024, 6, 1, 23, 59, 59, 999, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-01 23:59:59"`, string(data))

	var decoded models.Timestamp
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, ts.Equal(decoded))
}

func TestEventValidateRejectsUnknownAction(t *testing.T) {
	event := models.Event{
		Action:        "teleportReservation",
		User:          1,
		ID:            1,
		ReferenceID:   "R-240601-ABCD1234",
		ApartmentID:   "KRA-001",
		ApartmentName: "apartment1",
	}

	assert.Error(t, event.Validate())
}
