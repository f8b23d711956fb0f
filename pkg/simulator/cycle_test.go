package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloop/bookingsim/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// fakeStore is an in-memory SnapshotStore. Loads hand out deep copies so
// two runners can start from identical snapshots.
type fakeStore struct {
	index   BookingIndex
	pending PendingSet

	loadErr error
	saveErr error

	savedIndex   BookingIndex
	savedPending PendingSet
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		index:   NewBookingIndex(),
		pending: NewPendingSet(),
	}
}

func (f *fakeStore) LoadIndex(context.Context) (BookingIndex, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	clone := NewBookingIndex()
	for apartment, byRef := range f.index {
		for ref, r := range byRef {
			clone.Put(apartment, ref, r)
		}
	}
	return clone, nil
}

func (f *fakeStore) SaveIndex(_ context.Context, idx BookingIndex) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedIndex = idx
	return nil
}

func (f *fakeStore) LoadPending(context.Context) (PendingSet, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	clone := NewPendingSet()
	for ref, envelope := range f.pending {
		clone[ref] = envelope
	}
	return clone, nil
}

func (f *fakeStore) SavePending(_ context.Context, pending PendingSet) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedPending = pending
	return nil
}

type fakePublisher struct {
	batches [][]models.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []models.Event) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, events)
	return nil
}

func testNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestRunCycleMeetsQuota(t *testing.T) {
	store := newFakeStore()
	sink := &fakePublisher{}
	runner := NewRunner(store, sink, Config{EventsPerTick: 5, Seed: 1}, noopLogger())

	events, err := runner.RunCycle(context.Background(), testNow())

	require.NoError(t, err)
	assert.Len(t, events, 5)

	for _, event := range events {
		// empty pending set forces new on every slot
		assert.Equal(t, models.ActionNew, event.Action)
		assert.True(t, event.Arrival.Before(event.Departure))
	}

	// accepted events update both persisted structures
	require.NotNil(t, store.savedIndex)
	require.NotNil(t, store.savedPending)
	assert.Equal(t, 5, store.savedIndex.Size())
	assert.Len(t, store.savedPending, 5)

	// a single batch call per cycle
	require.Len(t, sink.batches, 1)
	assert.Equal(t, events, sink.batches[0])
}

func TestRunCycleAcceptedIntervalsNeverOverlap(t *testing.T) {
	store := newFakeStore()
	runner := NewRunner(store, &fakePublisher{}, Config{EventsPerTick: 60, Seed: 2}, noopLogger())

	_, err := runner.RunCycle(context.Background(), testNow())
	require.NoError(t, err)

	for apartment, byRef := range store.savedIndex {
		intervals := make([]DateRange, 0, len(byRef))
		for _, r := range byRef {
			intervals = append(intervals, r)
		}
		for i := range intervals {
			for j := i + 1; j < len(intervals); j++ {
				assert.False(t, intervals[i].Overlaps(intervals[j]),
					"apartment %s has overlapping intervals %v and %v", apartment, intervals[i], intervals[j])
			}
		}
	}
}

func TestRunCycleDeterministicWithSeed(t *testing.T) {
	run := func() []models.Event {
		runner := NewRunner(newFakeStore(), &fakePublisher{}, Config{EventsPerTick: 10, Seed: 12345}, noopLogger())
		events, err := runner.RunCycle(context.Background(), testNow())
		require.NoError(t, err)
		return events
	}

	first, err := json.Marshal(run())
	require.NoError(t, err)
	second, err := json.Marshal(run())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunCycleFiltersPastArrivals(t *testing.T) {
	store := newFakeStore()
	past := envelopeWithArrival(t, "2024-05-01")
	future := envelopeWithArrival(t, "2024-07-01")
	store.pending[past.Data.ReferenceID] = past
	store.pending[future.Data.ReferenceID] = future

	runner := NewRunner(store, &fakePublisher{}, Config{EventsPerTick: 1, Seed: 3}, noopLogger())
	_, err := runner.RunCycle(context.Background(), testNow())
	require.NoError(t, err)

	assert.NotContains(t, store.savedPending, past.Data.ReferenceID)
}

func TestRunCycleSurvivesStoreFailures(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("redis gone")
	store.saveErr = errors.New("redis still gone")

	runner := NewRunner(store, &fakePublisher{}, Config{EventsPerTick: 3, Seed: 4}, noopLogger())
	events, err := runner.RunCycle(context.Background(), testNow())

	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestRunCycleSurvivesPublishFailure(t *testing.T) {
	store := newFakeStore()
	sink := &fakePublisher{err: errors.New("broker unreachable")}

	runner := NewRunner(store, sink, Config{EventsPerTick: 2, Seed: 5}, noopLogger())
	events, err := runner.RunCycle(context.Background(), testNow())

	require.NoError(t, err)
	assert.Len(t, events, 2)
	// persisted state is unaffected by the sink failure
	assert.Equal(t, 2, store.savedIndex.Size())
}

func TestRunCycleWithoutPublisher(t *testing.T) {
	runner := NewRunner(newFakeStore(), nil, Config{EventsPerTick: 2, Seed: 6}, noopLogger())

	events, err := runner.RunCycle(context.Background(), testNow())

	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestApplyNewRejectsOverlap(t *testing.T) {
	runner := NewRunner(newFakeStore(), nil, Config{}, noopLogger())
	state := &State{Index: NewBookingIndex(), Pending: NewPendingSet()}

	first := newEnvelope(t, "KRA-005", "R-240601-AAAA0001", "2024-06-10", "2024-06-15")
	require.True(t, runner.apply(context.Background(), state, first, testNow()))

	overlapping := newEnvelope(t, "KRA-005", "R-240601-AAAA0002", "2024-06-14", "2024-06-18")
	assert.False(t, runner.apply(context.Background(), state, overlapping, testNow()))
	assert.Equal(t, 1, state.Index.Size())
	assert.NotContains(t, state.Pending, "R-240601-AAAA0002")

	touching := newEnvelope(t, "KRA-005", "R-240601-AAAA0003", "2024-06-15", "2024-06-18")
	assert.True(t, runner.apply(context.Background(), state, touching, testNow()))
	assert.Equal(t, 2, state.Index.Size())
}

func TestApplyModifyUpdatesIndexAndDropsPending(t *testing.T) {
	runner := NewRunner(newFakeStore(), nil, Config{}, noopLogger())
	state := &State{Index: NewBookingIndex(), Pending: NewPendingSet()}

	original := newEnvelope(t, "KRA-007", "R-240601-BBBB0001", "2024-06-10", "2024-06-15")
	require.True(t, runner.apply(context.Background(), state, original, testNow()))

	modified := original
	modified.Action = models.ActionModify
	modified.Data.Arrival = mustDate(t, "2024-06-12")
	modified.Data.Departure = mustDate(t, "2024-06-17")

	assert.True(t, runner.apply(context.Background(), state, modified, testNow()))
	assert.Equal(t, dateRange("2024-06-12", "2024-06-17"), state.Index["KRA-007"]["R-240601-BBBB0001"])
	assert.NotContains(t, state.Pending, "R-240601-BBBB0001")
}

func TestApplyRejectedModifyLeavesStateUntouched(t *testing.T) {
	runner := NewRunner(newFakeStore(), nil, Config{}, noopLogger())
	state := &State{Index: NewBookingIndex(), Pending: NewPendingSet()}

	first := newEnvelope(t, "KRA-007", "R-240601-BBBB0001", "2024-06-10", "2024-06-15")
	second := newEnvelope(t, "KRA-007", "R-240601-BBBB0002", "2024-06-20", "2024-06-25")
	require.True(t, runner.apply(context.Background(), state, first, testNow()))
	require.True(t, runner.apply(context.Background(), state, second, testNow()))

	conflicting := first
	conflicting.Action = models.ActionModify
	conflicting.Data.Arrival = mustDate(t, "2024-06-19")
	conflicting.Data.Departure = mustDate(t, "2024-06-24")

	assert.False(t, runner.apply(context.Background(), state, conflicting, testNow()))
	assert.Equal(t, dateRange("2024-06-10", "2024-06-15"), state.Index["KRA-007"]["R-240601-BBBB0001"])
	assert.Contains(t, state.Pending, "R-240601-BBBB0001")
}

func TestApplyCancelRemovesEverywhere(t *testing.T) {
	runner := NewRunner(newFakeStore(), nil, Config{}, noopLogger())
	state := &State{Index: NewBookingIndex(), Pending: NewPendingSet()}

	envelope := newEnvelope(t, "KRA-003", "R-240601-ABCD1234", "2024-06-10", "2024-06-15")
	require.True(t, runner.apply(context.Background(), state, envelope, testNow()))
	require.Contains(t, state.Pending, "R-240601-ABCD1234")

	cancel := envelope
	cancel.Action = models.ActionCancel

	assert.True(t, runner.apply(context.Background(), state, cancel, testNow()))
	assert.Equal(t, 0, state.Index.Size())
	assert.NotContains(t, state.Pending, "R-240601-ABCD1234")

	// cancelling an already absent reservation is a no-op
	assert.True(t, runner.apply(context.Background(), state, cancel, testNow()))
}

func newEnvelope(t *testing.T, apartmentID, referenceID, arrival, departure string) models.EventEnvelope {
	t.Helper()
	return models.EventEnvelope{
		Action: models.ActionNew,
		User:   1,
		Data: models.Reservation{
			ID:          12345,
			ReferenceID: referenceID,
			Arrival:     mustDate(t, arrival),
			Departure:   mustDate(t, departure),
			Apartment:   models.Apartment{ID: apartmentID, Name: "apartment"},
		},
	}
}

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}
