package simulator

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/brianvoe/gofakeit/v7"
	"go.opentelemetry.io/otel/attribute"

	"github.com/stayloop/bookingsim/pkg/metrics"
	"github.com/stayloop/bookingsim/pkg/models"
	"github.com/stayloop/bookingsim/pkg/tracing"
)

const (
	// DefaultEventsPerTick is the quota of accepted events per cycle
	DefaultEventsPerTick = 5

	// DefaultMaxAttemptsPerEvent caps candidate generation per quota slot
	DefaultMaxAttemptsPerEvent = 50
)

// SnapshotStore persists the booking index and pending set between cycles.
type SnapshotStore interface {
	LoadIndex(ctx context.Context) (BookingIndex, error)
	SaveIndex(ctx context.Context, idx BookingIndex) error
	LoadPending(ctx context.Context) (PendingSet, error)
	SavePending(ctx context.Context, pending PendingSet) error
}

// Publisher delivers one batch of normalized events per cycle.
type Publisher interface {
	PublishBatch(ctx context.Context, events []models.Event) error
}

// State carries the in-memory structures of one cycle. The Runner owns it
// for the cycle's duration and round-trips it through the snapshot store.
type State struct {
	Index   BookingIndex
	Pending PendingSet
}

// Config holds configuration for the cycle runner.
type Config struct {
	// EventsPerTick is the number of accepted events to collect per cycle
	EventsPerTick int

	// MaxAttemptsPerEvent caps how many candidates a single quota slot may
	// try before the slot is skipped
	MaxAttemptsPerEvent int

	// Seed makes all random draws reproducible when non-zero
	Seed uint64
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		EventsPerTick:       DefaultEventsPerTick,
		MaxAttemptsPerEvent: DefaultMaxAttemptsPerEvent,
	}
}

// Runner drives one full generation cycle: load snapshots, generate events
// until the quota of accepted events is met, persist the updated snapshots
// and emit the batch. Snapshot and sink failures are logged and absorbed;
// a cycle never fails, it degrades.
type Runner struct {
	store     SnapshotStore
	publisher Publisher
	selector  *Selector
	logger    ectologger.Logger
	config    Config
}

// NewRunner creates a cycle runner. publisher may be nil when no stream
// sink is configured; emission then becomes a logged no-op.
func NewRunner(store SnapshotStore, publisher Publisher, config Config, logger ectologger.Logger) *Runner {
	if config.EventsPerTick <= 0 {
		config.EventsPerTick = DefaultEventsPerTick
	}
	if config.MaxAttemptsPerEvent <= 0 {
		config.MaxAttemptsPerEvent = DefaultMaxAttemptsPerEvent
	}

	rng := newRand(config.Seed)
	faker := gofakeit.New(config.Seed)

	return &Runner{
		store:     store,
		publisher: publisher,
		selector:  NewSelector(rng, NewFabricator(rng, faker)),
		logger:    logger,
		config:    config,
	}
}

// RunCycle executes one load → generate → persist → emit cycle anchored at
// the given moment. It returns the accepted, normalized batch.
func (r *Runner) RunCycle(ctx context.Context, now time.Time) ([]models.Event, error) {
	ctx, span := tracing.StartSpan(ctx, "Runner.RunCycle")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	state := r.loadState(ctx, now)

	events := r.generate(ctx, state, now)
	span.SetAttributes(attribute.Int("cycle.accepted_events", len(events)))

	r.persistState(ctx, state)

	metrics.PendingReservations.Set(float64(len(state.Pending)))
	metrics.BookedIntervals.Set(float64(state.Index.Size()))

	r.emit(ctx, events)

	r.logger.WithContext(ctx).Infof("Cycle completed: accepted=%d pending=%d booked=%d duration=%s",
		len(events), len(state.Pending), state.Index.Size(), time.Since(start))

	return events, nil
}

// loadState reads both snapshots and rebuilds the pending set by filtering
// the full history down to future arrivals. A missing or unreadable
// snapshot degrades to an empty structure.
func (r *Runner) loadState(ctx context.Context, now time.Time) *State {
	index, err := r.store.LoadIndex(ctx)
	if err != nil {
		metrics.SnapshotFailuresTotal.WithLabelValues("load_index").Inc()
		r.logger.WithContext(ctx).WithError(err).Warn("Failed to load booking index snapshot, starting empty")
		index = NewBookingIndex()
	}

	history, err := r.store.LoadPending(ctx)
	if err != nil {
		metrics.SnapshotFailuresTotal.WithLabelValues("load_pending").Inc()
		r.logger.WithContext(ctx).WithError(err).Warn("Failed to load pending snapshot, starting empty")
		history = NewPendingSet()
	}

	pending := history.FilterFuture(now)

	r.logger.WithContext(ctx).Infof("Loaded %d booked intervals and %d future reservations",
		index.Size(), len(pending))

	return &State{Index: index, Pending: pending}
}

// generate collects accepted events until the quota is met. Each quota
// slot retries freshly generated candidates up to the attempt cap; an
// exhausted slot is skipped and the cycle ships a shorter batch.
func (r *Runner) generate(ctx context.Context, state *State, now time.Time) []models.Event {
	events := make([]models.Event, 0, r.config.EventsPerTick)

	for slot := 0; slot < r.config.EventsPerTick; slot++ {
		accepted := false

		for attempt := 0; attempt < r.config.MaxAttemptsPerEvent; attempt++ {
			envelope := r.selector.Next(state.Pending, now)

			if !r.apply(ctx, state, envelope, now) {
				metrics.OverlapRejectionsTotal.WithLabelValues(string(envelope.Action)).Inc()
				continue
			}

			event := models.Normalize(envelope)
			if err := event.Validate(); err != nil {
				r.logger.WithContext(ctx).WithError(err).Errorf("Generated event failed validation: %s", event.ReferenceID)
				continue
			}

			metrics.EventsAcceptedTotal.WithLabelValues(string(envelope.Action)).Inc()
			events = append(events, event)
			accepted = true
			break
		}

		if !accepted {
			metrics.SlotsSkippedTotal.Inc()
			r.logger.WithContext(ctx).Warnf("Skipped generation slot %d after %d attempts, shipping a short batch",
				slot, r.config.MaxAttemptsPerEvent)
		}
	}

	return events
}

// apply runs the index check for the candidate and, on acceptance, commits
// it to the index and pending set. A rejected candidate leaves both
// structures untouched.
func (r *Runner) apply(ctx context.Context, state *State, envelope models.EventEnvelope, now time.Time) bool {
	data := envelope.Data
	apartmentID := data.Apartment.ID
	interval := DateRange{Arrival: data.Arrival, Departure: data.Departure}

	switch envelope.Action {
	case models.ActionNew:
		if state.Index.HasConflict(apartmentID, interval, "") {
			r.logger.WithContext(ctx).Debugf("Skipped newReservation, overlap for apartment %s", apartmentID)
			return false
		}
		state.Index.Put(apartmentID, data.ReferenceID, interval)
		if data.Arrival.After(models.DateOf(now)) {
			state.Pending[data.ReferenceID] = envelope
		}

	case models.ActionModify:
		if state.Index.HasConflict(apartmentID, interval, data.ReferenceID) {
			r.logger.WithContext(ctx).Debugf("Skipped modifyReservation, overlap for apartment %s", apartmentID)
			return false
		}
		state.Index.Put(apartmentID, data.ReferenceID, interval)
		// A modified reservation is no longer eligible for further mutation.
		delete(state.Pending, data.ReferenceID)

	case models.ActionCancel:
		state.Index.Remove(apartmentID, data.ReferenceID)
		delete(state.Pending, data.ReferenceID)
	}

	return true
}

// persistState writes both snapshots independently. A failed write is
// logged and the in-memory state is kept; the loss is cycle-scoped.
func (r *Runner) persistState(ctx context.Context, state *State) {
	if err := r.store.SaveIndex(ctx, state.Index); err != nil {
		metrics.SnapshotFailuresTotal.WithLabelValues("save_index").Inc()
		r.logger.WithContext(ctx).WithError(err).Error("Failed to persist booking index snapshot")
	}

	if err := r.store.SavePending(ctx, state.Pending); err != nil {
		metrics.SnapshotFailuresTotal.WithLabelValues("save_pending").Inc()
		r.logger.WithContext(ctx).WithError(err).Error("Failed to persist pending snapshot")
	}
}

// emit hands the accepted batch to the stream sink in a single call.
func (r *Runner) emit(ctx context.Context, events []models.Event) {
	if len(events) == 0 {
		return
	}

	if r.publisher == nil {
		r.logger.WithContext(ctx).Error("No stream sink configured, dropping batch")
		return
	}

	if err := r.publisher.PublishBatch(ctx, events); err != nil {
		metrics.PublishFailuresTotal.Inc()
		r.logger.WithContext(ctx).WithError(err).Error("Failed to publish event batch to stream sink")
	}
}
