// Package snapshot persists the simulator's cycle state as two named
// whole-document JSON blobs: the booking index and the pending set.
package snapshot

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	jsoniter "github.com/json-iterator/go"

	"github.com/stayloop/bookingsim/pkg/redis"
	"github.com/stayloop/bookingsim/pkg/simulator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KV is the minimal key-value surface the store needs. Production uses
// the Redis client; tests use an in-memory map.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Config names the two snapshot documents.
type Config struct {
	IndexKey   string
	PendingKey string
}

// Store reads and writes cycle state snapshots. Reads and writes are
// whole-document overwrites; there are no partial updates.
type Store struct {
	kv     KV
	config Config
	logger ectologger.Logger
}

// New creates a snapshot store over the given key-value backend.
func New(kv KV, config Config, logger ectologger.Logger) *Store {
	return &Store{
		kv:     kv,
		config: config,
		logger: logger,
	}
}

// LoadIndex reads the booking index snapshot. A missing document yields
// an empty index, not an error.
func (s *Store) LoadIndex(ctx context.Context) (simulator.BookingIndex, error) {
	data, err := s.kv.Get(ctx, s.config.IndexKey)
	if err != nil {
		if redis.IsNotFound(err) {
			s.logger.WithContext(ctx).Debugf("No booking index snapshot at %s, starting empty", s.config.IndexKey)
			return simulator.NewBookingIndex(), nil
		}
		return nil, fmt.Errorf("failed to read booking index snapshot %s: %w", s.config.IndexKey, err)
	}

	index := simulator.NewBookingIndex()
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to decode booking index snapshot %s: %w", s.config.IndexKey, err)
	}
	return index, nil
}

// SaveIndex overwrites the booking index snapshot.
func (s *Store) SaveIndex(ctx context.Context, index simulator.BookingIndex) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to encode booking index snapshot: %w", err)
	}

	if err := s.kv.Set(ctx, s.config.IndexKey, data); err != nil {
		return fmt.Errorf("failed to write booking index snapshot %s: %w", s.config.IndexKey, err)
	}
	return nil
}

// LoadPending reads the full reservation history snapshot. A missing
// document yields an empty set, not an error.
func (s *Store) LoadPending(ctx context.Context) (simulator.PendingSet, error) {
	data, err := s.kv.Get(ctx, s.config.PendingKey)
	if err != nil {
		if redis.IsNotFound(err) {
			s.logger.WithContext(ctx).Debugf("No pending snapshot at %s, starting empty", s.config.PendingKey)
			return simulator.NewPendingSet(), nil
		}
		return nil, fmt.Errorf("failed to read pending snapshot %s: %w", s.config.PendingKey, err)
	}

	pending := simulator.NewPendingSet()
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending snapshot %s: %w", s.config.PendingKey, err)
	}
	return pending, nil
}

// SavePending overwrites the pending snapshot.
func (s *Store) SavePending(ctx context.Context, pending simulator.PendingSet) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode pending snapshot: %w", err)
	}

	if err := s.kv.Set(ctx, s.config.PendingKey, data); err != nil {
		return fmt.Errorf("failed to write pending snapshot %s: %w", s.config.PendingKey, err)
	}
	return nil
}
