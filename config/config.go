package config

import "time"

type Config struct {
	AppName    string `env:"APP_NAME" env-default:"bookingsim"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`
	OpsPort    int    `env:"OPS_PORT" env-default:"3000"`

	// Redis (snapshot store)
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Snapshot documents
	// Key namespace for all simulator state
	SnapshotNamespace string `env:"SNAPSHOT_NAMESPACE" env-default:"bookingsim"`
	// Booking index document (apartment -> reference id -> interval)
	SnapshotIndexKey string `env:"SNAPSHOT_INDEX_KEY" env-default:"reservations-index"`
	// Full reservation history document (reference id -> raw envelope)
	SnapshotPendingKey string `env:"SNAPSHOT_PENDING_KEY" env-default:"reservations-pending"`

	// Kafka (stream sink); empty brokers disable emission
	KafkaBrokers string `env:"KAFKA_BROKERS" env-default:""`
	// Kafka topic for normalized reservation events
	KafkaTopic string `env:"KAFKA_TOPIC" env-default:"reservation-events"`

	// Generator settings
	// Number of accepted events per tick
	EventsPerTick int `env:"EVENTS_PER_TICK" env-default:"5"`
	// Attempt cap per quota slot before the slot is skipped
	MaxAttemptsPerEvent int `env:"MAX_ATTEMPTS_PER_EVENT" env-default:"50"`
	// Deterministic random seed; 0 means random
	Seed uint64 `env:"SEED" env-default:"0"`

	// Scheduler settings
	// Cadence between generation cycles
	TickInterval time.Duration `env:"TICK_INTERVAL" env-default:"1m"`
	// TTL on the cycle lock
	CycleLockTTL time.Duration `env:"CYCLE_LOCK_TTL" env-default:"90s"`

	// Tracing settings
	// Enable OTLP tracing export (set to true to send traces to collector)
	OTLPEnabled bool `env:"OTLP_ENABLED" env-default:"false"`
	// OTLP collector endpoint
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	// Disable TLS for OTLP (for local development)
	OTLPInsecure bool `env:"OTLP_INSECURE" env-default:"true"`
}
