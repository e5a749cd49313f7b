package config

// CollectorConfig holds every tunable named in the collector's persisted
// state and concurrency contract: buffer capacity, database writer batching
// and retry cadence, graceful shutdown drain deadline, and the retention
// sweep schedule.
type CollectorConfig struct {
	// BufferMaxSize is the write buffer's maximum number of queued spans
	// before the oldest entry is dropped to make room for a new one.
	BufferMaxSize int `mapstructure:"buffer_max_size"`

	// DBBatchSize is how many spans the writer drains per insert round-trip.
	DBBatchSize int `mapstructure:"db_batch_size"`

	// DBRetryIntervalSeconds is the fixed delay before the writer's single
	// retry of any failed batch write, and the wait after a batch that is
	// still failing transiently is re-enqueued.
	DBRetryIntervalSeconds int `mapstructure:"db_retry_interval_seconds"`

	// DBWriteTimeoutSeconds bounds a single batch insert.
	DBWriteTimeoutSeconds int `mapstructure:"db_write_timeout_seconds"`

	// ShutdownDrainSeconds bounds how long the writer is given to flush the
	// buffer during graceful shutdown before giving up.
	ShutdownDrainSeconds int `mapstructure:"shutdown_drain_seconds"`

	// RetentionDays is how long span rows are kept before the retention
	// sweeper drops them.
	RetentionDays int `mapstructure:"retention_days"`

	// RetentionCronSchedule is the cron expression on which the retention
	// sweeper runs.
	RetentionCronSchedule string `mapstructure:"retention_cron_schedule"`

	// QueryCacheTTLSeconds bounds how long the read-through cache in front
	// of the pipeline listing/cost-breakdown query paths keeps a cached
	// result before treating it as stale. Never a correctness dependency:
	// a cache miss (or no cache configured at all) always falls through to
	// Postgres.
	QueryCacheTTLSeconds int `mapstructure:"query_cache_ttl_seconds"`
}

// Defaults applies spec-mandated fallback values to any zero field.
// Called once after Viper unmarshalling so a bare config file (or no file
// at all, in tests) still yields a usable configuration.
func (c *CollectorConfig) Defaults() {
	if c.BufferMaxSize == 0 {
		c.BufferMaxSize = 50000
	}
	if c.DBBatchSize == 0 {
		c.DBBatchSize = 500
	}
	if c.DBRetryIntervalSeconds == 0 {
		c.DBRetryIntervalSeconds = 10
	}
	if c.DBWriteTimeoutSeconds == 0 {
		c.DBWriteTimeoutSeconds = 10
	}
	if c.ShutdownDrainSeconds == 0 {
		c.ShutdownDrainSeconds = 30
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = 30
	}
	if c.RetentionCronSchedule == "" {
		c.RetentionCronSchedule = "0 3 * * *"
	}
	if c.QueryCacheTTLSeconds == 0 {
		c.QueryCacheTTLSeconds = 10
	}
}
