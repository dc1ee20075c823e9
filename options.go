package kinesource

import "time"

const (
	// defaultBackoff is how long a reader waits after a fetch that
	// returned no records before asking again.
	defaultBackoff = 200 * time.Millisecond

	// defaultMaxRenews bounds how many times in a row a reader renews an
	// expired iterator before giving up.
	defaultMaxRenews = 5
)

// Option is used to override defaults when creating a new reader
type Option func(*config)

// config carries the settings shared by the readers and the enumerator.
type config struct {
	store              Store
	logger             Logger
	counter            Counter
	backoff            time.Duration
	maxRenews          int
	maxRecords         int64
	isAggregated       bool
	shardClosedHandler ShardClosedHandler
}

func newConfig(opts ...Option) *config {
	c := &config{
		store:     noopStore{},
		logger:    noopLogger{},
		counter:   noopCounter{},
		backoff:   defaultBackoff,
		maxRenews: defaultMaxRenews,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithStore overrides the default storage
func WithStore(store Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLogger overrides the default logger
func WithLogger(logger Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithCounter overrides the default counter
func WithCounter(counter Counter) Option {
	return func(c *config) {
		c.counter = counter
	}
}

// WithBackoff overrides how long a reader waits before fetching again
// after an empty response.
func WithBackoff(d time.Duration) Option {
	return func(c *config) {
		c.backoff = d
	}
}

// WithMaxRenews overrides how many consecutive renewals of an expired
// iterator a reader attempts before failing.
func WithMaxRenews(n int) Option {
	return func(c *config) {
		c.maxRenews = n
	}
}

// WithMaxRecords overrides the maximum number of records to be returned in
// a single fetch (specify a value of up to 10,000)
func WithMaxRecords(n int64) Option {
	return func(c *config) {
		c.maxRecords = n
	}
}

// WithAggregation enables deaggregation of records the producer wrote
// through the KPL.
func WithAggregation(a bool) Option {
	return func(c *config) {
		c.isAggregated = a
	}
}

// ShardClosedHandler is a handler that will be called when the reader has
// reached the end of a closed shard. No more records for that shard will be
// provided. An error can be returned to stop the reader.
type ShardClosedHandler = func(streamName, shardID string) error

func WithShardClosedHandler(h ShardClosedHandler) Option {
	return func(c *config) {
		c.shardClosedHandler = h
	}
}
