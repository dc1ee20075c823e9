package kinesource

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// MultiShardReader consumes a set of splits of one stream concurrently,
// one goroutine per shard, and merges the per-shard batches into a single
// feed. Order is preserved within each shard; no order is promised across
// shards. A slow or idle shard never blocks the others.
//
// Which splits the process owns is the caller's decision; pass only the
// splits assigned to this instance.
type MultiShardReader struct {
	client     KinesisAPI
	streamName string
	splits     []Split
	cfg        *config

	mu        sync.Mutex
	iterators map[string]string
	sequences map[string]string

	batches chan []Message
	stop    context.CancelFunc
	err     error
	started bool
}

// NewMultiShardReader returns a reader over the given splits. At least one
// split must be assigned; every split needs a start position unless the
// configured store holds a checkpoint for its shard.
func NewMultiShardReader(client KinesisAPI, streamName string, splits []Split, opts ...Option) (*MultiShardReader, error) {
	if client == nil {
		return nil, errors.New("must provide kinesis client")
	}
	if streamName == "" {
		return nil, errors.New("must provide stream name")
	}
	if len(splits) == 0 {
		return nil, errors.New("must provide at least one split")
	}
	return &MultiShardReader{
		client:     client,
		streamName: streamName,
		splits:     splits,
		cfg:        newConfig(opts...),
		iterators:  make(map[string]string),
		sequences:  make(map[string]string),
		batches:    make(chan []Message),
	}, nil
}

// Start acquires an iterator for every split and launches the per-shard
// fetch loops. Shards with a checkpoint in the configured store resume
// strictly after it; the others start at their split's start position. Any
// split that cannot be positioned fails the whole start.
func (m *MultiShardReader) Start(ctx context.Context) error {
	if m.started {
		return errors.New("reader already started")
	}

	readers := make([]*ShardReader, 0, len(m.splits))
	for _, split := range m.splits {
		r, err := m.newReader(ctx, split)
		if err != nil {
			return err
		}
		readers = append(readers, r)
	}

	m.cfg.logger.Log("[MULTI]", "starting", len(readers), "shard readers")
	m.started = true

	ctx, m.stop = context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range readers {
		r := r
		g.Go(func() error {
			return m.run(ctx, r)
		})
	}

	go func() {
		err := g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		m.err = err
		close(m.batches)
	}()
	return nil
}

// Stop asks every shard task to finish and lets the feed drain. After the
// in-flight batches are consumed, Next returns io.EOF.
func (m *MultiShardReader) Stop() {
	if m.stop != nil {
		m.stop()
	}
}

// Next returns the next batch from whichever shard has one ready. Each
// batch holds records of a single shard in order. Once every shard task has
// finished, Next returns the first fatal error if there was one and io.EOF
// after a clean drain or Stop.
func (m *MultiShardReader) Next(ctx context.Context) ([]Message, error) {
	if !m.started {
		return nil, errors.New("reader not started")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case batch, ok := <-m.batches:
		if !ok {
			if m.err != nil {
				return nil, m.err
			}
			return nil, io.EOF
		}
		return batch, nil
	}
}

// Scan starts the reader when necessary and calls fn with each message
// until every shard is drained, fn returns an error, or the context ends.
// Progress is committed to the configured store after each batch unless fn
// returned ErrSkipCheckpoint for one of its messages.
func (m *MultiShardReader) Scan(ctx context.Context, fn func(Message) error) error {
	if !m.started {
		if err := m.Start(ctx); err != nil {
			return err
		}
		defer m.Stop()
	}

	for {
		msgs, err := m.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		skip := false
		for _, msg := range msgs {
			if err := fn(msg); err != nil {
				if errors.Is(err, ErrSkipCheckpoint) {
					skip = true
					continue
				}
				return err
			}
		}
		if skip {
			continue
		}

		last := msgs[len(msgs)-1]
		cp := Checkpoint{
			StreamName:     m.streamName,
			ShardID:        last.ShardID,
			SequenceNumber: last.SequenceNumber,
		}
		if err := m.Commit(ctx, cp); err != nil {
			return err
		}
	}
}

// Commit persists a checkpoint to the configured store. Typically the
// checkpoint is one taken from Checkpoints, committed once the caller has
// durably processed everything up to it.
func (m *MultiShardReader) Commit(ctx context.Context, cp Checkpoint) error {
	if err := cp.validate(); err != nil {
		return err
	}
	if err := m.cfg.store.SetCheckpoint(ctx, cp.StreamName, cp.ShardID, cp.SequenceNumber); err != nil {
		return errors.Wrapf(err, "set checkpoint for shard %s of stream %s", cp.ShardID, cp.StreamName)
	}
	m.cfg.counter.Add("checkpoints", 1)
	counterCheckpointsWritten.WithLabelValues(cp.StreamName, cp.ShardID).Inc()
	return nil
}

// Checkpoints returns a snapshot of per-shard progress, one checkpoint per
// shard that has consumed at least one record, ordered by shard id.
func (m *MultiShardReader) Checkpoints() []Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	cps := make([]Checkpoint, 0, len(m.sequences))
	for shardID, sequence := range m.sequences {
		cps = append(cps, Checkpoint{
			StreamName:     m.streamName,
			ShardID:        shardID,
			SequenceNumber: sequence,
		})
	}
	sort.Slice(cps, func(i, j int) bool { return cps[i].ShardID < cps[j].ShardID })
	return cps
}

// Iterators returns a snapshot of each shard's current iterator.
func (m *MultiShardReader) Iterators() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	iterators := make(map[string]string, len(m.iterators))
	for shardID, iterator := range m.iterators {
		iterators[shardID] = iterator
	}
	return iterators
}

// newReader builds the ShardReader for one split, resuming from the store
// when it holds a checkpoint for the shard.
func (m *MultiShardReader) newReader(ctx context.Context, split Split) (*ShardReader, error) {
	sequence, err := m.cfg.store.GetCheckpoint(ctx, m.streamName, split.ShardID)
	if err != nil {
		return nil, errors.Wrapf(err, "get checkpoint for shard %s of stream %s", split.ShardID, m.streamName)
	}

	r, err := newShardReader(ctx, m.client, m.streamName, split, sequence, m.cfg)
	if err != nil {
		return nil, err
	}
	r.onAdvance = m.recordAdvance
	m.recordAdvance(split.ShardID, r.iterator, sequence)
	return r, nil
}

// run drives one shard until it drains or fails. Throughput errors are
// retried here with exponential backoff; they are the shard's problem, not
// the merged feed's.
func (m *MultiShardReader) run(ctx context.Context, r *ShardReader) error {
	attempts := 0
	for {
		msgs, err := r.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			m.cfg.logger.Log("[MULTI]", "shard drained", r.split.ShardID)
			return nil
		case IsRecoverable(err):
			attempts++
			m.cfg.logger.Log("[MULTI]", "throughput exceeded", r.split.ShardID, "attempt", attempts)
			if err := awsWaitTimeExp(ctx, attempts); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}
		attempts = 0

		select {
		case <-ctx.Done():
			return ctx.Err()
		case m.batches <- msgs:
		}
	}
}

func (m *MultiShardReader) recordAdvance(shardID, iterator, sequenceNumber string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iterators[shardID] = iterator
	if sequenceNumber != "" {
		m.sequences[shardID] = sequenceNumber
	}
}
