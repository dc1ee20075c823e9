package kinesource

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/awslabs/kinesis-aggregation/go/v2/deaggregator"
	"github.com/pkg/errors"
)

type readerState int

const (
	stateReady readerState = iota
	stateStopped
	stateFailed
)

// ShardReader consumes a single shard of a stream in order. It owns the
// shard's iterator, renews it when it expires, honors the split's end
// bound, and surfaces its progress as checkpoints.
//
// A ShardReader is not safe for concurrent use. Run one goroutine per
// shard, or let MultiShardReader do the merging.
type ShardReader struct {
	client     KinesisAPI
	streamName string
	split      Split
	cursor     *Cursor
	cfg        *config

	iterator       string
	latestSequence string
	state          readerState
	failure        error
	closed         bool
	closedNotified bool

	// onAdvance publishes iterator and sequence movements to the owning
	// MultiShardReader.
	onAdvance func(shardID, iterator, sequenceNumber string)
}

// NewShardReader returns a reader for one split of a stream. The shard
// iterator is acquired here, anchored at the split's start position, so a
// misconfigured split fails before any records move.
func NewShardReader(ctx context.Context, client KinesisAPI, streamName string, split Split, opts ...Option) (*ShardReader, error) {
	return newShardReader(ctx, client, streamName, split, "", newConfig(opts...))
}

// ResumeShardReader returns a reader that continues strictly after the
// checkpointed sequence number. The checkpoint is validated first; a
// checkpoint with missing fields is rejected with a
// MalformedCheckpointError.
func ResumeShardReader(ctx context.Context, client KinesisAPI, cp Checkpoint, opts ...Option) (*ShardReader, error) {
	if err := cp.validate(); err != nil {
		return nil, err
	}
	split := Split{
		ShardID:       cp.ShardID,
		StartPosition: AtSequenceNumber(cp.SequenceNumber),
	}
	return newShardReader(ctx, client, cp.StreamName, split, cp.SequenceNumber, newConfig(opts...))
}

func newShardReader(ctx context.Context, client KinesisAPI, streamName string, split Split, lastSequence string, cfg *config) (*ShardReader, error) {
	if client == nil {
		return nil, errors.New("must provide kinesis client")
	}
	if streamName == "" {
		return nil, errors.New("must provide stream name")
	}
	if split.ShardID == "" {
		return nil, errors.New("must provide shard id")
	}

	r := &ShardReader{
		client:         client,
		streamName:     streamName,
		split:          split,
		cursor:         NewCursor(client, streamName, split.ShardID),
		cfg:            cfg,
		latestSequence: lastSequence,
	}

	var (
		iterator string
		err      error
	)
	if lastSequence != "" {
		iterator, err = r.cursor.Renew(ctx, lastSequence)
	} else {
		iterator, err = r.cursor.Acquire(ctx, split.StartPosition)
	}
	if err != nil {
		return nil, err
	}
	r.iterator = iterator
	return r, nil
}

// Next returns the next batch of messages from the shard. It blocks until
// records arrive, backing off between empty fetches, and transparently
// renews the iterator when it expires. Batches preserve the shard's record
// order and never repeat or skip a sequence number.
//
// Once the shard is fully consumed, because it was closed or because the
// split's end bound was reached, Next returns io.EOF forever. A fatal error
// is returned as is and repeats on every later call. The one retryable
// error, ThroughputExceededError, leaves the reader usable; call Next again
// after backing off.
func (r *ShardReader) Next(ctx context.Context) ([]Message, error) {
	switch r.state {
	case stateStopped:
		if err := r.notifyClosed(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	case stateFailed:
		return nil, r.failure
	}

	renews := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		input := &kinesis.GetRecordsInput{
			ShardIterator: aws.String(r.iterator),
		}
		if r.cfg.maxRecords > 0 {
			input.Limit = aws.Int32(int32(r.cfg.maxRecords))
		}

		resp, err := r.client.GetRecords(ctx, input)
		if err != nil {
			var expired *types.ExpiredIteratorException
			if errors.As(err, &expired) {
				renews++
				if renews > r.cfg.maxRenews {
					return nil, r.fail(errors.Wrapf(err, "iterator for shard %s of stream %s still expired after %d renewals", r.split.ShardID, r.streamName, r.cfg.maxRenews))
				}
				if err := r.renew(ctx); err != nil {
					return nil, r.fail(err)
				}
				continue
			}

			var throttled *types.ProvisionedThroughputExceededException
			if errors.As(err, &throttled) {
				return nil, &ThroughputExceededError{
					StreamName: r.streamName,
					ShardID:    r.split.ShardID,
					Err:        err,
				}
			}

			return nil, r.fail(errors.Wrapf(err, "get records from shard %s of stream %s", r.split.ShardID, r.streamName))
		}
		renews = 0

		msgs, reachedEnd, err := r.collect(resp.Records)
		if err != nil {
			return nil, r.fail(err)
		}

		collectorMillisBehindLatest.
			WithLabelValues(r.streamName, r.split.ShardID).
			Observe(float64(aws.ToInt64(resp.MillisBehindLatest)))

		closed := resp.NextShardIterator == nil
		if !closed {
			r.iterator = aws.ToString(resp.NextShardIterator)
			r.advertise()
		}

		if reachedEnd || closed {
			r.closed = closed
			r.state = stateStopped
			if len(msgs) == 0 {
				if err := r.notifyClosed(); err != nil {
					return nil, err
				}
				return nil, io.EOF
			}
			return r.emit(msgs), nil
		}

		if len(msgs) == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.cfg.backoff):
			}
			continue
		}

		return r.emit(msgs), nil
	}
}

// Checkpoint returns a snapshot of the reader's progress. It has no side
// effects and is the zero Checkpoint until the reader has consumed at least
// one record.
func (r *ShardReader) Checkpoint() Checkpoint {
	if r.latestSequence == "" {
		return Checkpoint{}
	}
	return Checkpoint{
		StreamName:     r.streamName,
		ShardID:        r.split.ShardID,
		SequenceNumber: r.latestSequence,
	}
}

// collect converts fetched records into messages, deaggregating first when
// configured. Records at or past the split's end bound are cut off and
// reachedEnd reports that the bound was hit.
func (r *ShardReader) collect(records []types.Record) ([]Message, bool, error) {
	if r.cfg.isAggregated && len(records) > 0 {
		deaggregated, err := deaggregator.DeaggregateRecords(records)
		if err != nil {
			return nil, false, errors.Wrapf(err, "deaggregate records from shard %s of stream %s", r.split.ShardID, r.streamName)
		}
		records = deaggregated
	}

	msgs := make([]Message, 0, len(records))
	for _, record := range records {
		sequence := aws.ToString(record.SequenceNumber)
		if r.split.reachedEnd(sequence) {
			return msgs, true, nil
		}
		r.latestSequence = sequence
		msgs = append(msgs, Message{
			ShardID:        r.split.ShardID,
			PartitionKey:   aws.ToString(record.PartitionKey),
			SequenceNumber: sequence,
			Data:           record.Data,
			Timestamp:      aws.ToTime(record.ApproximateArrivalTimestamp),
		})
	}
	return msgs, false, nil
}

// renew swaps the expired iterator for a fresh one. With records already
// consumed it anchors strictly after the newest of them; before the first
// record it re-acquires at the split's start position, which loses nothing.
func (r *ShardReader) renew(ctx context.Context) error {
	var (
		iterator string
		err      error
	)
	if r.latestSequence == "" {
		iterator, err = r.cursor.Acquire(ctx, r.split.StartPosition)
	} else {
		iterator, err = r.cursor.Renew(ctx, r.latestSequence)
	}
	if err != nil {
		return err
	}
	r.iterator = iterator
	r.advertise()
	r.cfg.logger.Log("[READER]", "renewed expired iterator", r.split.ShardID)
	return nil
}

func (r *ShardReader) emit(msgs []Message) []Message {
	r.cfg.counter.Add("messages", int64(len(msgs)))
	counterMessagesConsumed.
		WithLabelValues(r.streamName, r.split.ShardID).
		Add(float64(len(msgs)))
	r.advertise()
	return msgs
}

func (r *ShardReader) advertise() {
	if r.onAdvance != nil {
		r.onAdvance(r.split.ShardID, r.iterator, r.latestSequence)
	}
}

func (r *ShardReader) notifyClosed() error {
	if !r.closed || r.closedNotified || r.cfg.shardClosedHandler == nil {
		return nil
	}
	r.closedNotified = true
	if err := r.cfg.shardClosedHandler(r.streamName, r.split.ShardID); err != nil {
		return r.fail(errors.Wrapf(err, "shard closed handler for shard %s of stream %s", r.split.ShardID, r.streamName))
	}
	return nil
}

func (r *ShardReader) fail(err error) error {
	r.state = stateFailed
	r.failure = err
	return err
}
