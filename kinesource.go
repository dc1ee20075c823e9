// Package kinesource reads partitioned append-only streams in order and
// resumably. It discovers the shards of an Amazon Kinesis stream, fetches
// each shard's records through single-use iterators that it renews as they
// expire, merges the per-shard feeds into one channel of batches, and
// exposes per-shard checkpoints so a restarted process can pick up strictly
// after the last record it consumed.
//
// The package hands out batches; it does not decode payloads, construct
// AWS clients, or decide which process owns which shard. Shard assignment
// and rebalancing belong to the caller.
package kinesource

import "context"

// Enumerator discovers the splits of a stream. Implementations return the
// complete shard set, following pagination to the end.
type Enumerator interface {
	ListSplits(ctx context.Context) ([]Split, error)
}

// Reader delivers batches of messages in order. After a terminal state is
// reached, Next returns io.EOF on a clean stop and the failure itself
// otherwise.
type Reader interface {
	Next(ctx context.Context) ([]Message, error)
}

// Checkpointer reports resumable progress.
type Checkpointer interface {
	Checkpoint() Checkpoint
}

var (
	_ Enumerator   = (*ShardEnumerator)(nil)
	_ Reader       = (*ShardReader)(nil)
	_ Checkpointer = (*ShardReader)(nil)
	_ Reader       = (*MultiShardReader)(nil)
)
