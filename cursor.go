package kinesource

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/pkg/errors"
)

// Cursor obtains the single-use iterators that authorize reads from one
// shard. Iterators expire a few minutes after they are handed out; Renew
// replaces an expired one without re-reading records already consumed.
type Cursor struct {
	client     KinesisAPI
	streamName string
	shardID    string
}

// NewCursor returns a cursor for one shard of a stream.
func NewCursor(client KinesisAPI, streamName, shardID string) *Cursor {
	return &Cursor{
		client:     client,
		streamName: streamName,
		shardID:    shardID,
	}
}

// Acquire requests an iterator anchored at the given start position.
// Reading from a sequence number begins strictly after it. Positions that
// cannot serve as a start are rejected before any request is made.
func (c *Cursor) Acquire(ctx context.Context, start Position) (string, error) {
	params := &kinesis.GetShardIteratorInput{
		ShardId:    aws.String(c.shardID),
		StreamName: aws.String(c.streamName),
	}

	switch start.Kind {
	case PositionEarliest:
		params.ShardIteratorType = types.ShardIteratorTypeTrimHorizon
	case PositionSequenceNumber:
		params.ShardIteratorType = types.ShardIteratorTypeAfterSequenceNumber
		params.StartingSequenceNumber = aws.String(start.SequenceNumber)
	case PositionTimestamp:
		params.ShardIteratorType = types.ShardIteratorTypeAtTimestamp
		params.Timestamp = aws.Time(start.Timestamp)
	default:
		return "", &StartPositionError{ShardID: c.shardID, Kind: start.Kind}
	}

	resp, err := c.client.GetShardIterator(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "get iterator for shard %s of stream %s", c.shardID, c.streamName)
	}
	return aws.ToString(resp.ShardIterator), nil
}

// Renew requests a replacement iterator positioned strictly after the last
// sequence number consumed, so that an expired iterator never repeats or
// skips records.
func (c *Cursor) Renew(ctx context.Context, lastSequenceNumber string) (string, error) {
	if lastSequenceNumber == "" {
		return "", errors.New("must provide sequence number")
	}
	return c.Acquire(ctx, AtSequenceNumber(lastSequenceNumber))
}
