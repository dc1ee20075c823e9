package kinesource

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
)

type kinesisClientMock struct {
	listShardsMock       func(context.Context, *kinesis.ListShardsInput) (*kinesis.ListShardsOutput, error)
	getShardIteratorMock func(context.Context, *kinesis.GetShardIteratorInput) (*kinesis.GetShardIteratorOutput, error)
	getRecordsMock       func(context.Context, *kinesis.GetRecordsInput) (*kinesis.GetRecordsOutput, error)
}

func (c *kinesisClientMock) ListShards(ctx context.Context, in *kinesis.ListShardsInput, _ ...func(*kinesis.Options)) (*kinesis.ListShardsOutput, error) {
	return c.listShardsMock(ctx, in)
}

func (c *kinesisClientMock) GetShardIterator(ctx context.Context, in *kinesis.GetShardIteratorInput, _ ...func(*kinesis.Options)) (*kinesis.GetShardIteratorOutput, error) {
	return c.getShardIteratorMock(ctx, in)
}

func (c *kinesisClientMock) GetRecords(ctx context.Context, in *kinesis.GetRecordsInput, _ ...func(*kinesis.Options)) (*kinesis.GetRecordsOutput, error) {
	return c.getRecordsMock(ctx, in)
}

// serveIterator hands out the same iterator for every request.
func serveIterator(token string) func(context.Context, *kinesis.GetShardIteratorInput) (*kinesis.GetShardIteratorOutput, error) {
	return func(context.Context, *kinesis.GetShardIteratorInput) (*kinesis.GetShardIteratorOutput, error) {
		return &kinesis.GetShardIteratorOutput{ShardIterator: aws.String(token)}, nil
	}
}

// serveRecords serves canned GetRecords pages keyed by iterator token.
func serveRecords(pages map[string]*kinesis.GetRecordsOutput) func(context.Context, *kinesis.GetRecordsInput) (*kinesis.GetRecordsOutput, error) {
	return func(_ context.Context, in *kinesis.GetRecordsInput) (*kinesis.GetRecordsOutput, error) {
		out, ok := pages[aws.ToString(in.ShardIterator)]
		if !ok {
			return nil, fmt.Errorf("unknown iterator %q", aws.ToString(in.ShardIterator))
		}
		return out, nil
	}
}

func testRecords(sequenceNumbers ...string) []types.Record {
	records := make([]types.Record, len(sequenceNumbers))
	for i, sequence := range sequenceNumbers {
		records[i] = types.Record{
			Data:           []byte("data-" + sequence),
			PartitionKey:   aws.String("pk"),
			SequenceNumber: aws.String(sequence),
		}
	}
	return records
}

// implementation of the store
type fakeStore struct {
	mu    sync.Mutex
	cache map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{cache: map[string]string{}}
}

func (fs *fakeStore) SetCheckpoint(_ context.Context, streamName, shardID, sequenceNumber string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := fmt.Sprintf("%s-%s", streamName, shardID)
	fs.cache[key] = sequenceNumber
	return nil
}

func (fs *fakeStore) GetCheckpoint(_ context.Context, streamName, shardID string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := fmt.Sprintf("%s-%s", streamName, shardID)
	return fs.cache[key], nil
}

// implementation of counter
type fakeCounter struct {
	mu      sync.Mutex
	counter int64
}

func (fc *fakeCounter) Add(streamName string, count int64) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.counter += count
}

func (fc *fakeCounter) value() int64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.counter
}
