package kinesource

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/pkg/errors"
)

func TestNewShardEnumerator(t *testing.T) {
	client := &kinesisClientMock{}

	if _, err := NewShardEnumerator(client, "myStreamName"); err != nil {
		t.Fatalf("new enumerator error: %v", err)
	}

	if _, err := NewShardEnumerator(client, ""); err == nil {
		t.Errorf("expected error for missing stream name, got nil")
	}

	if _, err := NewShardEnumerator(nil, "myStreamName"); err == nil {
		t.Errorf("expected error for missing client, got nil")
	}
}

func TestListSplits_FollowsPagination(t *testing.T) {
	pages := map[string]*kinesis.ListShardsOutput{
		"": {
			Shards:    []types.Shard{{ShardId: aws.String("shardId-0")}, {ShardId: aws.String("shardId-1")}},
			NextToken: aws.String("token-1"),
		},
		"token-1": {
			Shards:    []types.Shard{{ShardId: aws.String("shardId-2")}},
			NextToken: aws.String("token-2"),
		},
		"token-2": {
			Shards: []types.Shard{{ShardId: aws.String("shardId-3")}},
		},
	}

	var calls int
	client := &kinesisClientMock{
		listShardsMock: func(_ context.Context, in *kinesis.ListShardsInput) (*kinesis.ListShardsOutput, error) {
			calls++
			if aws.ToString(in.StreamName) != "myStreamName" {
				t.Errorf("stream name expected %s, got %s", "myStreamName", aws.ToString(in.StreamName))
			}
			return pages[aws.ToString(in.NextToken)], nil
		},
	}

	e, err := NewShardEnumerator(client, "myStreamName")
	if err != nil {
		t.Fatalf("new enumerator error: %v", err)
	}

	splits, err := e.ListSplits(context.Background())
	if err != nil {
		t.Fatalf("list splits error: %v", err)
	}

	if calls != 3 {
		t.Errorf("list shards calls expected %d, got %d", 3, calls)
	}
	if len(splits) != 4 {
		t.Fatalf("splits expected %d, got %d", 4, len(splits))
	}

	seen := map[string]int{}
	for _, split := range splits {
		seen[split.ShardID]++
		if split.StartPosition.Kind != PositionNone {
			t.Errorf("start position expected %v, got %v", PositionNone, split.StartPosition.Kind)
		}
	}
	for _, shardID := range []string{"shardId-0", "shardId-1", "shardId-2", "shardId-3"} {
		if seen[shardID] != 1 {
			t.Errorf("shard %s expected exactly once, got %d", shardID, seen[shardID])
		}
	}
}

func TestListSplits_EmptyPageFails(t *testing.T) {
	pages := map[string]*kinesis.ListShardsOutput{
		"": {
			Shards:    []types.Shard{{ShardId: aws.String("shardId-0")}},
			NextToken: aws.String("token-1"),
		},
		"token-1": {
			Shards: []types.Shard{},
		},
	}

	client := &kinesisClientMock{
		listShardsMock: func(_ context.Context, in *kinesis.ListShardsInput) (*kinesis.ListShardsOutput, error) {
			return pages[aws.ToString(in.NextToken)], nil
		},
	}

	e, err := NewShardEnumerator(client, "myStreamName")
	if err != nil {
		t.Fatalf("new enumerator error: %v", err)
	}

	_, err = e.ListSplits(context.Background())

	var discoveryErr *DiscoveryError
	if !errors.As(err, &discoveryErr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
	if discoveryErr.StreamName != "myStreamName" {
		t.Errorf("stream name expected %s, got %s", "myStreamName", discoveryErr.StreamName)
	}
}

func TestListSplits_RequestError(t *testing.T) {
	client := &kinesisClientMock{
		listShardsMock: func(context.Context, *kinesis.ListShardsInput) (*kinesis.ListShardsOutput, error) {
			return nil, errors.New("access denied")
		},
	}

	e, err := NewShardEnumerator(client, "myStreamName")
	if err != nil {
		t.Fatalf("new enumerator error: %v", err)
	}

	_, err = e.ListSplits(context.Background())
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "list shards of stream myStreamName") {
		t.Errorf("error should name the stream, got %v", err)
	}
	if IsRecoverable(err) {
		t.Errorf("request error should not be recoverable")
	}
}
