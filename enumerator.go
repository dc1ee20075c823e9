package kinesource

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/pkg/errors"
)

// ShardEnumerator discovers the shards of a stream. Each call to ListSplits
// walks the full shard listing; callers that need to react to resharding
// call it again on their own cadence.
type ShardEnumerator struct {
	client     KinesisAPI
	streamName string
	cfg        *config
}

// NewShardEnumerator returns an initialized ShardEnumerator for listing all
// shards on a stream.
func NewShardEnumerator(client KinesisAPI, streamName string, opts ...Option) (*ShardEnumerator, error) {
	if client == nil {
		return nil, errors.New("must provide kinesis client")
	}
	if streamName == "" {
		return nil, errors.New("must provide stream name")
	}
	return &ShardEnumerator{
		client:     client,
		streamName: streamName,
		cfg:        newConfig(opts...),
	}, nil
}

// ListSplits pulls the complete list of shards from the kinesis api and
// returns one unbounded split per shard. Pagination is followed to the end
// so every shard appears exactly once. A page without shards means the
// stream has none and fails the listing with a DiscoveryError.
func (e *ShardEnumerator) ListSplits(ctx context.Context) ([]Split, error) {
	var shards []types.Shard
	var listShardsInput = &kinesis.ListShardsInput{
		StreamName: aws.String(e.streamName),
	}

	for {
		resp, err := e.client.ListShards(ctx, listShardsInput)
		if err != nil {
			return nil, errors.Wrapf(err, "list shards of stream %s", e.streamName)
		}
		if len(resp.Shards) == 0 {
			return nil, &DiscoveryError{StreamName: e.streamName}
		}
		shards = append(shards, resp.Shards...)

		if resp.NextToken == nil {
			break
		}

		listShardsInput = &kinesis.ListShardsInput{
			NextToken:  resp.NextToken,
			StreamName: aws.String(e.streamName),
		}
	}

	e.cfg.logger.Log("[ENUMERATOR]", "discovered shards", len(shards))

	splits := make([]Split, len(shards))
	for i, shard := range shards {
		splits[i] = Split{ShardID: aws.ToString(shard.ShardId)}
	}
	return splits, nil
}
