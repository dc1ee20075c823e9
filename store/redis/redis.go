// Package redis provides a checkpoint store backed by a Redis server.
package redis

import (
	"context"
	"fmt"
	"os"

	redis "github.com/redis/go-redis/v9"
)

const localhost = "127.0.0.1:6379"

// New returns a checkpoint store that uses Redis for underlying storage
func New(appName string, opts ...Option) (*Store, error) {
	if appName == "" {
		return nil, fmt.Errorf("must provide app name")
	}

	s := &Store{
		appName: appName,
	}

	// override defaults
	for _, opt := range opts {
		opt(s)
	}

	// default client if none provided
	if s.client == nil {
		addr := os.Getenv("REDIS_URL")
		if addr == "" {
			addr = localhost
		}

		s.client = redis.NewClient(&redis.Options{Addr: addr})
	}

	// verify we can ping server
	if _, err := s.client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}

	return s, nil
}

// Store stores and retrieves checkpoints from a Redis server
type Store struct {
	appName string
	client  *redis.Client
}

// GetCheckpoint fetches the checkpoint for a particular Shard.
func (s *Store) GetCheckpoint(ctx context.Context, streamName, shardID string) (string, error) {
	val, err := s.client.Get(ctx, s.key(streamName, shardID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetCheckpoint stores a checkpoint for a shard (e.g. sequence number of last record processed by application).
// Upon failover, record processing is resumed from this point.
func (s *Store) SetCheckpoint(ctx context.Context, streamName, shardID, sequenceNumber string) error {
	if sequenceNumber == "" {
		return fmt.Errorf("sequence number should not be empty")
	}
	return s.client.Set(ctx, s.key(streamName, shardID), sequenceNumber, 0).Err()
}

// key generates a unique Redis key for storage of Checkpoint.
func (s *Store) key(streamName, shardID string) string {
	return fmt.Sprintf("%v:checkpoint:%v:%v", s.appName, streamName, shardID)
}
