package kinesource

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Checkpoint is a resumable snapshot of one shard's progress. It names the
// last sequence number consumed; a reader built from it continues strictly
// after that record.
type Checkpoint struct {
	StreamName     string `json:"stream_name"`
	ShardID        string `json:"shard_id"`
	SequenceNumber string `json:"sequence_number"`
}

// IsZero reports whether the checkpoint carries no progress.
func (c Checkpoint) IsZero() bool {
	return c == Checkpoint{}
}

func (c Checkpoint) validate() error {
	switch {
	case c.StreamName == "":
		return &MalformedCheckpointError{Reason: "missing stream name"}
	case c.ShardID == "":
		return &MalformedCheckpointError{Reason: "missing shard id"}
	case c.SequenceNumber == "":
		return &MalformedCheckpointError{Reason: "missing sequence number"}
	}
	return nil
}

// ParseCheckpoint decodes a checkpoint from its JSON form and verifies that
// every field is present.
func ParseCheckpoint(data []byte) (Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return Checkpoint{}, errors.Wrap(err, "unmarshal checkpoint")
	}
	if err := c.validate(); err != nil {
		return Checkpoint{}, err
	}
	return c, nil
}

// Store interface used to persist scan progress between runs. Ready-made
// implementations live in the store subpackages.
type Store interface {
	GetCheckpoint(ctx context.Context, streamName, shardID string) (string, error)
	SetCheckpoint(ctx context.Context, streamName, shardID, sequenceNumber string) error
}

// noopStore implements the storage interface with discard
type noopStore struct{}

func (n noopStore) GetCheckpoint(context.Context, string, string) (string, error) {
	return "", nil
}
func (n noopStore) SetCheckpoint(context.Context, string, string, string) error { return nil }
