package kinesource

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	"github.com/pkg/errors"
)

// ErrSkipCheckpoint is used as a return value from the scan function to
// indicate that the current batch should not advance the stored checkpoint
// but the scan should continue.
var ErrSkipCheckpoint = errors.New("skip checkpoint")

// DiscoveryError indicates that listing shards produced an empty shard set
// for the stream. The stream either does not exist or is not visible to the
// caller, and retrying without operator attention will not help.
type DiscoveryError struct {
	StreamName string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("no shards found in stream %s", e.StreamName)
}

// StartPositionError indicates a start bound the reader cannot serve. It is
// returned before any request is made.
type StartPositionError struct {
	ShardID string
	Kind    PositionKind
}

func (e *StartPositionError) Error() string {
	return fmt.Sprintf("start position %s not supported for shard %s", e.Kind, e.ShardID)
}

// ThroughputExceededError indicates the shard's read capacity was exhausted.
// The reader that returned it remains usable; callers retry after backing
// off.
type ThroughputExceededError struct {
	StreamName string
	ShardID    string
	Err        error
}

func (e *ThroughputExceededError) Error() string {
	return fmt.Sprintf("throughput exceeded on shard %s of stream %s: %v", e.ShardID, e.StreamName, e.Err)
}

func (e *ThroughputExceededError) Unwrap() error { return e.Err }

// MalformedCheckpointError indicates a checkpoint with missing fields.
type MalformedCheckpointError struct {
	Reason string
}

func (e *MalformedCheckpointError) Error() string {
	return fmt.Sprintf("malformed checkpoint: %s", e.Reason)
}

type isRecoverableErrorFunc func(error) bool

var isRecoverableErrors = []isRecoverableErrorFunc{
	throughputIsRecoverableError,
	kinesisIsRecoverableError,
}

// IsRecoverable determines whether the caller may retry the call that
// produced err after backing off. Errors that are not recoverable are fatal
// to the reader that returned them.
func IsRecoverable(err error) bool {
	for _, errF := range isRecoverableErrors {
		if errF(err) {
			return true
		}
	}
	return false
}

func throughputIsRecoverableError(err error) bool {
	var te *ThroughputExceededError
	return errors.As(err, &te)
}

func kinesisIsRecoverableError(err error) bool {
	var pte *types.ProvisionedThroughputExceededException
	return errors.As(err, &pte)
}
