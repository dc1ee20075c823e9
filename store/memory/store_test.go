package memory_test

import (
	"context"
	"testing"

	"github.com/streamhouse/kinesource/store/memory"
)

func Test_CheckpointLifecycle(t *testing.T) {
	c := memory.New()
	ctx := context.Background()

	// set
	if err := c.SetCheckpoint(ctx, "streamName", "shardID", "testSeqNum"); err != nil {
		t.Fatalf("set checkpoint error: %v", err)
	}

	// get
	val, err := c.GetCheckpoint(ctx, "streamName", "shardID")
	if err != nil {
		t.Fatalf("get checkpoint error: %v", err)
	}
	if val != "testSeqNum" {
		t.Fatalf("checkpoint exists expected %s, got %s", "testSeqNum", val)
	}
}

func Test_GetMissingCheckpoint(t *testing.T) {
	c := memory.New()

	val, err := c.GetCheckpoint(context.Background(), "streamName", "shardID")
	if err != nil {
		t.Fatalf("get checkpoint error: %v", err)
	}
	if val != "" {
		t.Fatalf("expected empty checkpoint, got %s", val)
	}
}

func Test_SetEmptySeqNum(t *testing.T) {
	c := memory.New()

	err := c.SetCheckpoint(context.Background(), "streamName", "shardID", "")
	if err == nil || err.Error() != "sequence number should not be empty" {
		t.Fatalf("should not allow empty sequence number")
	}
}
