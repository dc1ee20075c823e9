package kinesource

import "time"

// Message is a single record delivered from one shard of a stream.
type Message struct {
	ShardID        string
	PartitionKey   string
	SequenceNumber string
	Data           []byte
	Timestamp      time.Time
}
