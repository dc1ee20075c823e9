package kinesource

// Split is one shard of a stream together with the bounds a reader should
// honor. StartPosition is required for fresh reads. EndPosition is
// optional; when set to a sequence number the reader emits records
// strictly below it and stops at the first record at or past it.
type Split struct {
	ShardID       string
	StartPosition Position
	EndPosition   Position
}

// reachedEnd reports whether sequenceNumber is at or past the split's end
// bound. Sequence numbers within one shard are fixed-width decimals, so
// string order matches numeric order.
func (s Split) reachedEnd(sequenceNumber string) bool {
	if s.EndPosition.Kind != PositionSequenceNumber {
		return false
	}
	return sequenceNumber >= s.EndPosition.SequenceNumber
}
