package kinesource

import "time"

// PositionKind enumerates the ways a read can be anchored in a shard.
type PositionKind int

const (
	// PositionNone marks an absent bound. As a start bound it is rejected;
	// as an end bound it means the split is unbounded.
	PositionNone PositionKind = iota

	// PositionEarliest anchors at the oldest untrimmed record.
	PositionEarliest

	// PositionLatest anchors after the newest record. Only meaningful as
	// an explicit choice by a future contract; Acquire rejects it today.
	PositionLatest

	// PositionSequenceNumber anchors relative to a sequence number.
	PositionSequenceNumber

	// PositionTimestamp anchors at the first record at or after a point
	// in time.
	PositionTimestamp
)

func (k PositionKind) String() string {
	switch k {
	case PositionNone:
		return "none"
	case PositionEarliest:
		return "earliest"
	case PositionLatest:
		return "latest"
	case PositionSequenceNumber:
		return "sequence-number"
	case PositionTimestamp:
		return "timestamp"
	}
	return "unknown"
}

// Position is a point in a shard's record sequence. The zero value is
// PositionNone.
type Position struct {
	Kind           PositionKind
	SequenceNumber string
	Timestamp      time.Time
}

// Earliest returns the position of the oldest untrimmed record.
func Earliest() Position {
	return Position{Kind: PositionEarliest}
}

// Latest returns the position just past the newest record.
func Latest() Position {
	return Position{Kind: PositionLatest}
}

// AtSequenceNumber returns a position anchored at the given sequence
// number. As a start bound reading begins strictly after it; as an end
// bound it is exclusive.
func AtSequenceNumber(sequenceNumber string) Position {
	return Position{Kind: PositionSequenceNumber, SequenceNumber: sequenceNumber}
}

// AtTimestamp returns a position anchored at the first record at or after t.
func AtTimestamp(t time.Time) Position {
	return Position{Kind: PositionTimestamp, Timestamp: t}
}
