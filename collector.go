package kinesource

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelStreamName = "stream_name"
	labelShardID    = "shard_id"
)

var (
	collectorMillisBehindLatest = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "kinesource",
		Subsystem: "kinesis",
		Name:      "milliseconds_behind_latest",
		Help:      "The number of milliseconds the last fetch response is from the tip of the stream, indicating how far behind current time the reader is. A value of zero indicates that record processing is caught up, and there are no new records to process at this moment.",
	}, []string{
		labelStreamName,
		labelShardID,
	})

	counterMessagesConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kinesource",
		Subsystem: "kinesis",
		Name:      "messages_consumed_count_total",
		Help:      "Number of messages consumed from the shard belonging to the stream.",
	}, []string{
		labelStreamName,
		labelShardID,
	})

	counterCheckpointsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kinesource",
		Subsystem: "kinesis",
		Name:      "checkpoints_written_count_total",
		Help:      "Number of checkpoints that have been committed for the shard belonging to the stream. Note that a buffering store might not have flushed them yet, as flushing happens independently at a fixed interval.",
	}, []string{
		labelStreamName,
		labelShardID,
	})
)

func init() {
	prometheus.MustRegister(
		collectorMillisBehindLatest,
		counterMessagesConsumed,
		counterCheckpointsWritten,
	)
}
