package kinesource

import (
	"context"
	"math"
	"time"
)

// waitTimeExp computes the wait before retry attempt number attempts,
// following the aws exponential backoff algorithm, capped at 5 minutes.
// http://docs.aws.amazon.com/general/latest/gr/api-retries.html
func waitTimeExp(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	return time.Duration(math.Min(100*math.Pow(2, float64(attempts)), 300000)) * time.Millisecond
}

// awsWaitTimeExp suspends the calling goroutine for the backoff wait, or
// returns early with the context's error when the context ends first.
func awsWaitTimeExp(ctx context.Context, attempts int) error {
	wait := waitTimeExp(attempts)
	if wait == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
