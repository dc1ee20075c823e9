package ddb

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Retryer decides whether a failed DynamoDB call should be attempted again
type Retryer interface {
	ShouldRetry(error) bool
}

// DefaultRetryer retries writes that were throttled by the table
type DefaultRetryer struct{}

// ShouldRetry reports whether the call that produced err may be retried
func (r *DefaultRetryer) ShouldRetry(err error) bool {
	var throttled *types.ProvisionedThroughputExceededException
	return errors.As(err, &throttled)
}
