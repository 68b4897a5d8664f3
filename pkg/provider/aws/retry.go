package aws

import (
	"context"
	"errors"
	"time"

	"github.com/aws/smithy-go"
)

// maxRetryAttempts bounds every adapter-level retry loop (§5): the AWS SDK
// already retries transient errors internally, this is a second, much
// shallower layer for throttling that survives the SDK's own retry budget
// (heavy multi-account scans can still get rate-limited past it).
const maxRetryAttempts = 3

// withRetry runs fn up to maxRetryAttempts times, backing off
// exponentially (250ms, then 500ms) only when the error looks like
// throttling. Any other error returns immediately on first failure.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := 250 * time.Millisecond

	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isThrottling(lastErr) {
			return lastErr
		}
		if attempt == maxRetryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}

// isThrottling reports whether err is an AWS API throttling/rate-exceeded
// response, the only failure class withRetry backs off for.
func isThrottling(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "Throttling", "ThrottlingException", "RequestLimitExceeded",
			"TooManyRequestsException", "ProvisionedThroughputExceededException":
			return true
		}
	}
	return false
}
