package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/smithy-go"
)

func TestWithRetrySucceedsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestWithRetryReturnsImmediatelyOnNonThrottlingError(t *testing.T) {
	calls := 0
	boom := errors.New("not throttling")
	err := withRetry(context.Background(), func() error {
		calls++
		return boom
	})
	if err != boom {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry for non-throttling errors)", calls)
	}
}

func TestWithRetryRetriesThrottlingUpToMax(t *testing.T) {
	calls := 0
	throttled := &smithy.GenericAPIError{Code: "ThrottlingException"}
	err := withRetry(context.Background(), func() error {
		calls++
		return throttled
	})
	if err != throttled {
		t.Fatalf("err = %v, want %v", err, throttled)
	}
	if calls != maxRetryAttempts {
		t.Fatalf("calls = %d, want %d", calls, maxRetryAttempts)
	}
}

func TestWithRetryRecoversAfterTransientThrottle(t *testing.T) {
	calls := 0
	throttled := &smithy.GenericAPIError{Code: "Throttling"}
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return throttled
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	throttled := &smithy.GenericAPIError{Code: "Throttling"}
	calls := 0
	err := withRetry(ctx, func() error {
		calls++
		return throttled
	})
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestIsThrottling(t *testing.T) {
	if isThrottling(errors.New("plain error")) {
		t.Fatal("a plain error should not be classified as throttling")
	}
	if !isThrottling(&smithy.GenericAPIError{Code: "RequestLimitExceeded"}) {
		t.Fatal("RequestLimitExceeded should be classified as throttling")
	}
}
