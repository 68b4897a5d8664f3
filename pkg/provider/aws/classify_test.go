package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/smithy-go"

	"github.com/wastescan/detector/pkg/detect"
)

func TestClassifyNilErrorReturnsNil(t *testing.T) {
	if classify("scope", nil) != nil {
		t.Fatal("expected nil for a nil error")
	}
}

func TestClassifyDeadlineExceededIsTimeout(t *testing.T) {
	ae := classify("region=us-east-1", context.DeadlineExceeded)
	if ae.Kind != detect.ErrorKindTimeout {
		t.Fatalf("kind = %v, want timeout", ae.Kind)
	}
	if ae.Fatal {
		t.Fatal("timeout should not be fatal")
	}
}

func TestClassifyAccessDeniedIsAuthorization(t *testing.T) {
	err := &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}
	ae := classify("resource_type=volume", err)
	if ae.Kind != detect.ErrorKindAuthorization {
		t.Fatalf("kind = %v, want authorization", ae.Kind)
	}
	if ae.Fatal {
		t.Fatal("authorization errors should be scoped, not fatal")
	}
}

func TestClassifyThrottlingIsThrottled(t *testing.T) {
	err := &smithy.GenericAPIError{Code: "ThrottlingException"}
	ae := classify("scope", err)
	if ae.Kind != detect.ErrorKindThrottled {
		t.Fatalf("kind = %v, want throttled", ae.Kind)
	}
}

func TestClassifyInvalidTokenIsFatalAuthentication(t *testing.T) {
	err := &smithy.GenericAPIError{Code: "ExpiredToken"}
	ae := classify("scope", err)
	if ae.Kind != detect.ErrorKindAuthentication {
		t.Fatalf("kind = %v, want authentication", ae.Kind)
	}
	if !ae.Fatal {
		t.Fatal("expired credentials must be fatal")
	}
}

func TestClassifyUnknownErrorIsUnexpectedData(t *testing.T) {
	ae := classify("scope", errors.New("boom"))
	if ae.Kind != detect.ErrorKindUnexpectedData {
		t.Fatalf("kind = %v, want unexpected_data_shape", ae.Kind)
	}
}
