package aws

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"

	"github.com/wastescan/detector/pkg/detect"
)

// classify turns a raw AWS SDK error into the detect.ErrorKind taxonomy
// every scenario and the orchestrator reason about (§6). Authorization
// failures (access denied) are scoped, not fatal: a scan missing one IAM
// permission should still scan everything it does have access to.
func classify(scope string, err error) *detect.AdapterError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return detect.NewScopedError(detect.ErrorKindTimeout, scope, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UnauthorizedOperation", "AccessDenied", "AccessDeniedException", "AuthFailure":
			return detect.NewScopedError(detect.ErrorKindAuthorization, scope, err)
		case "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequestsException":
			return detect.NewScopedError(detect.ErrorKindThrottled, scope, err)
		case "InvalidClientTokenId", "ExpiredToken", "SignatureDoesNotMatch":
			return detect.NewAuthError(detect.ErrorKindAuthentication, scope, err)
		}
	}

	return detect.NewScopedError(detect.ErrorKindUnexpectedData, scope, err)
}
