package detect

import (
	"errors"
	"fmt"
)

// ErrPartialScan indicates the scan completed but some region/resource-type
// units were skipped or truncated due to API errors, timeouts, or denied
// permissions. Findings collected before the failure are still returned.
var ErrPartialScan = errors.New("scan completed with partial results")

// ErrorKind distinguishes the diagnostic categories the adapter and
// orchestrator must surface distinctly (§6, §7 of the spec): operators see
// materially different remediation steps for each.
type ErrorKind string

const (
	ErrorKindDNS            ErrorKind = "dns_failure"
	ErrorKindTCP            ErrorKind = "tcp_failure"
	ErrorKindTLS            ErrorKind = "tls_failure"
	ErrorKindAuthentication ErrorKind = "authentication_failure"
	ErrorKindAuthorization  ErrorKind = "authorization_failure"
	ErrorKindThrottled      ErrorKind = "throttled"
	ErrorKindTimeout        ErrorKind = "timeout"
	ErrorKindUnexpectedData ErrorKind = "unexpected_data_shape"
)

// AdapterError is the only error shape scenarios and the orchestrator ever
// see from the provider adapter; raw SDK exceptions never escape it.
type AdapterError struct {
	Kind     ErrorKind
	Scope    string // e.g. "region=us-east-1 resource_type=volume"
	Err      error
	Fatal    bool // true only for credential/auth failures: aborts the whole scan
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Scope, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// NewAuthError builds a fatal credential-validation failure.
func NewAuthError(kind ErrorKind, scope string, err error) *AdapterError {
	return &AdapterError{Kind: kind, Scope: scope, Err: err, Fatal: true}
}

// NewScopedError builds a non-fatal, scope-local error (one resource type
// in one region) that the orchestrator records and continues past.
func NewScopedError(kind ErrorKind, scope string, err error) *AdapterError {
	return &AdapterError{Kind: kind, Scope: scope, Err: err, Fatal: false}
}

// ScopeError records one failed region/resource-type/scenario unit for the
// ScanResult's skipped_scenarios / per_region_errors surface.
type ScopeError struct {
	Scope string    `json:"scope"`
	Kind  ErrorKind `json:"kind"`
	Err   string    `json:"error"`
}
