package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Kind classifies a store failure for the recovery and surfacing rules.
type Kind int

const (
	// KindUnknown covers failures with no specific handling.
	KindUnknown Kind = iota
	// KindAuthExpired marks an expired/invalid delegated credential;
	// recovered locally by refresh plus one retry.
	KindAuthExpired
	// KindAuthFailure marks a failed credential refresh. Fatal for the
	// current request.
	KindAuthFailure
	// KindThrottled marks provider throttling. Not retried here.
	KindThrottled
	// KindValidation marks a malformed item or request.
	KindValidation
	// KindNotFound marks a missing table or item.
	KindNotFound
	// KindUnavailable marks a timed-out or unreachable store.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth expired"
	case KindAuthFailure:
		return "auth failure"
	case KindThrottled:
		return "throttled"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified store failure.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsAuthExpired reports whether err is an expired-security-token failure,
// the only class the recovery coordinator retries.
func IsAuthExpired(err error) bool {
	return KindOf(err) == KindAuthExpired
}

// IsNotFound reports whether err marks a missing item.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// Provider error codes mapped to KindAuthExpired. The expired-token class
// shows up under several codes depending on the operation.
var expiredTokenCodes = map[string]bool{
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
	"InvalidClientTokenId":        true,
	"UnrecognizedClientException": true,
}

var throttledCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
}

// classify wraps a provider error with its failure kind.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := KindUnknown
	var apiErr smithy.APIError
	switch {
	case errors.As(err, &apiErr):
		code := apiErr.ErrorCode()
		switch {
		case expiredTokenCodes[code]:
			kind = KindAuthExpired
		case throttledCodes[code]:
			kind = KindThrottled
		case code == "ResourceNotFoundException":
			kind = KindNotFound
		case code == "ValidationException":
			kind = KindValidation
		}
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindUnavailable
	}

	return &Error{Op: op, Kind: kind, Err: err}
}
