package goVerify

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDestination is an exported constant or variable used by the verification engine.
	ErrInvalidDestination = errors.New("invalid destination")
	// ErrInvalidToken is an exported constant or variable used by the verification engine.
	ErrInvalidToken = errors.New("invalid verification token")
	// ErrInvalidCode is an exported constant or variable used by the verification engine.
	ErrInvalidCode = errors.New("invalid verification code format")
	// ErrTokenNotFound is an exported constant or variable used by the verification engine.
	ErrTokenNotFound = errors.New("verification token not found")
	// ErrCodeExpired is an exported constant or variable used by the verification engine.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeMismatch is an exported constant or variable used by the verification engine.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrAttemptsExhausted is an exported constant or variable used by the verification engine.
	ErrAttemptsExhausted = errors.New("verification attempts exhausted")
	// ErrAlreadyVerified is an exported constant or variable used by the verification engine.
	ErrAlreadyVerified = errors.New("verification already succeeded")
	// ErrNotVerified is an exported constant or variable used by the verification engine.
	ErrNotVerified = errors.New("verification not completed")
	// ErrAlreadyConsumed is an exported constant or variable used by the verification engine.
	ErrAlreadyConsumed = errors.New("verification already consumed")
	// ErrThrottled is an exported constant or variable used by the verification engine.
	ErrThrottled = errors.New("verification throttled")
	// ErrConflict is an exported constant or variable used by the verification engine.
	ErrConflict = errors.New("concurrent verification update conflict")
	// ErrDeliveryFailed is an exported constant or variable used by the verification engine.
	ErrDeliveryFailed = errors.New("verification delivery failed")
	// ErrEntropyUnavailable is an exported constant or variable used by the verification engine.
	ErrEntropyUnavailable = errors.New("secure randomness source unavailable")
	// ErrStoreUnavailable is an exported constant or variable used by the verification engine.
	ErrStoreUnavailable = errors.New("verification store unavailable")
	// ErrChannelNotConfigured is an exported constant or variable used by the verification engine.
	ErrChannelNotConfigured = errors.New("verification channel not configured")
	// ErrReceiptDisabled is an exported constant or variable used by the verification engine.
	ErrReceiptDisabled = errors.New("consumption receipts disabled")
	// ErrReceiptInvalid is an exported constant or variable used by the verification engine.
	ErrReceiptInvalid = errors.New("invalid consumption receipt")
	// ErrEngineNotReady is an exported constant or variable used by the verification engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ThrottledError reports a rate-policy rejection together with the wait
// duration after which the caller may retry. It matches [ErrThrottled]
// through errors.Is.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("verification throttled, retry after %s", e.RetryAfter)
}

// Is reports whether target is [ErrThrottled], so callers can use
// errors.Is without unwrapping the concrete type.
func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

// RetryAfterSeconds returns the retry delay rounded up to whole seconds,
// the shape transport layers put into Retry-After headers.
func (e *ThrottledError) RetryAfterSeconds() int64 {
	secs := int64(e.RetryAfter / time.Second)
	if e.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}
