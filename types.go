package goVerify

import (
	"context"
	"time"
)

// Channel identifies the out-of-band delivery channel a verification
// code is sent through.
type Channel uint8

const (
	// ChannelSMS is an exported constant or variable used by the verification engine.
	ChannelSMS Channel = iota
	// ChannelEmail is an exported constant or variable used by the verification engine.
	ChannelEmail
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Channel) String() string {
	switch c {
	case ChannelSMS:
		return "sms"
	case ChannelEmail:
		return "email"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a verification record.
//
// Pending is the only non-terminal state. Verified and Consumed form the
// success path; Expired and Exhausted are permanent failures that require
// re-issuance.
type Status uint8

const (
	// StatusPending is an exported constant or variable used by the verification engine.
	StatusPending Status = iota
	// StatusVerified is an exported constant or variable used by the verification engine.
	StatusVerified
	// StatusConsumed is an exported constant or variable used by the verification engine.
	StatusConsumed
	// StatusExpired is an exported constant or variable used by the verification engine.
	StatusExpired
	// StatusExhausted is an exported constant or variable used by the verification engine.
	StatusExhausted
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusVerified:
		return "verified"
	case StatusConsumed:
		return "consumed"
	case StatusExpired:
		return "expired"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Record is the stored state of one verification attempt. The secret code
// is retained only as a SHA-256 hash; the plaintext exists solely in the
// rendered delivery message.
//
// All timestamps are Unix milliseconds. RetainUntil is the store eviction
// backstop: it outlives ExpiresAt so terminal records stay visible for
// throttle history and audit until the TTL fires.
type Record struct {
	Token       string
	TenantID    string
	Channel     Channel
	Destination string
	CodeHash    [32]byte
	CreatedAt   int64
	ExpiresAt   int64
	RetainUntil int64
	Attempts    uint16
	MaxAttempts uint16
	Status      Status
}

// Verified reports whether the record reached the success path
// (verified or already consumed).
func (r *Record) Verified() bool {
	return r.Status == StatusVerified || r.Status == StatusConsumed
}

// Mutation is applied by [Store.AtomicUpdate] under per-token
// serialization. It mutates the record in place and reports whether the
// mutated record must be written back. The returned outcome error is
// surfaced to the caller alongside the post-mutation record; it does not
// abort the write.
type Mutation func(r *Record) (write bool, outcome error)

// Store is the keyed verification record backend. Implementations must
// provide per-token linearizable updates through AtomicUpdate; no other
// operation requires cross-key atomicity.
//
// Implementations signal absence with [ErrTokenNotFound], lost update
// races with [ErrConflict], and infrastructure faults wrapped around
// [ErrStoreUnavailable].
type Store interface {
	// Put creates or overwrites the record keyed by its token, arming a
	// TTL backstop so the backend evicts it past RetainUntil even if the
	// application never touches it again.
	Put(ctx context.Context, record *Record, ttl time.Duration) error

	// GetByToken loads a single record.
	GetByToken(ctx context.Context, tenantID, token string) (*Record, error)

	// ListByDestination returns the records issued to a destination at or
	// after since, oldest first. Used only for throttle computation.
	ListByDestination(ctx context.Context, tenantID string, channel Channel, destination string, since time.Time) ([]*Record, error)

	// LatestByDestination returns the most recently issued record that is
	// still present for the destination, or ErrTokenNotFound.
	LatestByDestination(ctx context.Context, tenantID string, channel Channel, destination string) (*Record, error)

	// AtomicUpdate applies fn under a read-modify-write transaction keyed
	// by token. Two concurrent updates on one token must serialize; the
	// loser either re-runs against fresh state or fails with ErrConflict
	// after one internal retry.
	AtomicUpdate(ctx context.Context, tenantID, token string, fn Mutation) (*Record, error)
}

// DeliveryAdapter sends a rendered message to a destination over one
// channel. Implementations must respect ctx cancellation; the engine
// bounds every Send with the configured delivery timeout and treats a
// timed-out send as delivery failure, not issuance failure.
type DeliveryAdapter interface {
	Send(ctx context.Context, destination, message string) error
}

// DeliveryAdapterFunc adapts a plain function to [DeliveryAdapter].
type DeliveryAdapterFunc func(ctx context.Context, destination, message string) error

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f DeliveryAdapterFunc) Send(ctx context.Context, destination, message string) error {
	return f(ctx, destination, message)
}

// Renderer produces the delivery message body from a channel template and
// the secret code. It must be a pure function.
type Renderer func(template, code string) string

// IssueResult is returned by [Engine.Issue].
//
// DeliveryWarning is non-nil when the code was persisted but the delivery
// adapter failed or timed out; the issuance itself still succeeded and
// the caller decides whether to re-issue.
type IssueResult struct {
	Token           string
	ExpiresAt       time.Time
	DeliveryWarning error
}

// CheckResult is returned by [Engine.Check] on the success path.
type CheckResult struct {
	Verified    bool
	Channel     Channel
	Destination string
}

// ConsumeResult is returned by [Engine.Consume]. Receipt is empty unless
// signed consumption receipts are enabled.
type ConsumeResult struct {
	Channel     Channel
	Destination string
	Receipt     string
}
