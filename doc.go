// Package goVerify provides a Redis-backed one-time verification code engine
// with channel-aware delivery, per-destination throttling, bounded attempt
// counting, and exactly-once consumption of successful verifications.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goVerify is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (IssueResult, CheckResult, MetricsSnapshot, etc.). Code generation and token entropy live
// under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, record encodings, or plaintext codes in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Import any sub-package that re-imports goVerify (no import cycles).
//
// # Performance contract
//
// Check is the hot path. It performs a single optimistic Redis transaction per call,
// retried once on contention, and never blocks on delivery transports. Issue is allowed
// one throttle read, one write transaction, and one adapter send per call.
package goVerify
