package internaldefs

import (
	goVerify "github.com/MrEthical07/goVerify"
)

// CounterDef defines a public type used by goVerify APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goVerify.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goVerify APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goVerify.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the verification engine.
var CounterDefs = []CounterDef{
	{ID: goVerify.MetricIssueSuccess, Name: "goverify_issue_success_total", Help: "Successful code issuances."},
	{ID: goVerify.MetricIssueThrottled, Name: "goverify_issue_throttled_total", Help: "Issuances denied by destination throttling."},
	{ID: goVerify.MetricIssueFailure, Name: "goverify_issue_failure_total", Help: "Failed code issuances."},
	{ID: goVerify.MetricDeliveryFailure, Name: "goverify_delivery_failure_total", Help: "Delivery adapter failures on issuance."},
	{ID: goVerify.MetricCheckSuccess, Name: "goverify_check_success_total", Help: "Code checks that verified the destination."},
	{ID: goVerify.MetricCheckMismatch, Name: "goverify_check_mismatch_total", Help: "Code checks rejected for a wrong code."},
	{ID: goVerify.MetricCheckExpired, Name: "goverify_check_expired_total", Help: "Code checks rejected for an expired code."},
	{ID: goVerify.MetricCheckExhausted, Name: "goverify_check_exhausted_total", Help: "Code checks rejected for exhausted attempts."},
	{ID: goVerify.MetricCheckFailure, Name: "goverify_check_failure_total", Help: "Code checks that failed for other reasons."},
	{ID: goVerify.MetricCheckConflict, Name: "goverify_check_conflict_total", Help: "Code checks that hit transactional contention."},
	{ID: goVerify.MetricConsumeSuccess, Name: "goverify_consume_success_total", Help: "Successful verification consumptions."},
	{ID: goVerify.MetricConsumeFailure, Name: "goverify_consume_failure_total", Help: "Failed verification consumptions."},
	{ID: goVerify.MetricDestinationLookup, Name: "goverify_destination_lookup_total", Help: "Destination verification state lookups."},
}

// HistogramDefs is an exported constant or variable used by the verification engine.
var HistogramDefs = []HistogramDef{
	{ID: goVerify.MetricCheckLatency, Name: "goverify_check_latency_seconds", Help: "Check latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the verification engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the verification engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
