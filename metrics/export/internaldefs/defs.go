package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is rendered from the engine's dispatcher count rather
// than from a snapshot counter.
const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful login attempts."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed login attempts."},
	{ID: goSession.MetricLoginRateLimited, Name: "gosession_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Created sessions."},
	{ID: goSession.MetricSessionCreationFailed, Name: "gosession_session_creation_failed_total", Help: "Sessions that could not be persisted."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Single-session logout operations."},
	{ID: goSession.MetricSessionRemoved, Name: "gosession_session_removed_total", Help: "Sessions removed by their owner from another session."},
	{ID: goSession.MetricSessionRemoveConflict, Name: "gosession_session_remove_conflict_total", Help: "Attempts to remove the calling session by id."},
	{ID: goSession.MetricOtherSessionsRevoked, Name: "gosession_other_sessions_revoked_total", Help: "Remove-other-sessions operations."},
	{ID: goSession.MetricAuthorizeSuccess, Name: "gosession_authorize_success_total", Help: "Requests authorized by a live session."},
	{ID: goSession.MetricAuthorizeFailure, Name: "gosession_authorize_failure_total", Help: "Requests rejected by the guard."},
	{ID: goSession.MetricAccountCreationSuccess, Name: "gosession_account_creation_success_total", Help: "Successful account creations."},
	{ID: goSession.MetricAccountCreationDuplicate, Name: "gosession_account_creation_duplicate_total", Help: "Account creation attempts rejected as duplicate."},
	{ID: goSession.MetricAccountCreationRateLimited, Name: "gosession_account_creation_rate_limited_total", Help: "Rate-limited account creation attempts."},
	{ID: goSession.MetricAccountCreationInvalid, Name: "gosession_account_creation_invalid_total", Help: "Account creation attempts with invalid input."},
}

// HistogramDefs lists the latency histograms.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricLoginLatency, Name: "gosession_login_latency_seconds", Help: "Login latency histogram."},
	{ID: goSession.MetricAuthorizeLatency, Name: "gosession_authorize_latency_seconds", Help: "Authorize latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's
// histogram buckets.
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

// HistogramBoundSuffix is HistogramBounds spelled for instrument names.
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

// NormalizeBuckets copies raw into a fixed array, zero-filling when a
// histogram is absent from the snapshot.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
