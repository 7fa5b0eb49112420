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

var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Logins that issued a token."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Logins rejected for any reason."},
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions inserted into the store."},
	{ID: goSession.MetricSessionCreationFailed, Name: "gosession_session_creation_failed_total", Help: "Session id generation or insert failures."},
	{ID: goSession.MetricSessionIDCollision, Name: "gosession_session_id_collision_total", Help: "Generated session ids that were already in use."},
	{ID: goSession.MetricCurrentUserSuccess, Name: "gosession_current_user_success_total", Help: "Tokens resolved to a principal."},
	{ID: goSession.MetricCurrentUserFailure, Name: "gosession_current_user_failure_total", Help: "Tokens that did not resolve to a principal."},
	{ID: goSession.MetricTokenInvalid, Name: "gosession_token_invalid_total", Help: "Structurally invalid tokens."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Sessions ended by logout."},
	{ID: goSession.MetricLogoutFailure, Name: "gosession_logout_failure_total", Help: "Rejected logouts."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricLoginLatency, Name: "gosession_login_latency_seconds", Help: "Login latency histogram."},
	{ID: goSession.MetricCurrentUserLatency, Name: "gosession_current_user_latency_seconds", Help: "Current-user resolution latency histogram."},
}

// AuditDroppedName and AuditDroppedHelp describe the dispatcher drop counter.
const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

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

// NormalizeBuckets copies raw into a fixed array, zero filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
