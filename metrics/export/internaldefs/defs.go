package internaldefs

import (
	roleverify "github.com/MrEthical07/roleverify"
)

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   roleverify.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
type HistogramDef struct {
	ID   roleverify.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: roleverify.MetricInstantGranted, Name: "roleverify_instant_granted_total", Help: "Roles granted from instant panels."},
	{ID: roleverify.MetricInstantAlreadyVerified, Name: "roleverify_instant_already_verified_total", Help: "Instant acknowledgements from members who already held the role."},
	{ID: roleverify.MetricChallengeStarted, Name: "roleverify_challenge_started_total", Help: "Issued challenge codes."},
	{ID: roleverify.MetricChallengeReplaced, Name: "roleverify_challenge_replaced_total", Help: "Challenge starts that replaced a pending code."},
	{ID: roleverify.MetricChallengeGranted, Name: "roleverify_challenge_granted_total", Help: "Roles granted after a matching reply."},
	{ID: roleverify.MetricChallengeInvalidCode, Name: "roleverify_challenge_invalid_code_total", Help: "Replies that did not match the issued code."},
	{ID: roleverify.MetricChallengeExpired, Name: "roleverify_challenge_expired_total", Help: "Replies with no live challenge."},
	{ID: roleverify.MetricChallengeTimedOut, Name: "roleverify_challenge_timed_out_total", Help: "Challenge waits that ended without a reply."},
	{ID: roleverify.MetricCodeDeliveryFailed, Name: "roleverify_code_delivery_failed_total", Help: "Challenge codes the platform could not deliver."},
	{ID: roleverify.MetricRoleGrantFailed, Name: "roleverify_role_grant_failed_total", Help: "Role grants the platform rejected."},
	{ID: roleverify.MetricRateLimitHit, Name: "roleverify_rate_limit_hit_total", Help: "Challenge starts refused by the rate limiter."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: roleverify.MetricReplyLatency, Name: "roleverify_reply_latency_seconds", Help: "Time from code delivery to the user's reply."},
}

// ActiveChallengesName is the gauge of challenges currently stored.
const ActiveChallengesName = "roleverify_active_challenges"

// ActiveChallengesHelp describes ActiveChallengesName.
const ActiveChallengesHelp = "Challenges issued and not yet consumed, cancelled or swept."

// AuditDroppedName is the counter of audit events lost to backpressure.
const AuditDroppedName = "roleverify_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// HistogramBounds are the upper bounds, in seconds, of the engine buckets.
var HistogramBounds = []string{
	"1",
	"2",
	"5",
	"10",
	"20",
	"30",
	"45",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"1",
	"2",
	"5",
	"10",
	"20",
	"30",
	"45",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
