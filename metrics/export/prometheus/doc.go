// Package prometheus renders roleverify engine metrics in Prometheus text
// exposition format.
//
// Counter names are prefixed roleverify_*_total; the single histogram is
// roleverify_reply_latency_seconds and roleverify_active_challenges is a gauge.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
