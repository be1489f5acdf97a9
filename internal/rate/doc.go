// Package rate provides the Redis-backed throttle on challenge starts.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefix:
//   - rvcs: challenge starts per user
//
// # What this package must NOT do
//
//   - Decide what happens when Redis is down (the engine owns that policy).
//   - Be imported outside the roleverify module.
package rate
