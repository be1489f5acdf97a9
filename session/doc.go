// Package session provides the in-memory registry of pending verification
// challenges, keyed by user id.
//
// # Semantics
//
// A user has at most one pending challenge. [Store.Start] and [Store.Issue]
// overwrite any earlier challenge, which invalidates its code immediately.
// [Store.Validate] is one-shot: the challenge is removed on the first attempt
// whether the candidate matches or not. Expiry is lazy; [Store.Sweep] and
// [Store.Run] only reclaim memory and are not needed for correctness.
//
// # Concurrency
//
// Sessions are spread over mutex-guarded shards chosen by a murmur3 hash of
// the user id. Operations on one user are atomic; operations on users in
// different shards never contend.
//
// # What this package must NOT do
//
//   - Import roleverify (no upward imports).
//   - Persist sessions or coordinate with other processes.
//   - Grant roles or talk to the chat platform.
package session
