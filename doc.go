// Package roleverify grants a community role to members who complete either an
// instant acknowledgement or a private, time-bounded challenge.
//
// The package is designed for concurrent chat-bot workloads: Engine methods are safe to
// call from many goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// roleverify is the public surface. It exposes [Engine], [Builder], [Config] and value
// types ([GrantDecision], [VerificationConfig], [MetricsSnapshot]). Challenge state lives
// in a [SessionStore] (by default [session.Store]); the engine holds no second copy.
// Chat platform work (role grants, private messages, waiting for replies) is injected
// through [RoleGranter], [CodeDeliverer] and [ReplyWaiter].
//
// There is no "verified" state inside the engine. The platform's role membership is the
// only record of who is verified, and callers pass it to [Engine.Acknowledge].
//
// # What this package must NOT do
//
//   - Talk to a chat platform directly (adapters live in sub-packages such as discord).
//   - Retry failed platform calls; failures surface as [OutcomePlatformUnavailable].
//   - Persist challenges or coordinate with other processes.
//   - Put challenge codes or reply text into audit events or logs.
//
// # Concurrency contract
//
// Operations on one user's challenge are atomic. A user's pending reply wait never
// blocks another user's BeginChallenge, SubmitReply or wait.
package roleverify
