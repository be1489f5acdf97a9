// Package reply implements the bounded wait for a user's next private message.
//
// A [Mailbox] holds at most one waiter per user. [Mailbox.Wait] resolves to
// [Replied] with the first text handed to [Mailbox.Deliver] for that user, or
// to [TimedOut] when the timeout elapses first. Later texts are refused. A
// second Wait for the same user supersedes the first, which returns
// [ErrSuperseded].
//
// # What this package must NOT do
//
//   - Interpret reply text or touch challenge sessions.
//   - Queue replies for users nobody is waiting on.
package reply
