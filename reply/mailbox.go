package reply

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned by Wait when a newer Wait for the same user replaced it.
var ErrSuperseded = errors.New("reply wait superseded")

// Kind tells whether a wait produced text.
type Kind uint8

const (
	KindTimedOut Kind = iota
	KindReplied
)

func (k Kind) String() string {
	if k == KindReplied {
		return "replied"
	}
	return "timed_out"
}

// Result is the outcome of a wait: Replied(text) or TimedOut.
type Result struct {
	Kind Kind
	Text string
}

// Replied builds a Result carrying text.
func Replied(text string) Result {
	return Result{Kind: KindReplied, Text: text}
}

// TimedOut builds a Result for an elapsed wait.
func TimedOut() Result {
	return Result{Kind: KindTimedOut}
}

// IsReplied reports whether r carries text.
func (r Result) IsReplied() bool {
	return r.Kind == KindReplied
}

type waiter struct {
	ch         chan string
	superseded chan struct{}
}

// Mailbox routes private messages to the goroutine waiting on that user.
type Mailbox struct {
	mu      sync.Mutex
	waiters map[string]*waiter
}

// NewMailbox returns an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{waiters: make(map[string]*waiter)}
}

// Wait blocks until a reply for userID is delivered, timeout elapses, a newer
// Wait for the same user starts, or ctx is done.
func (m *Mailbox) Wait(ctx context.Context, userID string, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		return TimedOut(), nil
	}

	w := &waiter{
		ch:         make(chan string, 1),
		superseded: make(chan struct{}),
	}

	m.mu.Lock()
	if prev, ok := m.waiters[userID]; ok {
		close(prev.superseded)
	}
	m.waiters[userID] = w
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case text := <-w.ch:
		return Replied(text), nil
	case <-timer.C:
		m.release(userID, w)
		// Deliver sends under the lock, so anything accepted before release is visible here.
		select {
		case text := <-w.ch:
			return Replied(text), nil
		default:
			return TimedOut(), nil
		}
	case <-w.superseded:
		return Result{}, ErrSuperseded
	case <-ctx.Done():
		m.release(userID, w)
		return Result{}, ctx.Err()
	}
}

// Deliver hands text to the pending wait for userID. It returns false when
// nobody is waiting, including when an earlier reply already won.
func (m *Mailbox) Deliver(userID, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.waiters[userID]
	if !ok {
		return false
	}
	delete(m.waiters, userID)
	w.ch <- text
	return true
}

// Pending reports whether a wait is registered for userID.
func (m *Mailbox) Pending(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.waiters[userID]
	return ok
}

// Len returns the number of registered waits.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

func (m *Mailbox) release(userID string, w *waiter) {
	m.mu.Lock()
	if m.waiters[userID] == w {
		delete(m.waiters, userID)
	}
	m.mu.Unlock()
}
