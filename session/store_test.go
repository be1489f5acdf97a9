package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store, err := NewStore(DefaultConfig(), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, clock
}

func TestStartReturnsCodeOfConfiguredShape(t *testing.T) {
	store, _ := newTestStore(t)

	code := store.Start("u1")
	if len(code) != 5 {
		t.Fatalf("expected 5-character code, got %q", code)
	}
	if strings.ToUpper(code) != code {
		t.Fatalf("expected uppercase code, got %q", code)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
}

func TestValidateMatchIgnoresCaseAndWhitespace(t *testing.T) {
	store, _ := newTestStore(t)

	candidates := []func(string) string{
		func(c string) string { return c },
		strings.ToLower,
		func(c string) string { return "  " + c + "\n" },
		func(c string) string { return "\t" + strings.ToLower(c) + " " },
	}

	for i, transform := range candidates {
		userID := fmt.Sprintf("u-%d", i)
		code := store.Start(userID)
		if got := store.Validate(userID, transform(code)); got != Match {
			t.Fatalf("candidate %d: expected match, got %s", i, got)
		}
	}
}

func TestValidateIsOneShot(t *testing.T) {
	store, _ := newTestStore(t)

	code := store.Start("u1")
	if got := store.Validate("u1", "WRONG"); got != Mismatch {
		t.Fatalf("expected mismatch, got %s", got)
	}
	if got := store.Validate("u1", code); got != NoSession {
		t.Fatalf("expected consumed session, got %s", got)
	}

	code = store.Start("u1")
	if got := store.Validate("u1", code); got != Match {
		t.Fatalf("expected match, got %s", got)
	}
	if got := store.Validate("u1", code); got != NoSession {
		t.Fatalf("expected success to consume session, got %s", got)
	}
}

func TestValidateWithoutStart(t *testing.T) {
	store, _ := newTestStore(t)

	if got := store.Validate("ghost", "ABCDE"); got != NoSession {
		t.Fatalf("expected no session, got %s", got)
	}
}

func TestStartReplacesPendingCode(t *testing.T) {
	store, _ := newTestStore(t)

	first := store.Start("u1")
	second := store.Start("u1")
	for first == second {
		second = store.Start("u1")
	}

	if store.Len() != 1 {
		t.Fatalf("expected replacement, got %d sessions", store.Len())
	}
	if got := store.Validate("u1", first); got != Mismatch {
		t.Fatalf("expected old code to be rejected, got %s", got)
	}

	second = store.Start("u1")
	if got := store.Validate("u1", second); got != Match {
		t.Fatalf("expected new code to match, got %s", got)
	}
}

func TestValidateAfterExpiry(t *testing.T) {
	store, clock := newTestStore(t)

	code := store.Start("u1")
	clock.Advance(DefaultTTL)
	if _, ok := store.Lookup("u1"); !ok {
		t.Fatal("expected session to be live exactly at the deadline")
	}

	clock.Advance(time.Millisecond)
	if got := store.Validate("u1", code); got != NoSession {
		t.Fatalf("expected expired session, got %s", got)
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired session to be deleted, got %d", store.Len())
	}
}

func TestCancelRemovesSessionAndIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)

	code := store.Start("u1")
	store.Cancel("u1")
	store.Cancel("u1")

	if got := store.Validate("u1", code); got != NoSession {
		t.Fatalf("expected cancelled session, got %s", got)
	}
}

func TestRevokeOnlyRemovesMatchingSession(t *testing.T) {
	store, _ := newTestStore(t)

	old := store.Issue("u1")
	current := store.Issue("u1")

	if store.Revoke("u1", old.ID) {
		t.Fatal("expected revoke of replaced session to be a no-op")
	}
	if _, ok := store.Lookup("u1"); !ok {
		t.Fatal("expected current session to survive stale revoke")
	}
	if !store.Revoke("u1", current.ID) {
		t.Fatal("expected revoke of current session to succeed")
	}
	if got := store.Validate("u1", current.Code); got != NoSession {
		t.Fatalf("expected revoked session, got %s", got)
	}
}

func TestValidateSessionIgnoresReplacedSession(t *testing.T) {
	store, _ := newTestStore(t)

	old := store.Issue("u1")
	current := store.Issue("u1")

	if got := store.ValidateSession("u1", old.ID, old.Code); got != NoSession {
		t.Fatalf("expected NoSession for replaced session, got %s", got)
	}
	if got := store.ValidateSession("u1", old.ID, current.Code); got != NoSession {
		t.Fatalf("expected NoSession for replaced session with current code, got %s", got)
	}
	if got := store.ValidateSession("u1", "", current.Code); got != NoSession {
		t.Fatalf("expected NoSession for empty session id, got %s", got)
	}
	if _, ok := store.Lookup("u1"); !ok {
		t.Fatal("expected current session to survive stale validation")
	}
	if got := store.ValidateSession("u1", current.ID, " "+strings.ToLower(current.Code)); got != Match {
		t.Fatalf("expected match for current session, got %s", got)
	}
	if got := store.ValidateSession("u1", current.ID, current.Code); got != NoSession {
		t.Fatalf("expected consumed session, got %s", got)
	}
}

func TestValidateSessionMismatchConsumes(t *testing.T) {
	store, _ := newTestStore(t)

	issued := store.Issue("u1")
	if got := store.ValidateSession("u1", issued.ID, "WRONG"); got != Mismatch {
		t.Fatalf("expected Mismatch, got %s", got)
	}
	if got := store.Validate("u1", issued.Code); got != NoSession {
		t.Fatalf("expected mismatch to consume session, got %s", got)
	}
}

func TestLookupDoesNotConsume(t *testing.T) {
	store, _ := newTestStore(t)

	issued := store.Issue("u1")
	got, ok := store.Lookup("u1")
	if !ok {
		t.Fatal("expected pending session")
	}
	if got.ID != issued.ID || got.Code != issued.Code {
		t.Fatalf("expected lookup to return issued session, got %+v", got)
	}
	if !got.ExpiresAt.Equal(issued.CreatedAt.Add(DefaultTTL)) {
		t.Fatalf("unexpected expiry %s", got.ExpiresAt)
	}
	if res := store.Validate("u1", issued.Code); res != Match {
		t.Fatalf("expected match after lookup, got %s", res)
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	store, clock := newTestStore(t)

	store.Start("old-1")
	store.Start("old-2")
	clock.Advance(DefaultTTL / 2)
	store.Start("fresh")
	clock.Advance(DefaultTTL/2 + time.Second)

	if removed := store.Sweep(); removed != 2 {
		t.Fatalf("expected 2 expired sessions removed, got %d", removed)
	}
	if _, ok := store.Lookup("fresh"); !ok {
		t.Fatal("expected fresh session to survive sweep")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- store.Run(ctx, 5*time.Millisecond)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected Run to return after cancel")
	}
}

func TestNewStoreRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "zero ttl", cfg: Config{CodeLength: 5, Alphabet: "ABC", TTL: 0}},
		{name: "negative shards", cfg: Config{CodeLength: 5, Alphabet: "ABC", TTL: time.Second, Shards: -1}},
		{name: "case duplicate", cfg: Config{CodeLength: 5, Alphabet: "ABa", TTL: time.Second}},
		{name: "zero length", cfg: Config{CodeLength: 0, Alphabet: "ABC", TTL: time.Second}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewStore(tc.cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConcurrentUsersAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)

	const users = 256
	var (
		wg      sync.WaitGroup
		matches atomic.Int64
	)
	wg.Add(users)
	for i := 0; i < users; i++ {
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			code := store.Start(userID)
			if store.Validate(userID, code) == Match {
				matches.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if got := matches.Load(); got != users {
		t.Fatalf("expected %d matches, got %d", users, got)
	}
	if store.Len() != 0 {
		t.Fatalf("expected all sessions consumed, got %d", store.Len())
	}
}

func TestCrossUserCodeNeverMatches(t *testing.T) {
	store, _ := newTestStore(t)

	for i := 0; i < 200; i++ {
		a := store.Start("alice")
		b := store.Start("bob")
		if a == b {
			store.Cancel("alice")
			store.Cancel("bob")
			continue
		}
		if got := store.Validate("alice", b); got != Mismatch {
			t.Fatalf("expected bob's code to be rejected for alice, got %s", got)
		}
		if got := store.Validate("bob", b); got != Match {
			t.Fatalf("expected bob's own code to match, got %s", got)
		}
	}
}

func TestSameUserRaceObservesConsistentSession(t *testing.T) {
	store, _ := newTestStore(t)

	const rounds = 500
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			store.Start("u1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if sess, ok := store.Lookup("u1"); ok {
				if store.Validate("u1", sess.Code) == NoSession {
					continue
				}
			}
		}
	}()
	wg.Wait()

	if store.Len() > 1 {
		t.Fatalf("expected at most one session for u1, got %d", store.Len())
	}
}

func BenchmarkStartValidate(b *testing.B) {
	store, err := NewStore(DefaultConfig())
	if err != nil {
		b.Fatalf("NewStore failed: %v", err)
	}

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			userID := fmt.Sprintf("bench-%d", i%1024)
			code := store.Start(userID)
			_ = store.Validate(userID, code)
			i++
		}
	})
}
