package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/roleverify/internal"
	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"
)

const (
	// DefaultTTL is how long a challenge stays answerable.
	DefaultTTL = 60 * time.Second
	// DefaultShards is the shard count used when Config.Shards is zero.
	DefaultShards = 32
)

var (
	// ErrInvalidTTL is returned by NewStore for a non-positive TTL.
	ErrInvalidTTL = errors.New("session ttl must be > 0")
	// ErrInvalidShards is returned by NewStore for a negative shard count.
	ErrInvalidShards = errors.New("session shards must be >= 0")
	// ErrAmbiguousAlphabet is returned when two alphabet symbols differ only by case.
	ErrAmbiguousAlphabet = errors.New("session alphabet has case-insensitive duplicates")
)

// Config holds the code shape and lifetime for a Store.
type Config struct {
	CodeLength int
	Alphabet   string
	TTL        time.Duration
	Shards     int
}

// DefaultConfig returns 5-character A-Z0-9 codes valid for 60 seconds.
func DefaultConfig() Config {
	return Config{
		CodeLength: internal.DefaultCodeLength,
		Alphabet:   internal.DefaultCodeAlphabet,
		TTL:        DefaultTTL,
		Shards:     DefaultShards,
	}
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now. Tests use it to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// Store is the authoritative registry of pending challenges.
type Store struct {
	shards []*shard
	codes  *internal.CodeGenerator
	ttl    time.Duration
	now    func() time.Time
}

// NewStore validates cfg and returns an empty Store.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Shards < 0 {
		return nil, ErrInvalidShards
	}
	if cfg.Shards == 0 {
		cfg.Shards = DefaultShards
	}
	if folded := strings.ToUpper(cfg.Alphabet); len(folded) == len(cfg.Alphabet) {
		seen := make(map[byte]struct{}, len(folded))
		for i := 0; i < len(folded); i++ {
			if _, dup := seen[folded[i]]; dup {
				return nil, ErrAmbiguousAlphabet
			}
			seen[folded[i]] = struct{}{}
		}
	}

	codes, err := internal.NewCodeGenerator(cfg.CodeLength, cfg.Alphabet)
	if err != nil {
		return nil, err
	}

	s := &Store{
		shards: make([]*shard, cfg.Shards),
		codes:  codes,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]Session)}
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// TTL returns the lifetime given to new sessions.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) shardFor(userID string) *shard {
	return s.shards[murmur3.Sum32([]byte(userID))%uint32(len(s.shards))]
}

// Start creates or replaces the pending challenge for userID and returns its code.
func (s *Store) Start(userID string) string {
	return s.Issue(userID).Code
}

// Issue is Start returning the whole session, including the id needed by Revoke.
func (s *Store) Issue(userID string) Session {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Code:      s.codes.Next(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	sh := s.shardFor(userID)
	sh.mu.Lock()
	sh.sessions[userID] = sess
	sh.mu.Unlock()

	return sess
}

// Validate consumes the pending challenge for userID and compares candidate
// to its code, ignoring case and surrounding whitespace.
func (s *Store) Validate(userID, candidate string) Result {
	return s.validate(userID, "", candidate)
}

// ValidateSession is Validate bound to one issued session. When the pending
// challenge is no longer sessionID it is left in place and NoSession is
// returned.
func (s *Store) ValidateSession(userID, sessionID, candidate string) Result {
	if sessionID == "" {
		return NoSession
	}
	return s.validate(userID, sessionID, candidate)
}

func (s *Store) validate(userID, sessionID, candidate string) Result {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	sess, ok := sh.sessions[userID]
	if ok && sessionID != "" && sess.ID != sessionID {
		sh.mu.Unlock()
		return NoSession
	}
	if ok {
		delete(sh.sessions, userID)
	}
	sh.mu.Unlock()

	if !ok || sess.Expired(s.now()) {
		return NoSession
	}

	want := []byte(strings.ToUpper(sess.Code))
	got := []byte(strings.ToUpper(strings.TrimSpace(candidate)))
	if subtle.ConstantTimeCompare(want, got) == 1 {
		return Match
	}
	return Mismatch
}

// Cancel removes any pending challenge for userID.
func (s *Store) Cancel(userID string) {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	delete(sh.sessions, userID)
	sh.mu.Unlock()
}

// Revoke removes the pending challenge only if it is still the one with
// sessionID. It reports whether a session was removed.
func (s *Store) Revoke(userID, sessionID string) bool {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[userID]
	if !ok || sess.ID != sessionID {
		return false
	}
	delete(sh.sessions, userID)
	return true
}

// Lookup returns the pending, unexpired challenge for userID without consuming it.
func (s *Store) Lookup(userID string) (Session, bool) {
	now := s.now()
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if sess.Expired(now) {
		delete(sh.sessions, userID)
		return Session{}, false
	}
	return sess, true
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += len(sh.sessions)
		sh.mu.Unlock()
	}
	return total
}

// Sweep deletes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for userID, sess := range sh.sessions {
			if sess.Expired(now) {
				delete(sh.sessions, userID)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}
