package roleverify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/roleverify/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type grantCall struct {
	UserID  string
	RoleID  string
	GuildID string
}

type fakePlatform struct {
	mu         sync.Mutex
	grants     []grantCall
	delivered  map[string]string
	grantErr   error
	deliverErr error
	onDeliver  func(userID, code string)
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{delivered: make(map[string]string)}
}

func (p *fakePlatform) RequestRoleGrant(ctx context.Context, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grantErr != nil {
		return p.grantErr
	}
	p.grants = append(p.grants, grantCall{UserID: userID, RoleID: roleID, GuildID: GuildIDFromContext(ctx)})
	return nil
}

func (p *fakePlatform) DeliverPrivateCode(_ context.Context, userID, code string) error {
	p.mu.Lock()
	if p.deliverErr != nil {
		err := p.deliverErr
		p.mu.Unlock()
		return err
	}
	p.delivered[userID] = code
	hook := p.onDeliver
	p.mu.Unlock()

	if hook != nil {
		hook(userID, code)
	}
	return nil
}

func (p *fakePlatform) grantCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.grants)
}

func (p *fakePlatform) grantsFor(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, g := range p.grants {
		if g.UserID == userID {
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)}
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

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, platform *fakePlatform) *Engine {
	t.Helper()
	engine, err := New().
		WithConfig(cfg).
		WithPlatform(platform).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newClockedEngine(t *testing.T, platform *fakePlatform) (*Engine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	cfg := testConfig()
	store, err := session.NewStore(cfg.Challenge.sessionConfig(), session.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	engine, err := New().
		WithConfig(cfg).
		WithPlatform(platform).
		WithSessionStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clock
}
