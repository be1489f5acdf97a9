package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	roleverify "github.com/MrEthical07/roleverify"
	"github.com/MrEthical07/roleverify/reply"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// countingPlatform grants everything. With a mailbox set it also plays the
// user, echoing each delivered code back as the reply.
type countingPlatform struct {
	grants    atomic.Int64
	delivered atomic.Int64
	mailbox   *reply.Mailbox
}

func (p *countingPlatform) RequestRoleGrant(context.Context, string, string) error {
	p.grants.Add(1)
	return nil
}

func (p *countingPlatform) DeliverPrivateCode(_ context.Context, userID, code string) error {
	p.delivered.Add(1)
	if p.mailbox != nil {
		go p.echo(userID, code)
	}
	return nil
}

func (p *countingPlatform) echo(userID, code string) {
	deadline := time.Now().Add(5 * time.Second)
	for !p.mailbox.Deliver(userID, code) && time.Now().Before(deadline) {
		time.Sleep(100 * time.Microsecond)
	}
}

func main() {
	var (
		users       = flag.Int("users", 10000, "number of distinct users")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (acknowledge + challenge)")
		roundtrips  = flag.Int("roundtrips", 10000, "full challenges answered through the reply mailbox")
		rateLimit   = flag.Bool("rate-limit", false, "enable the redis challenge limiter")
		withAudit   = flag.Bool("audit", false, "record audit events and report counts per type")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 || *roundtrips < 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0; roundtrips must be >= 0")
		os.Exit(2)
	}

	ctx := roleverify.WithGuildID(context.Background(), "loadtest")

	cfg := roleverify.DefaultConfig()
	cfg.Challenge.SweepInterval = 0

	mailbox := reply.NewMailbox()
	platform := &countingPlatform{mailbox: mailbox}

	var tally *auditTally
	if *withAudit {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 4096
		cfg.Audit.DropIfFull = true
		tally = newAuditTally(4096)
	}

	var redisClient redis.UniversalClient
	if *rateLimit {
		client, cleanup, err := openRedis(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.MaxStarts = *ops
		cfg.RateLimit.Prefix = "rv-load"
		redisClient = client
	}

	builder := roleverify.New().
		WithConfig(cfg).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		WithPlatform(platform)
	if redisClient != nil {
		builder = builder.WithRedis(redisClient)
	}
	if tally != nil {
		builder = builder.WithAuditSink(tally.sink)
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ackStats := runPhase(*ops, *concurrency, func(i int) error {
		_, err := engine.Acknowledge(ctx, userID(i, *users), "role", i%4 == 0)
		return err
	})
	challengeStats := runPhase(*ops, *concurrency, func(i int) error {
		user := userID(i, *users)
		code, err := engine.BeginChallenge(ctx, user)
		if err != nil {
			return err
		}
		decision, err := engine.SubmitReply(ctx, user, "role", code)
		if err != nil {
			return err
		}
		// another worker may have replaced this user's code
		if decision.Reason != roleverify.OutcomeGranted && decision.Reason != roleverify.OutcomeInvalidCode &&
			decision.Reason != roleverify.OutcomeExpiredOrNotStarted {
			return fmt.Errorf("unexpected outcome %s", decision.Reason)
		}
		return nil
	})

	roundtripStats := phaseStats{}
	if *roundtrips > 0 {
		roundtripStats = runPhase(*roundtrips, *concurrency, func(i int) error {
			decision, err := engine.RunChallenge(ctx, fmt.Sprintf("rt-%d", i), "role", mailbox)
			if err != nil {
				return err
			}
			if decision.Reason != roleverify.OutcomeGranted {
				return fmt.Errorf("unexpected outcome %s", decision.Reason)
			}
			return nil
		})
	}
	engine.Close()

	fmt.Println("---- results ----")
	printStats("acknowledge", ackStats)
	printStats("challenge", challengeStats)
	printStats("roundtrip", roundtripStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("grants=%d granted=%d invalid=%d replaced=%d active=%d\n",
		platform.grants.Load(),
		snap.Counters[roleverify.MetricChallengeGranted],
		snap.Counters[roleverify.MetricChallengeInvalidCode],
		snap.Counters[roleverify.MetricChallengeReplaced],
		engine.ActiveChallenges(),
	)
	fmt.Printf("reply_latency buckets=%v\n", snap.Histograms[roleverify.MetricReplyLatency])
	if tally != nil {
		tally.print()
	}
}

// auditTally drains a ChannelSink and counts events by type.
type auditTally struct {
	sink   *roleverify.ChannelSink
	mu     sync.Mutex
	counts map[string]int
	done   chan struct{}
	stop   chan struct{}
}

func newAuditTally(buffer int) *auditTally {
	t := &auditTally{
		sink:   roleverify.NewChannelSink(buffer),
		counts: make(map[string]int),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *auditTally) run() {
	defer close(t.done)
	for {
		select {
		case ev := <-t.sink.Events():
			t.mu.Lock()
			t.counts[ev.EventType]++
			t.mu.Unlock()
		case <-t.stop:
			return
		}
	}
}

// print stops the tally once the sink channel is empty and prints counts.
func (t *auditTally) print() {
	for len(t.sink.Events()) > 0 {
		time.Sleep(time.Millisecond)
	}
	close(t.stop)
	<-t.done

	types := make([]string, 0, len(t.counts))
	for k := range t.counts {
		types = append(types, k)
	}
	sort.Strings(types)
	for _, k := range types {
		fmt.Printf("audit %s: %d\n", k, t.counts[k])
	}
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func userID(i, users int) string {
	return fmt.Sprintf("user-%d", i%users)
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		g         errgroup.Group
		cursor    atomic.Int64
		failures  atomic.Int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			local := make([]time.Duration, 0, ops/concurrency+1)
			for {
				i := int(cursor.Add(1)) - 1
				if i >= ops {
					break
				}
				t0 := time.Now()
				if err := op(i); err != nil {
					failures.Add(1)
				}
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return computeStats(time.Since(start), latencies, failures.Load())
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
