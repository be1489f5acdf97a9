package roleverify

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func BenchmarkMetricsInc(b *testing.B) {
	for _, enabled := range []bool{true, false} {
		b.Run("enabled="+strconv.FormatBool(enabled), func(b *testing.B) {
			m := NewMetrics(MetricsConfig{Enabled: enabled})
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					m.Inc(MetricChallengeStarted)
				}
			})
		})
	}
}

func BenchmarkMetricsObserveReplyLatency(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	latencies := [...]time.Duration{800 * time.Millisecond, 3 * time.Second, 12 * time.Second, 50 * time.Second}
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			m.Observe(MetricReplyLatency, latencies[i&3])
			i++
		}
	})
}

func BenchmarkMetricsSnapshot(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	for id := MetricID(0); id < MetricReplyLatency; id++ {
		m.Inc(id)
	}
	m.Observe(MetricReplyLatency, 4*time.Second)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = m.Snapshot()
	}
}

func benchEngine(b *testing.B) *Engine {
	b.Helper()
	engine, err := New().
		WithConfig(testConfig()).
		WithPlatform(newFakePlatform()).
		Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	b.Cleanup(engine.Close)
	return engine
}

func BenchmarkAcknowledgeParallel(b *testing.B) {
	engine := benchEngine(b)
	ctx := context.Background()
	var next atomic.Uint64
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			n := next.Add(1)
			_, _ = engine.Acknowledge(ctx, "u"+strconv.FormatUint(n%1024, 10), testRole, n%2 == 0)
		}
	})
}

func BenchmarkChallengeRoundTripParallel(b *testing.B) {
	engine := benchEngine(b)
	ctx := context.Background()
	var next atomic.Uint64
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			userID := "u" + strconv.FormatUint(next.Add(1), 10)
			code, err := engine.BeginChallenge(ctx, userID)
			if err != nil {
				b.Error(err)
				return
			}
			if d, _ := engine.SubmitReply(ctx, userID, testRole, code); d.Reason != OutcomeGranted {
				b.Errorf("expected Granted, got %s", d.Reason)
				return
			}
		}
	})
}
