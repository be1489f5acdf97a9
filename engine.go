package roleverify

import (
	"context"
	"time"

	"github.com/MrEthical07/roleverify/internal/rate"
	"go.uber.org/zap"
)

// Engine runs the instant and challenge verification flows. It is safe for
// concurrent use after Builder.Build.
type Engine struct {
	config   Config
	sessions SessionStore
	roles    RoleGranter
	codes    CodeDeliverer
	limiter  *rate.Limiter
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *zap.Logger
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// ActiveChallenges returns the number of stored challenges when the store
// can count them, or zero.
func (e *Engine) ActiveChallenges() int {
	if e == nil || e.sessions == nil {
		return 0
	}
	if counter, ok := e.sessions.(interface{ Len() int }); ok {
		return counter.Len()
	}
	return 0
}

// ChallengeTimeout returns how long a code stays valid and how long
// RunChallenge waits for a reply.
func (e *Engine) ChallengeTimeout() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.Challenge.Timeout
}

// PendingChallenge reports whether userID has a live challenge and when it expires.
func (e *Engine) PendingChallenge(userID string) (time.Time, bool) {
	if e == nil || e.sessions == nil {
		return time.Time{}, false
	}
	sess, ok := e.sessions.Lookup(userID)
	if !ok {
		return time.Time{}, false
	}
	return sess.ExpiresAt, true
}

// Run sweeps expired challenges every Challenge.SweepInterval until ctx is
// done. Stores without a sweeper make Run wait for ctx.
func (e *Engine) Run(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	sweeper, ok := e.sessions.(interface {
		Run(ctx context.Context, interval time.Duration) error
	})
	if !ok || e.config.Challenge.SweepInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	return sweeper.Run(ctx, e.config.Challenge.SweepInterval)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) ready() bool {
	return e != nil && e.sessions != nil && e.roles != nil && e.codes != nil
}
