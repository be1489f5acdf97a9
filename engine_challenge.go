package roleverify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/roleverify/internal/rate"
	"github.com/MrEthical07/roleverify/reply"
	"github.com/MrEthical07/roleverify/session"
	"go.uber.org/zap"
)

// BeginChallenge issues a fresh code for userID, replacing any pending one.
// The caller delivers the code. With rate limiting enabled it may return
// ErrChallengeRateLimited; a limiter backend failure is logged and the start
// is allowed.
func (e *Engine) BeginChallenge(ctx context.Context, userID string) (string, error) {
	sess, err := e.beginChallenge(ctx, userID)
	if err != nil {
		return "", err
	}
	return sess.Code, nil
}

// SubmitReply consumes the pending challenge for userID and grants roleID on
// a match. Every call yields exactly one of OutcomeGranted,
// OutcomeInvalidCode or OutcomeExpiredOrNotStarted, except a failed grant,
// which yields OutcomePlatformUnavailable and an error.
func (e *Engine) SubmitReply(ctx context.Context, userID, roleID, text string) (GrantDecision, error) {
	if !e.ready() {
		return GrantDecision{}, ErrEngineNotReady
	}
	if userID == "" {
		return GrantDecision{}, ErrEmptyUserID
	}
	if roleID == "" {
		return GrantDecision{}, ErrInvalidPanel
	}

	return e.settle(ctx, userID, roleID, "", e.sessions.Validate(userID, text))
}

func (e *Engine) settle(ctx context.Context, userID, roleID, sessionID string, result session.Result) (GrantDecision, error) {
	switch result {
	case session.Match:
		if err := e.grant(ctx, userID, roleID); err != nil {
			e.emitAudit(ctx, auditEventChallengeGrantFailed, false, userID, roleID, sessionID, err, nil)
			return decide(OutcomePlatformUnavailable), err
		}
		e.metricInc(MetricChallengeGranted)
		e.emitAudit(ctx, auditEventChallengeGranted, true, userID, roleID, sessionID, nil, nil)
		return decide(OutcomeGranted), nil

	case session.Mismatch:
		e.metricInc(MetricChallengeInvalidCode)
		e.emitAudit(ctx, auditEventChallengeInvalidCode, false, userID, roleID, sessionID, errAuditInvalidCode, nil)
		return decide(OutcomeInvalidCode), nil

	default:
		e.recordExpired(ctx, userID, roleID, sessionID)
		return decide(OutcomeExpiredOrNotStarted), nil
	}
}

// CancelOnTimeout drops any pending challenge for userID so a late reply can
// never match.
func (e *Engine) CancelOnTimeout(ctx context.Context, userID string) {
	if !e.ready() || userID == "" {
		return
	}
	e.sessions.Cancel(userID)
	e.recordTimeout(ctx, userID, "", "")
}

// AwaitReply waits on waiter for the user's reply to an already issued
// challenge, bounded by the challenge's remaining lifetime, then submits it.
// Without a pending challenge it returns OutcomeExpiredOrNotStarted at once.
func (e *Engine) AwaitReply(ctx context.Context, userID, roleID string, waiter ReplyWaiter) (GrantDecision, error) {
	if !e.ready() || waiter == nil {
		return GrantDecision{}, ErrEngineNotReady
	}
	if userID == "" {
		return GrantDecision{}, ErrEmptyUserID
	}
	if roleID == "" {
		return GrantDecision{}, ErrInvalidPanel
	}

	sess, ok := e.sessions.Lookup(userID)
	if !ok {
		e.recordExpired(ctx, userID, roleID, "")
		return decide(OutcomeExpiredOrNotStarted), nil
	}

	return e.awaitSession(ctx, sess, roleID, waiter, time.Until(sess.ExpiresAt))
}

// RunChallenge is the whole challenge flow: issue a code, deliver it with the
// CodeDeliverer, wait for one reply, and submit it.
//
// A wait that ends without a reply revokes the challenge and returns
// OutcomeTimedOut; SubmitReply is not called. A wait replaced by a newer
// challenge for the same user returns OutcomeExpiredOrNotStarted with
// ErrChallengeSuperseded. A reply that arrives after the user started a newer
// challenge is checked against the challenge it was waiting for only, so it
// yields OutcomeExpiredOrNotStarted and leaves the newer one pending. A
// delivery failure revokes the challenge and returns
// OutcomePlatformUnavailable.
func (e *Engine) RunChallenge(ctx context.Context, userID, roleID string, waiter ReplyWaiter) (GrantDecision, error) {
	if !e.ready() || waiter == nil {
		return GrantDecision{}, ErrEngineNotReady
	}
	if roleID == "" {
		return GrantDecision{}, ErrInvalidPanel
	}

	sess, err := e.beginChallenge(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrChallengeRateLimited) {
			return decide(OutcomeRateLimited), err
		}
		return GrantDecision{}, err
	}

	if err := e.codes.DeliverPrivateCode(ctx, userID, sess.Code); err != nil {
		e.sessions.Revoke(userID, sess.ID)
		e.metricInc(MetricCodeDeliveryFailed)
		e.logger.Warn("challenge code delivery failed",
			zap.String("user_id", userID),
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		wrapped := fmt.Errorf("%w: %w: %v", ErrPlatformUnavailable, ErrCodeDeliveryFailed, err)
		e.emitAudit(ctx, auditEventChallengeDeliveryFailed, false, userID, roleID, sess.ID, wrapped, nil)
		return decide(OutcomePlatformUnavailable), wrapped
	}

	return e.awaitSession(ctx, sess, roleID, waiter, sess.ExpiresAt.Sub(sess.CreatedAt))
}

func (e *Engine) beginChallenge(ctx context.Context, userID string) (session.Session, error) {
	if !e.ready() {
		return session.Session{}, ErrEngineNotReady
	}
	if userID == "" {
		return session.Session{}, ErrEmptyUserID
	}

	if e.limiter != nil {
		if err := e.limiter.AllowStart(ctx, userID); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.emitRateLimit(ctx, "challenge_start", userID, nil)
				return session.Session{}, ErrChallengeRateLimited
			}
			e.logger.Warn("challenge limiter unavailable, allowing start",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	_, replaced := e.sessions.Lookup(userID)
	sess := e.sessions.Issue(userID)

	e.metricInc(MetricChallengeStarted)
	if replaced {
		e.metricInc(MetricChallengeReplaced)
	}
	e.emitAudit(ctx, auditEventChallengeStarted, true, userID, "", sess.ID, nil, func() map[string]string {
		return map[string]string{
			"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
			"replaced":   strconv.FormatBool(replaced),
		}
	})

	return sess, nil
}

func (e *Engine) awaitSession(
	ctx context.Context,
	sess session.Session,
	roleID string,
	waiter ReplyWaiter,
	window time.Duration,
) (GrantDecision, error) {
	if window <= 0 {
		e.sessions.Revoke(sess.UserID, sess.ID)
		e.recordTimeout(ctx, sess.UserID, roleID, sess.ID)
		return decide(OutcomeTimedOut), nil
	}

	started := time.Now()
	res, err := waiter.Wait(ctx, sess.UserID, window)
	if err != nil {
		if errors.Is(err, reply.ErrSuperseded) {
			e.recordExpired(ctx, sess.UserID, roleID, sess.ID)
			return decide(OutcomeExpiredOrNotStarted), ErrChallengeSuperseded
		}
		e.sessions.Revoke(sess.UserID, sess.ID)
		e.emitAudit(ctx, auditEventChallengeCancelled, false, sess.UserID, roleID, sess.ID, err, nil)
		return GrantDecision{}, err
	}

	if !res.IsReplied() {
		e.sessions.Revoke(sess.UserID, sess.ID)
		e.recordTimeout(ctx, sess.UserID, roleID, sess.ID)
		return decide(OutcomeTimedOut), nil
	}

	e.metricObserve(MetricReplyLatency, time.Since(started))
	return e.settle(ctx, sess.UserID, roleID, sess.ID, e.sessions.ValidateSession(sess.UserID, sess.ID, res.Text))
}

func (e *Engine) recordTimeout(ctx context.Context, userID, roleID, sessionID string) {
	e.metricInc(MetricChallengeTimedOut)
	e.emitAudit(ctx, auditEventChallengeTimedOut, false, userID, roleID, sessionID, errAuditTimedOut, nil)
}

func (e *Engine) recordExpired(ctx context.Context, userID, roleID, sessionID string) {
	e.metricInc(MetricChallengeExpired)
	e.emitAudit(ctx, auditEventChallengeExpired, false, userID, roleID, sessionID, errAuditExpired, nil)
}
