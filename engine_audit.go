package roleverify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventInstantGranted          = "instant_granted"
	auditEventInstantAlreadyVerified  = "instant_already_verified"
	auditEventInstantGrantFailed      = "instant_grant_failed"
	auditEventChallengeStarted        = "challenge_started"
	auditEventChallengeDeliveryFailed = "challenge_delivery_failed"
	auditEventChallengeGranted        = "challenge_granted"
	auditEventChallengeInvalidCode    = "challenge_invalid_code"
	auditEventChallengeExpired        = "challenge_expired"
	auditEventChallengeTimedOut       = "challenge_timed_out"
	auditEventChallengeCancelled      = "challenge_cancelled"
	auditEventChallengeGrantFailed    = "challenge_grant_failed"
	auditEventRateLimitTriggered      = "rate_limit_triggered"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCode      AuditErrorCode = "invalid_code"
	auditErrExpired          AuditErrorCode = "expired_or_not_started"
	auditErrTimedOut         AuditErrorCode = "timed_out"
	auditErrRateLimited      AuditErrorCode = "rate_limited"
	auditErrDeliveryFailed   AuditErrorCode = "delivery_failed"
	auditErrRoleGrantFailed  AuditErrorCode = "role_grant_failed"
	auditErrUnavailable      AuditErrorCode = "platform_unavailable"
	auditErrInvalidInput     AuditErrorCode = "invalid_input"
	auditErrContextCancelled AuditErrorCode = "cancelled"
	auditErrInternal         AuditErrorCode = "internal_error"
)

var (
	errAuditInvalidCode = errors.New("invalid code")
	errAuditExpired     = errors.New("expired or not started")
	errAuditTimedOut    = errors.New("timed out")
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	roleID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		GuildID:   GuildIDFromContext(ctx),
		ChannelID: ChannelIDFromContext(ctx),
		RoleID:    roleID,
		SessionID: sessionID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(
	ctx context.Context,
	scope string,
	userID string,
	metadataBuilder func() map[string]string,
) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, userID, "", "", ErrChallengeRateLimited, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, errAuditInvalidCode):
		return auditErrInvalidCode
	case errors.Is(err, errAuditExpired):
		return auditErrExpired
	case errors.Is(err, errAuditTimedOut):
		return auditErrTimedOut
	case errors.Is(err, ErrChallengeRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrCodeDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrRoleGrantFailed):
		return auditErrRoleGrantFailed
	case errors.Is(err, ErrPlatformUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrEmptyUserID),
		errors.Is(err, ErrInvalidPanel),
		errors.Is(err, ErrInvalidMethod):
		return auditErrInvalidInput
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrContextCancelled
	default:
		return auditErrInternal
	}
}
