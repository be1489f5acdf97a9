package roleverify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Acknowledge handles an instant-panel click. A member who already holds
// roleID gets OutcomeAlreadyVerified and no grant is requested; anyone else
// gets exactly one RequestRoleGrant call.
//
// Acknowledge returns OutcomePlatformUnavailable together with an error
// wrapping ErrPlatformUnavailable when the grant fails. It never retries.
func (e *Engine) Acknowledge(ctx context.Context, userID, roleID string, alreadyHasRole bool) (GrantDecision, error) {
	if !e.ready() {
		return GrantDecision{}, ErrEngineNotReady
	}
	if userID == "" {
		return GrantDecision{}, ErrEmptyUserID
	}
	if roleID == "" {
		return GrantDecision{}, ErrInvalidPanel
	}

	if alreadyHasRole {
		e.metricInc(MetricInstantAlreadyVerified)
		e.emitAudit(ctx, auditEventInstantAlreadyVerified, true, userID, roleID, "", nil, nil)
		return decide(OutcomeAlreadyVerified), nil
	}

	if err := e.grant(ctx, userID, roleID); err != nil {
		e.emitAudit(ctx, auditEventInstantGrantFailed, false, userID, roleID, "", err, nil)
		return decide(OutcomePlatformUnavailable), err
	}

	e.metricInc(MetricInstantGranted)
	e.emitAudit(ctx, auditEventInstantGranted, true, userID, roleID, "", nil, nil)
	return decide(OutcomeGranted), nil
}

func (e *Engine) grant(ctx context.Context, userID, roleID string) error {
	if err := e.roles.RequestRoleGrant(ctx, userID, roleID); err != nil {
		e.metricInc(MetricRoleGrantFailed)
		e.logger.Warn("role grant failed",
			zap.String("user_id", userID),
			zap.String("role_id", roleID),
			zap.String("guild_id", GuildIDFromContext(ctx)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w: %v", ErrPlatformUnavailable, ErrRoleGrantFailed, err)
	}
	return nil
}
