package roleverify

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/roleverify/reply"
	"github.com/MrEthical07/roleverify/session"
	"github.com/google/uuid"
)

// VerificationMethod selects how a panel verifies members.
type VerificationMethod uint8

const (
	// MethodInstant grants the role on a single acknowledgement.
	MethodInstant VerificationMethod = iota + 1
	// MethodChallenge requires echoing a private, time-bounded code.
	MethodChallenge
)

// String returns the wire name used in panel controls.
func (m VerificationMethod) String() string {
	switch m {
	case MethodInstant:
		return "instant"
	case MethodChallenge:
		return "challenge"
	default:
		return "unknown"
	}
}

// ParseVerificationMethod accepts "instant"/"button" and "challenge"/"captcha".
func ParseVerificationMethod(v string) (VerificationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "instant", "button":
		return MethodInstant, nil
	case "challenge", "captcha":
		return MethodChallenge, nil
	default:
		return 0, ErrInvalidMethod
	}
}

// VerificationConfig describes one posted panel. It is never mutated after
// construction.
type VerificationConfig struct {
	PanelID string
	RoleID  string
	Method  VerificationMethod
}

// NewVerificationConfig validates roleID and method and assigns a panel id.
func NewVerificationConfig(roleID string, method VerificationMethod) (VerificationConfig, error) {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return VerificationConfig{}, ErrInvalidPanel
	}
	if method != MethodInstant && method != MethodChallenge {
		return VerificationConfig{}, ErrInvalidMethod
	}
	return VerificationConfig{
		PanelID: uuid.NewString(),
		RoleID:  roleID,
		Method:  method,
	}, nil
}

// Outcome is the reason attached to a GrantDecision.
type Outcome uint8

const (
	OutcomeGranted Outcome = iota + 1
	OutcomeAlreadyVerified
	OutcomeInvalidCode
	OutcomeExpiredOrNotStarted
	OutcomeTimedOut
	OutcomePlatformUnavailable
	OutcomeRateLimited
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGranted:
		return "granted"
	case OutcomeAlreadyVerified:
		return "already_verified"
	case OutcomeInvalidCode:
		return "invalid_code"
	case OutcomeExpiredOrNotStarted:
		return "expired_or_not_started"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomePlatformUnavailable:
		return "platform_unavailable"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// GrantDecision is returned after every verification attempt.
type GrantDecision struct {
	Granted bool
	Reason  Outcome
}

func decide(reason Outcome) GrantDecision {
	return GrantDecision{Granted: reason == OutcomeGranted, Reason: reason}
}

// RoleGranter attaches a role to a member. Implementations read the guild
// from ctx when the platform needs one.
type RoleGranter interface {
	RequestRoleGrant(ctx context.Context, userID, roleID string) error
}

// CodeDeliverer sends a challenge code to a user over a private channel.
type CodeDeliverer interface {
	DeliverPrivateCode(ctx context.Context, userID, code string) error
}

// ReplyWaiter waits for the next private reply from a user.
type ReplyWaiter interface {
	Wait(ctx context.Context, userID string, timeout time.Duration) (reply.Result, error)
}

// SessionStore is the challenge registry the engine drives. [session.Store]
// implements it.
type SessionStore interface {
	Issue(userID string) session.Session
	Validate(userID, candidate string) session.Result
	ValidateSession(userID, sessionID, candidate string) session.Result
	Cancel(userID string)
	Revoke(userID, sessionID string) bool
	Lookup(userID string) (session.Session, bool)
}

// RoleGranterFunc adapts a function to RoleGranter.
type RoleGranterFunc func(ctx context.Context, userID, roleID string) error

// RequestRoleGrant calls f.
func (f RoleGranterFunc) RequestRoleGrant(ctx context.Context, userID, roleID string) error {
	return f(ctx, userID, roleID)
}

// CodeDelivererFunc adapts a function to CodeDeliverer.
type CodeDelivererFunc func(ctx context.Context, userID, code string) error

// DeliverPrivateCode calls f.
func (f CodeDelivererFunc) DeliverPrivateCode(ctx context.Context, userID, code string) error {
	return f(ctx, userID, code)
}
