package roleverify

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/roleverify/reply"
)

var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrPlatformUnavailable wraps failures of the chat platform collaborator.
	ErrPlatformUnavailable = errors.New("platform unavailable")
	// ErrCodeDeliveryFailed is returned when a challenge code could not be delivered.
	ErrCodeDeliveryFailed = errors.New("challenge code delivery failed")
	// ErrRoleGrantFailed is returned when the platform rejected a role grant.
	ErrRoleGrantFailed = errors.New("role grant failed")
	// ErrChallengeRateLimited is returned when a user starts challenges too often.
	ErrChallengeRateLimited = errors.New("challenge rate limited")
	// ErrChallengeSuperseded is returned by a challenge wait that a newer wait
	// for the same user replaced. It wraps reply.ErrSuperseded.
	ErrChallengeSuperseded = fmt.Errorf("challenge superseded: %w", reply.ErrSuperseded)
	// ErrInvalidPanel is returned for a panel without a role.
	ErrInvalidPanel = errors.New("invalid verification panel")
	// ErrInvalidMethod is returned for an unknown verification method.
	ErrInvalidMethod = errors.New("invalid verification method")
	// ErrEmptyUserID is returned when an operation is called without a user.
	ErrEmptyUserID = errors.New("user id required")
)
