package discord

import (
	"errors"
	"strings"

	roleverify "github.com/MrEthical07/roleverify"
)

const customIDPrefix = "rv"

// Panel button actions.
const (
	ActionVerify = "verify"
	ActionStart  = "start"
	ActionSubmit = "submit"
)

// ErrUnknownControl is returned for custom IDs this package did not create.
var ErrUnknownControl = errors.New("discord: unknown panel control")

// Control is a decoded panel button.
type Control struct {
	Method roleverify.VerificationMethod
	Action string
	RoleID string
}

// EncodeCustomID returns "rv:<method>:<action>:<roleID>".
func EncodeCustomID(method roleverify.VerificationMethod, action, roleID string) string {
	return strings.Join([]string{customIDPrefix, method.String(), action, roleID}, ":")
}

// ParseCustomID decodes a custom ID built by EncodeCustomID and checks that
// the action belongs to the method.
func ParseCustomID(id string) (Control, error) {
	parts := strings.Split(id, ":")
	if len(parts) != 4 || parts[0] != customIDPrefix || parts[3] == "" {
		return Control{}, ErrUnknownControl
	}

	method, err := roleverify.ParseVerificationMethod(parts[1])
	if err != nil {
		return Control{}, ErrUnknownControl
	}

	switch {
	case method == roleverify.MethodInstant && parts[2] == ActionVerify:
	case method == roleverify.MethodChallenge && (parts[2] == ActionStart || parts[2] == ActionSubmit):
	default:
		return Control{}, ErrUnknownControl
	}

	return Control{Method: method, Action: parts[2], RoleID: parts[3]}, nil
}
