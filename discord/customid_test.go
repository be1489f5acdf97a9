package discord

import (
	"errors"
	"testing"

	roleverify "github.com/MrEthical07/roleverify"
)

func TestCustomIDRoundTrip(t *testing.T) {
	cases := []struct {
		method roleverify.VerificationMethod
		action string
	}{
		{roleverify.MethodInstant, ActionVerify},
		{roleverify.MethodChallenge, ActionStart},
		{roleverify.MethodChallenge, ActionSubmit},
	}

	for _, tc := range cases {
		id := EncodeCustomID(tc.method, tc.action, "123456789")
		ctrl, err := ParseCustomID(id)
		if err != nil {
			t.Fatalf("ParseCustomID(%q) failed: %v", id, err)
		}
		if ctrl.Method != tc.method || ctrl.Action != tc.action || ctrl.RoleID != "123456789" {
			t.Fatalf("unexpected control %+v for %q", ctrl, id)
		}
	}
}

func TestParseCustomIDRejectsForeignIDs(t *testing.T) {
	ids := []string{
		"",
		"verify_button_123",
		"rv:instant:verify",
		"rv:instant:verify:",
		"xx:instant:verify:1",
		"rv:unknown:verify:1",
		"rv:instant:start:1",
		"rv:challenge:verify:1",
		"rv:challenge:start:1:extra",
	}
	for _, id := range ids {
		if _, err := ParseCustomID(id); !errors.Is(err, ErrUnknownControl) {
			t.Fatalf("ParseCustomID(%q): expected ErrUnknownControl, got %v", id, err)
		}
	}
}
