package roleverify

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "code length zero invalid",
			mutate: func(c *Config) {
				c.Challenge.CodeLength = 0
			},
			wantValid: false,
		},
		{
			name: "single symbol alphabet invalid",
			mutate: func(c *Config) {
				c.Challenge.Alphabet = "A"
			},
			wantValid: false,
		},
		{
			name: "timeout zero invalid",
			mutate: func(c *Config) {
				c.Challenge.Timeout = 0
			},
			wantValid: false,
		},
		{
			name: "sweep interval zero valid",
			mutate: func(c *Config) {
				c.Challenge.SweepInterval = 0
			},
			wantValid: true,
		},
		{
			name: "sweep interval negative invalid",
			mutate: func(c *Config) {
				c.Challenge.SweepInterval = -time.Second
			},
			wantValid: false,
		},
		{
			name: "negative shards invalid",
			mutate: func(c *Config) {
				c.Challenge.Shards = -1
			},
			wantValid: false,
		},
		{
			name: "rate limit valid",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.MaxStarts = 3
				c.RateLimit.Window = time.Minute
			},
			wantValid: true,
		},
		{
			name: "rate limit zero starts invalid",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.MaxStarts = 0
			},
			wantValid: false,
		},
		{
			name: "rate limit zero window invalid",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.Window = 0
			},
			wantValid: false,
		},
		{
			name: "rate limit disabled ignores fields",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = false
				c.RateLimit.MaxStarts = 0
			},
			wantValid: true,
		},
		{
			name: "audit zero buffer invalid",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "histograms without metrics invalid",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestBuildRejectsAlphabetTheStoreCannotUse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Challenge.Alphabet = "AaB"

	if _, err := New().WithConfig(cfg).WithPlatform(newFakePlatform()).Build(); err == nil {
		t.Fatal("expected case-ambiguous alphabet to be rejected")
	}
}

func TestParseVerificationMethod(t *testing.T) {
	cases := map[string]VerificationMethod{
		"instant":   MethodInstant,
		"button":    MethodInstant,
		" Captcha ": MethodChallenge,
		"challenge": MethodChallenge,
	}
	for in, want := range cases {
		got, err := ParseVerificationMethod(in)
		if err != nil {
			t.Fatalf("ParseVerificationMethod(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseVerificationMethod(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseVerificationMethod("email"); err != ErrInvalidMethod {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestNewVerificationConfig(t *testing.T) {
	cfg, err := NewVerificationConfig(" 123 ", MethodChallenge)
	if err != nil {
		t.Fatalf("NewVerificationConfig failed: %v", err)
	}
	if cfg.RoleID != "123" || cfg.Method != MethodChallenge || cfg.PanelID == "" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := NewVerificationConfig("", MethodInstant); err != ErrInvalidPanel {
		t.Fatalf("expected ErrInvalidPanel, got %v", err)
	}
	if _, err := NewVerificationConfig("123", VerificationMethod(9)); err != ErrInvalidMethod {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}
