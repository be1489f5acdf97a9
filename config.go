package roleverify

import (
	"errors"
	"time"

	"github.com/MrEthical07/roleverify/internal"
	"github.com/MrEthical07/roleverify/session"
)

// Config holds every engine tunable. Build copies it; later changes by the
// caller have no effect on a built Engine.
type Config struct {
	Challenge ChallengeConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig shapes challenge codes and their lifetime.
type ChallengeConfig struct {
	CodeLength int
	Alphabet   string
	// Timeout is both the session TTL and the reply wait bound.
	Timeout       time.Duration
	SweepInterval time.Duration
	Shards        int
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig throttles BeginChallenge per user. It needs a Redis client.
type RateLimitConfig struct {
	Enabled   bool
	MaxStarts int
	Window    time.Duration
	Prefix    string
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the reply latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns 5-character A-Z0-9 codes, a 60 second window, no
// rate limit, audit off and metrics off.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Challenge: ChallengeConfig{
			CodeLength:    internal.DefaultCodeLength,
			Alphabet:      internal.DefaultCodeAlphabet,
			Timeout:       session.DefaultTTL,
			SweepInterval: 5 * time.Minute,
			Shards:        session.DefaultShards,
		},
		RateLimit: RateLimitConfig{
			Enabled:   false,
			MaxStarts: 5,
			Window:    10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

func (c ChallengeConfig) sessionConfig() session.Config {
	return session.Config{
		CodeLength: c.CodeLength,
		Alphabet:   c.Alphabet,
		TTL:        c.Timeout,
		Shards:     c.Shards,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Challenge
	if c.Challenge.CodeLength <= 0 {
		return errors.New("Challenge CodeLength must be > 0")
	}
	if len(c.Challenge.Alphabet) < 2 {
		return errors.New("Challenge Alphabet must have at least 2 symbols")
	}
	if c.Challenge.Timeout <= 0 {
		return errors.New("Challenge Timeout must be > 0")
	}
	if c.Challenge.SweepInterval < 0 {
		return errors.New("Challenge SweepInterval must be >= 0")
	}
	if c.Challenge.Shards < 0 {
		return errors.New("Challenge Shards must be >= 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxStarts <= 0 {
			return errors.New("RateLimit MaxStarts must be > 0")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit Window must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
