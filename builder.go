package roleverify

import (
	"errors"

	"github.com/MrEthical07/roleverify/internal/rate"
	"github.com/MrEthical07/roleverify/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Platform is a collaborator that can both grant roles and deliver codes.
type Platform interface {
	RoleGranter
	CodeDeliverer
}

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessions SessionStore
	roles    RoleGranter
	codes    CodeDeliverer

	auditSink AuditSink
	logger    *zap.Logger

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used by the challenge rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore replaces the in-memory store built from Config.Challenge.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

func (b *Builder) WithRoleGranter(g RoleGranter) *Builder {
	b.roles = g
	return b
}

func (b *Builder) WithCodeDeliverer(d CodeDeliverer) *Builder {
	b.codes = d
	return b
}

// WithPlatform sets both the role granter and the code deliverer.
func (b *Builder) WithPlatform(p Platform) *Builder {
	b.roles = p
	b.codes = p
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.roles == nil {
		return nil, errors.New("role granter required")
	}
	if b.codes == nil {
		return nil, errors.New("code deliverer required")
	}
	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("RateLimit requires redis client")
	}

	// -------- SESSION STORE --------
	store := b.sessions
	if store == nil {
		s, err := session.NewStore(cfg.Challenge.sessionConfig())
		if err != nil {
			return nil, err
		}
		store = s
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:   cloneConfig(cfg),
		sessions: store,
		roles:    b.roles,
		codes:    b.codes,
		logger:   logger.Named("roleverify"),
	}

	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			Enabled:   true,
			MaxStarts: cfg.RateLimit.MaxStarts,
			Window:    cfg.RateLimit.Window,
			Prefix:    cfg.RateLimit.Prefix,
		})
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, engine.logger)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
