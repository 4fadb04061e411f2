package goVerify

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goVerify APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  Store

	adapters map[Channel]DeliveryAdapter
	renderer Renderer

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config:   defaultConfig(),
		adapters: make(map[Channel]DeliveryAdapter),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore may return an error when input validation, dependency calls, or security checks fail.
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithSMSAdapter describes the withsmsadapter operation and its observable behavior.
//
// WithSMSAdapter may return an error when input validation, dependency calls, or security checks fail.
// WithSMSAdapter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSMSAdapter(adapter DeliveryAdapter) *Builder {
	b.adapters[ChannelSMS] = adapter
	return b
}

// WithEmailAdapter describes the withemailadapter operation and its observable behavior.
//
// WithEmailAdapter may return an error when input validation, dependency calls, or security checks fail.
// WithEmailAdapter does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithEmailAdapter(adapter DeliveryAdapter) *Builder {
	b.adapters[ChannelEmail] = adapter
	return b
}

// WithRenderer describes the withrenderer operation and its observable behavior.
//
// WithRenderer may return an error when input validation, dependency calls, or security checks fail.
// WithRenderer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRenderer(r Renderer) *Builder {
	b.renderer = r
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or custom store required")
		}
		store = NewRedisStore(b.redis, cfg.Store.RedisPrefix, indexRetention(cfg))
	}

	for _, channel := range []Channel{ChannelSMS, ChannelEmail} {
		chCfg := channelFor(cfg, channel)
		if !chCfg.Enabled {
			continue
		}
		if _, ok := b.adapters[channel]; !ok {
			return nil, fmt.Errorf("delivery adapter required for enabled channel %s", channel)
		}
	}

	renderer := b.renderer
	if renderer == nil {
		renderer = func(template, code string) string {
			return fmt.Sprintf(template, code)
		}
	}

	receipts, err := newReceiptManager(cfg.Receipt)
	if err != nil {
		return nil, err
	}

	adapters := make(map[Channel]DeliveryAdapter, len(b.adapters))
	for ch, adapter := range b.adapters {
		adapters[ch] = adapter
	}

	engine := &Engine{
		config:   cfg,
		store:    store,
		throttle: newThrottleGuard(store),
		renderer: renderer,
		adapters: adapters,
		receipts: receipts,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}

func channelFor(cfg Config, channel Channel) ChannelConfig {
	if channel == ChannelEmail {
		return cfg.Email
	}
	return cfg.SMS
}

// indexRetention returns how long destination index entries must outlive
// issuance so that throttle windows and verified lookups stay answerable.
func indexRetention(cfg Config) time.Duration {
	retention := time.Duration(0)
	for _, chCfg := range []ChannelConfig{cfg.SMS, cfg.Email} {
		if !chCfg.Enabled {
			continue
		}
		for _, d := range []time.Duration{chCfg.Window, chCfg.VerifiedTTL, chCfg.CodeTTL} {
			if d > retention {
				retention = d
			}
		}
	}
	return retention
}
