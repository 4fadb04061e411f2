package goVerify

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventIssue     = "verification_issue"
	auditEventCheck     = "verification_check"
	auditEventConsume   = "verification_consume"
	auditEventRateLimit = "rate_limit_triggered"
)

// AuditErrorCode defines a public type used by goVerify APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalid         AuditErrorCode = "invalid_request"
	auditErrThrottled       AuditErrorCode = "throttled"
	auditErrTokenNotFound   AuditErrorCode = "token_not_found"
	auditErrCodeExpired     AuditErrorCode = "code_expired"
	auditErrCodeMismatch    AuditErrorCode = "code_mismatch"
	auditErrExhausted       AuditErrorCode = "attempts_exhausted"
	auditErrAlreadyVerified AuditErrorCode = "already_verified"
	auditErrNotVerified     AuditErrorCode = "not_verified"
	auditErrAlreadyConsumed AuditErrorCode = "already_consumed"
	auditErrConflict        AuditErrorCode = "conflict"
	auditErrDeliveryFailed  AuditErrorCode = "delivery_failed"
	auditErrUnavailable     AuditErrorCode = "backend_unavailable"
	auditErrInternal        AuditErrorCode = "internal_error"
)

// Engine is the verification lifecycle controller: it issues codes,
// validates submissions, and spends successful verifications, delegating
// persistence to the injected [Store] and message transport to the
// per-channel [DeliveryAdapter].
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config   Config
	store    Store
	throttle *throttleGuard
	renderer Renderer
	adapters map[Channel]DeliveryAdapter
	receipts *receiptManager
	audit    *auditDispatcher
	metrics  *Metrics
}

// Close releases the engine's background resources. It drains and stops
// the audit dispatcher; the Redis client is owned by the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters
// and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) channelConfig(channel Channel) (ChannelConfig, error) {
	var cfg ChannelConfig
	switch channel {
	case ChannelSMS:
		cfg = e.config.SMS
	case ChannelEmail:
		cfg = e.config.Email
	default:
		return ChannelConfig{}, ErrChannelNotConfigured
	}
	if !cfg.Enabled {
		return ChannelConfig{}, ErrChannelNotConfigured
	}
	return cfg, nil
}

func (e *Engine) adapter(channel Channel) DeliveryAdapter {
	if e.adapters == nil {
		return nil
	}
	return e.adapters[channel]
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	token string,
	channel string,
	tenantID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}
	if tenantID == "" {
		tenantID = tenantIDFromContext(ctx)
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Token:     token,
		Channel:   channel,
		TenantID:  tenantID,
		IP:        clientIPFromContext(ctx),
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
	tenantID string,
	metadataBuilder func() map[string]string,
) {
	e.emitAudit(ctx, auditEventRateLimit, false, "", "", tenantID, nil, func() map[string]string {
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
	case errors.Is(err, ErrInvalidDestination),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrChannelNotConfigured):
		return auditErrInvalid
	case errors.Is(err, ErrThrottled):
		return auditErrThrottled
	case errors.Is(err, ErrTokenNotFound):
		return auditErrTokenNotFound
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrCodeMismatch):
		return auditErrCodeMismatch
	case errors.Is(err, ErrAttemptsExhausted):
		return auditErrExhausted
	case errors.Is(err, ErrAlreadyVerified):
		return auditErrAlreadyVerified
	case errors.Is(err, ErrNotVerified):
		return auditErrNotVerified
	case errors.Is(err, ErrAlreadyConsumed):
		return auditErrAlreadyConsumed
	case errors.Is(err, ErrConflict):
		return auditErrConflict
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrEntropyUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
