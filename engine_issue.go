package goVerify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goVerify/internal"
	"github.com/google/uuid"
)

// Issue runs the throttle guard for the destination, persists a new
// pending verification record, and hands the rendered code message to
// the channel's delivery adapter.
//
// A delivery failure does not fail the issuance: the record is already
// persisted and the code may have partially sent, so the token is
// returned with DeliveryWarning set and re-issuance is left to the
// caller. Throttle rejections return a [ThrottledError].
func (e *Engine) Issue(ctx context.Context, channel Channel, destination string) (*IssueResult, error) {
	if e == nil || e.store == nil || e.throttle == nil {
		return nil, ErrEngineNotReady
	}

	cfg, err := e.channelConfig(channel)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssue, false, "", channel.String(), "", err, nil)
		return nil, err
	}

	normalized, err := normalizeDestination(channel, destination)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssue, false, "", channel.String(), "", err, func() map[string]string {
			return map[string]string{
				"reason": "invalid_destination",
			}
		})
		return nil, err
	}

	tenantID := tenantIDFromContext(ctx)
	now := time.Now()

	if err := e.throttle.check(ctx, tenantID, channel, normalized, cfg, now); err != nil {
		if errors.Is(err, ErrThrottled) {
			e.metricInc(MetricIssueThrottled)
			e.emitAudit(ctx, auditEventIssue, false, "", channel.String(), tenantID, err, func() map[string]string {
				return map[string]string{
					"destination": normalized,
				}
			})
			e.emitRateLimit(ctx, "issue", tenantID, func() map[string]string {
				return map[string]string{
					"destination": normalized,
				}
			})
		} else {
			e.metricInc(MetricIssueFailure)
			e.emitAudit(ctx, auditEventIssue, false, "", channel.String(), tenantID, err, nil)
		}
		return nil, err
	}

	token, err := newToken(cfg.TokenFormat)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssue, false, "", channel.String(), tenantID, ErrEntropyUnavailable, nil)
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	code, err := internal.NewCode(cfg.CodeAlphabet, cfg.CodeLength)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssue, false, "", channel.String(), tenantID, ErrEntropyUnavailable, nil)
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	record := &Record{
		Token:       token,
		TenantID:    tenantID,
		Channel:     channel,
		Destination: normalized,
		CodeHash:    internal.HashCode(code),
		CreatedAt:   now.UnixMilli(),
		ExpiresAt:   now.Add(cfg.CodeTTL).UnixMilli(),
		// The backstop must cover the whole throttle window, otherwise
		// expired records vanish from the resend history early.
		RetainUntil: now.Add(maxDuration(cfg.CodeTTL, cfg.Window)).UnixMilli(),
		Attempts:    0,
		MaxAttempts: uint16(cfg.MaxAttempts),
		Status:      StatusPending,
	}

	if err := e.store.Put(ctx, record, time.Until(time.UnixMilli(record.RetainUntil))); err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssue, false, token, channel.String(), tenantID, err, func() map[string]string {
			return map[string]string{
				"destination": normalized,
			}
		})
		return nil, err
	}

	result := &IssueResult{
		Token:     token,
		ExpiresAt: time.UnixMilli(record.ExpiresAt),
	}

	message := e.renderer(cfg.MessageTemplate, code)
	if err := e.deliver(ctx, channel, normalized, message); err != nil {
		e.metricInc(MetricDeliveryFailure)
		result.DeliveryWarning = err
		e.emitAudit(ctx, auditEventIssue, true, token, channel.String(), tenantID, nil, func() map[string]string {
			return map[string]string{
				"destination":      normalized,
				"delivery_warning": "true",
			}
		})
		e.metricInc(MetricIssueSuccess)
		return result, nil
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventIssue, true, token, channel.String(), tenantID, nil, func() map[string]string {
		return map[string]string{
			"destination": normalized,
		}
	})
	return result, nil
}

func (e *Engine) deliver(ctx context.Context, channel Channel, destination, message string) error {
	adapter := e.adapter(channel)
	if adapter == nil {
		return fmt.Errorf("%w: no adapter for channel %s", ErrDeliveryFailed, channel)
	}

	sendCtx, cancel := context.WithTimeout(ctx, e.config.Delivery.SendTimeout)
	defer cancel()

	if err := adapter.Send(sendCtx, destination, message); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

func newToken(format TokenFormat) (string, error) {
	switch format {
	case TokenUUID:
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	default:
		vid, err := internal.NewVerificationID()
		if err != nil {
			return "", err
		}
		return vid.String(), nil
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
