package goVerify

import (
	"context"
	"errors"
	"time"
)

// Consume spends a successful verification exactly once and returns the
// destination bound to the token so the caller can authorize a
// downstream action. When receipts are enabled the result also carries a
// signed consumption receipt.
//
// Fails [ErrNotVerified] for records that never reached the success
// path and [ErrAlreadyConsumed] on replay.
func (e *Engine) Consume(ctx context.Context, token string) (*ConsumeResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if err := validateToken(token); err != nil {
		e.metricInc(MetricConsumeFailure)
		e.emitAudit(ctx, auditEventConsume, false, "", "", "", err, nil)
		return nil, err
	}

	tenantID := tenantIDFromContext(ctx)

	record, err := e.store.AtomicUpdate(ctx, tenantID, token, func(r *Record) (bool, error) {
		switch r.Status {
		case StatusConsumed:
			return false, ErrAlreadyConsumed
		case StatusVerified:
			r.Status = StatusConsumed
			return true, nil
		default:
			return false, ErrNotVerified
		}
	})

	if errors.Is(err, ErrConflict) {
		// The race partner either consumed the record or it is still
		// unverified; one re-read settles which.
		err = e.resolveConsumeConflict(ctx, tenantID, token)
	}

	if err != nil {
		e.metricInc(MetricConsumeFailure)
		e.emitAudit(ctx, auditEventConsume, false, token, "", tenantID, err, nil)
		return nil, err
	}

	result := &ConsumeResult{
		Channel:     record.Channel,
		Destination: record.Destination,
	}

	if e.receipts != nil {
		receipt, rerr := e.receipts.issue(token, record.Channel, record.Destination, time.Now())
		if rerr != nil {
			// The consumption already committed; surface it, receipt-less.
			e.emitAudit(ctx, auditEventConsume, true, token, record.Channel.String(), tenantID, nil, func() map[string]string {
				return map[string]string{
					"receipt_failed": "true",
				}
			})
			e.metricInc(MetricConsumeSuccess)
			return result, nil
		}
		result.Receipt = receipt
	}

	e.metricInc(MetricConsumeSuccess)
	e.emitAudit(ctx, auditEventConsume, true, token, record.Channel.String(), tenantID, nil, nil)
	return result, nil
}

func (e *Engine) resolveConsumeConflict(ctx context.Context, tenantID, token string) error {
	record, err := e.store.GetByToken(ctx, tenantID, token)
	if err != nil {
		return err
	}

	switch record.Status {
	case StatusConsumed:
		return ErrAlreadyConsumed
	case StatusVerified:
		return ErrConflict
	default:
		return ErrNotVerified
	}
}

// IsDestinationVerified reports whether the destination's most recently
// issued record is verified and not yet consumed. Older records are
// ignored even if still live, so an attacker cannot keep a stale code
// useful indefinitely by issuing and never checking.
func (e *Engine) IsDestinationVerified(ctx context.Context, channel Channel, destination string) (bool, error) {
	if e == nil || e.store == nil {
		return false, ErrEngineNotReady
	}

	normalized, err := normalizeDestination(channel, destination)
	if err != nil {
		return false, err
	}

	e.metricInc(MetricDestinationLookup)

	record, err := e.store.LatestByDestination(ctx, tenantIDFromContext(ctx), channel, normalized)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return false, nil
		}
		return false, err
	}

	return record.Status == StatusVerified, nil
}
