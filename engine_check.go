package goVerify

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goVerify/internal"
)

// Check validates a submitted code against the record correlated by
// token. The whole evaluation runs inside the store's atomic update, so
// concurrent checks on one token serialize: attempts never pass the
// ceiling and the verified transition happens exactly once.
//
// Outcomes: success, [ErrTokenNotFound], [ErrCodeExpired],
// [ErrAttemptsExhausted], [ErrAlreadyVerified], [ErrCodeMismatch]. After
// a lost optimistic race the authoritative post-conflict state is
// surfaced instead of a generic failure.
func (e *Engine) Check(ctx context.Context, token, code string) (*CheckResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricCheckLatency, time.Since(start))
		}
	}()

	if err := validateToken(token); err != nil {
		e.metricInc(MetricCheckFailure)
		e.emitAudit(ctx, auditEventCheck, false, "", "", "", err, func() map[string]string {
			return map[string]string{
				"reason": "malformed_token",
			}
		})
		return nil, err
	}
	if len(code) < 4 || len(code) > 12 {
		e.metricInc(MetricCheckFailure)
		e.emitAudit(ctx, auditEventCheck, false, token, "", "", ErrInvalidCode, nil)
		return nil, ErrInvalidCode
	}

	tenantID := tenantIDFromContext(ctx)
	now := time.Now()
	nowMs := now.UnixMilli()
	providedHash := internal.HashCode(code)

	record, err := e.store.AtomicUpdate(ctx, tenantID, token, func(r *Record) (bool, error) {
		if nowMs > r.ExpiresAt {
			if r.Status == StatusPending {
				r.Status = StatusExpired
				return true, ErrCodeExpired
			}
			return false, ErrCodeExpired
		}

		if r.Attempts >= r.MaxAttempts {
			if r.Status == StatusPending {
				r.Status = StatusExhausted
				return true, ErrAttemptsExhausted
			}
			return false, ErrAttemptsExhausted
		}

		if r.Verified() {
			return false, ErrAlreadyVerified
		}

		if subtle.ConstantTimeCompare(r.CodeHash[:], providedHash[:]) != 1 {
			r.Attempts++
			if r.Attempts >= r.MaxAttempts {
				r.Status = StatusExhausted
				return true, ErrAttemptsExhausted
			}
			return true, ErrCodeMismatch
		}

		r.Status = StatusVerified
		retain := now.Add(e.verifiedTTL(r.Channel)).UnixMilli()
		if retain > r.RetainUntil {
			r.RetainUntil = retain
		}
		return true, nil
	})

	if errors.Is(err, ErrConflict) {
		e.metricInc(MetricCheckConflict)
		err = e.resolveCheckConflict(ctx, tenantID, token, nowMs)
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrCodeMismatch):
			e.metricInc(MetricCheckMismatch)
		case errors.Is(err, ErrCodeExpired):
			e.metricInc(MetricCheckExpired)
		case errors.Is(err, ErrAttemptsExhausted):
			e.metricInc(MetricCheckExhausted)
		default:
			e.metricInc(MetricCheckFailure)
		}
		e.emitAudit(ctx, auditEventCheck, false, token, "", tenantID, err, nil)
		return nil, err
	}

	e.metricInc(MetricCheckSuccess)
	e.emitAudit(ctx, auditEventCheck, true, token, record.Channel.String(), tenantID, nil, nil)

	return &CheckResult{
		Verified:    true,
		Channel:     record.Channel,
		Destination: record.Destination,
	}, nil
}

// resolveCheckConflict re-reads the record once after a lost optimistic
// race and maps the authoritative state to a public outcome.
func (e *Engine) resolveCheckConflict(ctx context.Context, tenantID, token string, nowMs int64) error {
	record, err := e.store.GetByToken(ctx, tenantID, token)
	if err != nil {
		return err
	}

	switch {
	case record.Verified():
		return ErrAlreadyVerified
	case record.Status == StatusExpired || nowMs > record.ExpiresAt:
		return ErrCodeExpired
	case record.Status == StatusExhausted || record.Attempts >= record.MaxAttempts:
		return ErrAttemptsExhausted
	default:
		return ErrConflict
	}
}

// verifiedTTL returns the retention for verified records, independent of
// whether the channel is still enabled for issuance.
func (e *Engine) verifiedTTL(channel Channel) time.Duration {
	var cfg ChannelConfig
	switch channel {
	case ChannelEmail:
		cfg = e.config.Email
	default:
		cfg = e.config.SMS
	}
	if cfg.VerifiedTTL > 0 {
		return cfg.VerifiedTTL
	}
	return 2 * time.Hour
}

func validateToken(token string) error {
	if token == "" || len(token) > 64 {
		return ErrInvalidToken
	}
	return nil
}
