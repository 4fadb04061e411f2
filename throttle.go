package goVerify

import (
	"context"
	"fmt"
	"time"
)

// throttleGuard enforces the per-destination issuance policy: a minimum
// interval between sends and a cap on sends per rolling window. Reads are
// best-effort; the small check-then-create race is bounded by the
// one-live-record-per-destination rule, so at most one extra send can
// slip through per race window.
type throttleGuard struct {
	store Store
}

func newThrottleGuard(store Store) *throttleGuard {
	return &throttleGuard{store: store}
}

func (g *throttleGuard) check(
	ctx context.Context,
	tenantID string,
	channel Channel,
	destination string,
	cfg ChannelConfig,
	now time.Time,
) error {
	records, err := g.store.ListByDestination(ctx, tenantID, channel, destination, now.Add(-cfg.Window))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(records) == 0 {
		return nil
	}

	newest := records[0]
	oldest := records[0]
	for _, record := range records[1:] {
		if record.CreatedAt > newest.CreatedAt {
			newest = record
		}
		if record.CreatedAt < oldest.CreatedAt {
			oldest = record
		}
	}

	if cfg.MinResendInterval > 0 {
		age := now.Sub(time.UnixMilli(newest.CreatedAt))
		if age < cfg.MinResendInterval {
			return &ThrottledError{RetryAfter: cfg.MinResendInterval - age}
		}
	}

	if cfg.MaxSendsPerWindow > 0 && len(records) >= cfg.MaxSendsPerWindow {
		// A slot frees when the oldest counted record falls out of the
		// rolling window.
		oldestAge := now.Sub(time.UnixMilli(oldest.CreatedAt))
		retryAfter := cfg.Window - oldestAge
		if retryAfter < 0 {
			retryAfter = 0
		}
		return &ThrottledError{RetryAfter: retryAfter}
	}

	return nil
}
