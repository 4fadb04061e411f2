package test

import (
	"context"
	"errors"
	"testing"

	goVerify "github.com/MrEthical07/goVerify"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goVerify.New

	var _ *goVerify.Engine
	var _ goVerify.Config
	var _ goVerify.ChannelConfig
	var _ goVerify.IssueResult
	var _ goVerify.CheckResult
	var _ goVerify.ConsumeResult
	var _ goVerify.Record
	var _ goVerify.Store
	var _ goVerify.DeliveryAdapter
	var _ goVerify.AuditSink
	var _ goVerify.AuditEvent
	var _ goVerify.MetricsSnapshot

	var _ error = goVerify.ErrInvalidDestination
	var _ error = goVerify.ErrTokenNotFound
	var _ error = goVerify.ErrCodeExpired
	var _ error = goVerify.ErrCodeMismatch
	var _ error = goVerify.ErrAttemptsExhausted
	var _ error = goVerify.ErrAlreadyVerified
	var _ error = goVerify.ErrNotVerified
	var _ error = goVerify.ErrAlreadyConsumed
	var _ error = goVerify.ErrThrottled
	var _ error = goVerify.ErrConflict
	var _ error = goVerify.ErrDeliveryFailed

	var _ func(*goVerify.Engine, context.Context, goVerify.Channel, string) (*goVerify.IssueResult, error) = (*goVerify.Engine).Issue
	var _ func(*goVerify.Engine, context.Context, string, string) (*goVerify.CheckResult, error) = (*goVerify.Engine).Check
	var _ func(*goVerify.Engine, context.Context, string) (*goVerify.ConsumeResult, error) = (*goVerify.Engine).Consume
	var _ func(*goVerify.Engine, context.Context, goVerify.Channel, string) (bool, error) = (*goVerify.Engine).IsDestinationVerified
}

// Full lifecycle through the public API only: issue, mismatch, check,
// consume, replay.
func TestFullVerificationLifecycle(t *testing.T) {
	engine, adapter := newIntegrationEngine(t)
	ctx := context.Background()

	issued, err := engine.Issue(ctx, goVerify.ChannelSMS, "+15558230001")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	code := adapter.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := engine.Check(ctx, issued.Token, wrong); !errors.Is(err, goVerify.ErrCodeMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}

	checked, err := engine.Check(ctx, issued.Token, code)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !checked.Verified || checked.Destination != "+15558230001" {
		t.Fatalf("unexpected check result: %+v", checked)
	}

	verified, err := engine.IsDestinationVerified(ctx, goVerify.ChannelSMS, "+15558230001")
	if err != nil || !verified {
		t.Fatalf("expected destination verified, got ok=%v err=%v", verified, err)
	}

	consumed, err := engine.Consume(ctx, issued.Token)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if consumed.Destination != "+15558230001" {
		t.Fatalf("unexpected consume result: %+v", consumed)
	}

	if _, err := engine.Consume(ctx, issued.Token); !errors.Is(err, goVerify.ErrAlreadyConsumed) {
		t.Fatalf("expected replay rejection, got %v", err)
	}
}

func TestEmailChannelLifecycle(t *testing.T) {
	engine, adapter := newIntegrationEngine(t)
	ctx := context.Background()

	issued, err := engine.Issue(ctx, goVerify.ChannelEmail, "Alice@Example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	checked, err := engine.Check(ctx, issued.Token, adapter.lastCode(t))
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if checked.Channel != goVerify.ChannelEmail {
		t.Fatalf("expected email channel, got %v", checked.Channel)
	}
	if checked.Destination != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", checked.Destination)
	}
}

func TestTenantsAreIsolated(t *testing.T) {
	engine, adapter := newIntegrationEngine(t)

	ctxA := goVerify.WithTenantID(context.Background(), "tenant-a")
	ctxB := goVerify.WithTenantID(context.Background(), "tenant-b")

	issued, err := engine.Issue(ctxA, goVerify.ChannelSMS, "+15558230002")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	code := adapter.lastCode(t)

	if _, err := engine.Check(ctxB, issued.Token, code); !errors.Is(err, goVerify.ErrTokenNotFound) {
		t.Fatalf("expected cross-tenant check to miss, got %v", err)
	}
	if _, err := engine.Check(ctxA, issued.Token, code); err != nil {
		t.Fatalf("same-tenant check failed: %v", err)
	}
}
