package test

import (
	"testing"
	"time"

	goVerify "github.com/MrEthical07/goVerify"
)

func TestDefaultConfigPresetValidates(t *testing.T) {
	cfg := goVerify.DefaultConfig()

	if !cfg.SMS.Enabled || cfg.Email.Enabled {
		t.Fatal("expected SMS-only baseline")
	}
	if cfg.SMS.CodeLength != 6 || cfg.SMS.CodeAlphabet != goVerify.DigitsAlphabet {
		t.Fatalf("expected six-digit numeric codes, got %d/%q", cfg.SMS.CodeLength, cfg.SMS.CodeAlphabet)
	}
	if cfg.SMS.CodeTTL != 2*time.Minute {
		t.Fatalf("expected two-minute code lifetime, got %s", cfg.SMS.CodeTTL)
	}
	if cfg.SMS.MaxAttempts != 3 {
		t.Fatalf("expected three attempts, got %d", cfg.SMS.MaxAttempts)
	}
	if cfg.Receipt.Enabled {
		t.Fatal("expected receipts disabled in preset baseline")
	}
	if !cfg.Audit.Enabled || !cfg.Audit.DropIfFull {
		t.Fatal("expected non-blocking audit enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
}

func TestHighSecurityConfigPresetValidates(t *testing.T) {
	cfg := goVerify.HighSecurityConfig()

	if cfg.SMS.CodeTTL >= 2*time.Minute {
		t.Fatalf("expected shortened code lifetime, got %s", cfg.SMS.CodeTTL)
	}
	if cfg.SMS.MaxSendsPerWindow >= goVerify.DefaultConfig().SMS.MaxSendsPerWindow {
		t.Fatal("expected tighter issuance window")
	}
	if cfg.Email.CodeAlphabet != goVerify.AlphanumericAlphabet {
		t.Fatal("expected hardened email codes to use the alphanumeric alphabet")
	}
	if !cfg.Metrics.EnableLatencyHistograms {
		t.Fatal("expected latency histograms enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected high security preset to validate, got %v", err)
	}
}
