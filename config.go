package goVerify

import (
	"errors"
	"strings"
	"time"
)

// TokenFormat defines a public type used by goVerify APIs.
//
// TokenFormat instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenFormat int

const (
	// TokenOpaque is an exported constant or variable used by the verification engine.
	TokenOpaque TokenFormat = iota
	// TokenUUID is an exported constant or variable used by the verification engine.
	TokenUUID
)

/*
====================================
CHANNEL CONFIG
====================================
*/

// ChannelConfig defines a public type used by goVerify APIs.
//
// ChannelConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChannelConfig struct {
	Enabled           bool
	CodeLength        int
	CodeAlphabet      string
	CodeTTL           time.Duration
	VerifiedTTL       time.Duration
	MaxAttempts       int
	MinResendInterval time.Duration
	MaxSendsPerWindow int
	Window            time.Duration
	MessageTemplate   string
	TokenFormat       TokenFormat
}

/*
====================================
DELIVERY CONFIG
====================================
*/

// DeliveryConfig defines a public type used by goVerify APIs.
//
// DeliveryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DeliveryConfig struct {
	SendTimeout time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by goVerify APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	RedisPrefix string
}

/*
====================================
RECEIPT CONFIG
====================================
*/

// ReceiptConfig controls optional signed consumption receipts. When
// enabled, [Engine.Consume] additionally returns a short-lived ed25519
// JWT binding the consumed token to its destination and channel.
type ReceiptConfig struct {
	Enabled    bool
	ReceiptTTL time.Duration
	Issuer     string
	PrivateKey []byte
	PublicKey  []byte
}

// AuditConfig defines a public type used by goVerify APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goVerify APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Config defines a public type used by goVerify APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	SMS      ChannelConfig
	Email    ChannelConfig
	Delivery DeliveryConfig
	Store    StoreConfig
	Receipt  ReceiptConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

const (
	// DigitsAlphabet is an exported constant or variable used by the verification engine.
	DigitsAlphabet = "0123456789"
	// AlphanumericAlphabet is an exported constant or variable used by the verification engine.
	AlphanumericAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

func defaultConfig() Config {
	return Config{
		SMS: ChannelConfig{
			Enabled:           true,
			CodeLength:        6,
			CodeAlphabet:      DigitsAlphabet,
			CodeTTL:           2 * time.Minute,
			VerifiedTTL:       2 * time.Hour,
			MaxAttempts:       3,
			MinResendInterval: 2 * time.Minute,
			MaxSendsPerWindow: 5,
			Window:            time.Hour,
			MessageTemplate:   "Your code: %s",
			TokenFormat:       TokenOpaque,
		},
		Email: ChannelConfig{
			Enabled:           false,
			CodeLength:        6,
			CodeAlphabet:      DigitsAlphabet,
			CodeTTL:           15 * time.Minute,
			VerifiedTTL:       2 * time.Hour,
			MaxAttempts:       5,
			MinResendInterval: time.Minute,
			MaxSendsPerWindow: 10,
			Window:            time.Hour,
			MessageTemplate:   "Your code: %s",
			TokenFormat:       TokenOpaque,
		},
		Delivery: DeliveryConfig{
			SendTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			RedisPrefix: "gv",
		},
		Receipt: ReceiptConfig{
			Enabled:    false,
			ReceiptTTL: 5 * time.Minute,
			Issuer:     "goverify",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 512,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the baseline preset: SMS enabled with six-digit
// codes, two-minute expiry, three attempts, and the resend throttle the
// channel needs to stay abuse-resistant.
func DefaultConfig() Config {
	return defaultConfig()
}

// HighSecurityConfig returns a hardened preset: shorter code lifetime,
// a tighter issuance window, and latency histograms enabled.
func HighSecurityConfig() Config {
	cfg := defaultConfig()
	cfg.SMS.CodeTTL = 90 * time.Second
	cfg.SMS.MinResendInterval = 3 * time.Minute
	cfg.SMS.MaxSendsPerWindow = 3
	cfg.SMS.VerifiedTTL = 30 * time.Minute
	cfg.Email.CodeLength = 8
	cfg.Email.CodeAlphabet = AlphanumericAlphabet
	cfg.Email.MaxAttempts = 3
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if len(cfg.Receipt.PrivateKey) > 0 {
		out.Receipt.PrivateKey = append([]byte(nil), cfg.Receipt.PrivateKey...)
	}
	if len(cfg.Receipt.PublicKey) > 0 {
		out.Receipt.PublicKey = append([]byte(nil), cfg.Receipt.PublicKey...)
	}
	return out
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if !c.SMS.Enabled && !c.Email.Enabled {
		return errors.New("at least one channel must be enabled")
	}

	if c.SMS.Enabled {
		if err := validateChannel("SMS", c.SMS); err != nil {
			return err
		}
	}
	if c.Email.Enabled {
		if err := validateChannel("Email", c.Email); err != nil {
			return err
		}
	}

	// Delivery
	if c.Delivery.SendTimeout <= 0 {
		return errors.New("Delivery SendTimeout must be > 0")
	}

	// Store
	if strings.TrimSpace(c.Store.RedisPrefix) == "" {
		return errors.New("Store RedisPrefix must not be empty")
	}
	if strings.ContainsAny(c.Store.RedisPrefix, ": ") {
		return errors.New("Store RedisPrefix must not contain ':' or spaces")
	}

	// Receipt
	if c.Receipt.Enabled {
		if c.Receipt.ReceiptTTL <= 0 {
			return errors.New("Receipt ReceiptTTL must be > 0 when receipts are enabled")
		}
		if len(c.Receipt.PrivateKey) == 0 || len(c.Receipt.PublicKey) == 0 {
			return errors.New("Receipt requires an ed25519 key pair when enabled")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}

func validateChannel(name string, cfg ChannelConfig) error {
	if cfg.CodeLength < 4 || cfg.CodeLength > 12 {
		return errors.New(name + " CodeLength must be between 4 and 12")
	}
	if len(cfg.CodeAlphabet) < 2 {
		return errors.New(name + " CodeAlphabet must have at least 2 characters")
	}
	if hasDuplicateChars(cfg.CodeAlphabet) {
		return errors.New(name + " CodeAlphabet must not contain duplicate characters")
	}
	if cfg.CodeTTL <= 0 {
		return errors.New(name + " CodeTTL must be > 0")
	}
	if cfg.VerifiedTTL < cfg.CodeTTL {
		return errors.New(name + " VerifiedTTL must be >= CodeTTL")
	}
	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > 10 {
		return errors.New(name + " MaxAttempts must be between 1 and 10")
	}
	if cfg.MinResendInterval < 0 {
		return errors.New(name + " MinResendInterval must be >= 0")
	}
	if cfg.MaxSendsPerWindow <= 0 {
		return errors.New(name + " MaxSendsPerWindow must be > 0")
	}
	if cfg.Window < cfg.MinResendInterval {
		return errors.New(name + " Window must be >= MinResendInterval")
	}
	if strings.Count(cfg.MessageTemplate, "%s") != 1 {
		return errors.New(name + " MessageTemplate must contain exactly one %s placeholder")
	}
	switch cfg.TokenFormat {
	case TokenOpaque, TokenUUID:
		// valid
	default:
		return errors.New(name + " TokenFormat is invalid")
	}
	return nil
}

func hasDuplicateChars(s string) bool {
	seen := make(map[rune]struct{}, len(s))
	for _, r := range s {
		if _, ok := seen[r]; ok {
			return true
		}
		seen[r] = struct{}{}
	}
	return false
}
