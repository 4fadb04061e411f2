package goVerify

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ReceiptClaims are the claims carried by a signed consumption receipt:
// the destination (subject), the channel it was verified over, and the
// consumed verification token.
type ReceiptClaims struct {
	Channel string `json:"chn"`
	TokenID string `json:"vid"`
	jwt.RegisteredClaims
}

type receiptManager struct {
	cfg     ReceiptConfig
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

func newReceiptManager(cfg ReceiptConfig) (*receiptManager, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.ReceiptTTL <= 0 {
		return nil, errors.New("invalid receipt TTL configuration")
	}

	private, err := parseEdPrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	public, err := parseEdPublicKey(cfg.PublicKey)
	if err != nil {
		return nil, err
	}

	return &receiptManager{
		cfg:     cfg,
		private: private,
		public:  public,
	}, nil
}

func (m *receiptManager) issue(token string, channel Channel, destination string, now time.Time) (string, error) {
	claims := ReceiptClaims{
		Channel: channel.String(),
		TokenID: token,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   destination,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.ReceiptTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(m.private)
}

func (m *receiptManager) parse(receipt string) (*ReceiptClaims, error) {
	parsed, err := jwt.ParseWithClaims(
		receipt,
		&ReceiptClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return m.public, nil
		},
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceiptInvalid, err)
	}

	claims, ok := parsed.Claims.(*ReceiptClaims)
	if !ok || !parsed.Valid {
		return nil, ErrReceiptInvalid
	}

	return claims, nil
}

// VerifyReceipt parses and validates a consumption receipt issued by
// [Engine.Consume]. It fails [ErrReceiptDisabled] when receipts are not
// configured and [ErrReceiptInvalid] on any signature, issuer, or expiry
// violation.
func (e *Engine) VerifyReceipt(receipt string) (*ReceiptClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.receipts == nil {
		return nil, ErrReceiptDisabled
	}
	if receipt == "" {
		return nil, ErrReceiptInvalid
	}
	return e.receipts.parse(receipt)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	switch len(key) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(key), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(key), nil
	default:
		return nil, errors.New("invalid ed25519 private key size")
	}
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) != ed25519.PublicKeySize {
		return nil, errors.New("invalid ed25519 public key size")
	}
	return ed25519.PublicKey(key), nil
}
