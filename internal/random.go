package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"
)

type VerificationID [16]byte

func NewVerificationID() (VerificationID, error) {
	var vid VerificationID
	_, err := rand.Read(vid[:])
	return vid, err
}

func (v VerificationID) Bytes() []byte {
	return v[:]
}

func (v VerificationID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(v[:])
}

func ParseVerificationID(token string) (VerificationID, error) {
	var vid VerificationID

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return vid, err
	}
	if len(raw) != len(vid) {
		return vid, errors.New("invalid verification id size")
	}

	copy(vid[:], raw)
	return vid, nil
}

// NewCode draws length characters uniformly from alphabet using
// crypto/rand. rand.Int is unbiased for any alphabet size, so no
// rejection sampling is needed.
func NewCode(alphabet string, length int) (string, error) {
	if length < 4 || length > 12 {
		return "", errors.New("invalid code length")
	}
	chars := []rune(alphabet)
	if len(chars) < 2 {
		return "", errors.New("invalid code alphabet")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(chars)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteRune(chars[n.Int64()])
	}

	return b.String(), nil
}

func HashCode(code string) [32]byte {
	return sha256.Sum256([]byte(code))
}
