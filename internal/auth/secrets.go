package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	// ActivationCodeLength is the number of symbols in an activation code.
	ActivationCodeLength = 8
	activationAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	invitationTokenBytes = 32
)

// NewInvitationToken returns an opaque URL-safe token from a CSPRNG.
func NewInvitationToken() (string, error) {
	buf := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewActivationCode returns an 8-character code over the 62-symbol alphanumeric alphabet.
func NewActivationCode() (string, error) {
	out := make([]byte, ActivationCodeLength)
	max := big.NewInt(int64(len(activationAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random index: %w", err)
		}
		out[i] = activationAlphabet[n.Int64()]
	}
	return string(out), nil
}
