package wallet

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet omits look-alike characters (0/O, 1/I/L) so codes survive
// being read over the phone.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 10
)

// NewCode generates a random public wallet code. Uniqueness is enforced by the
// store's unique constraint; collisions at this length are not expected.
func NewCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate wallet code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
