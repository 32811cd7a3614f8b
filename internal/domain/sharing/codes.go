package sharing

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

// NewShareCode generates a random share code of the given length from an
// unambiguous alphanumeric alphabet. Length below MinShareCodeLength is an
// error; the code is the primary capability secret.
func NewShareCode(length int) (string, error) {
	if length < MinShareCodeLength {
		return "", fmt.Errorf("share code length %d below minimum %d", length, MinShareCodeLength)
	}
	return randomCode(length)
}

// NewExtractCode generates the short secondary secret. Four characters is a
// weak factor only and is never the sole gate.
func NewExtractCode() (string, error) {
	return randomCode(ExtractCodeLength)
}

func randomCode(length int) (string, error) {
	// rand.Int keeps the draw uniform; indexing raw bytes modulo the
	// alphabet size would skew the low indexes (256 % 56 != 0).
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
