// Package idgen produces opaque random identifiers with a caller-supplied
// prefix, e.g. "order_K7F3…".
package idgen

import (
	"crypto/rand"
	"fmt"
)

const (
	alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultLength = 25
)

// New returns prefix followed by 25 random characters from A-Z0-9.
func New(prefix string) string {
	return NewWithLength(prefix, defaultLength)
}

// NewWithLength returns prefix followed by n random characters from A-Z0-9.
func NewWithLength(prefix string, n int) string {
	if n <= 0 {
		n = defaultLength
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand reads never fail on supported platforms.
		panic(fmt.Sprintf("idgen: read entropy: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return prefix + string(buf)
}
