package order

import (
	"crypto/rand"
	"crypto/sha1"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the length of the human-facing order code.
const CodeLength = 9

// NewCode returns a short base36 order code derived from the current time and
// random bytes. Collision resistance is practical, not guaranteed; the orders
// table enforces uniqueness and callers retry on conflict.
func NewCode() string {
	var nonce [8]byte
	_, _ = rand.Read(nonce[:])

	sum := sha1.Sum([]byte(fmt.Sprintf("%d-%x", time.Now().UnixNano(), nonce)))

	code := new(big.Int).SetBytes(sum[:]).Text(36)
	if len(code) > CodeLength {
		code = code[:CodeLength]
	}
	return code
}
