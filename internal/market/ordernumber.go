package market

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewOrderNumber builds a human-readable order identifier:
// ORD-<unix-millis>-<12 hex chars>. The suffix is 48 bits of crypto/rand,
// so two calls within the same millisecond still do not collide in
// practice; the writer retries on a detected conflict anyway.
func NewOrderNumber() string {
	var suffix [6]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix[:]))
}
