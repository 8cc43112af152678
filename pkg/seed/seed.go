// Package seed produces high-entropy uniqueness tokens used to bias text
// generation away from repeating prior output.
package seed

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Length of a seed token in hex characters.
const Length = 16

// New returns a fresh opaque seed token. Every call produces a different
// value even within the same nanosecond.
func New() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	combined := fmt.Sprintf("%s-%x-%s", time.Now().UTC().Format(time.RFC3339Nano), buf, ulid.Make())
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])[:Length]
}

// Pick derives a stable index in [0, n) from a seed and a label, so that the
// same seed always selects the same option for a given label while different
// seeds diverge.
func Pick(seed, label string, n int) int {
	if n <= 0 {
		return 0
	}
	sum := sha256.Sum256([]byte(seed + "|" + label))
	v := uint64(0)
	for _, b := range sum[:8] {
		v = v<<8 | uint64(b)
	}
	return int(v % uint64(n))
}
