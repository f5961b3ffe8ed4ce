package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq atomic.Uint64

// NewID returns a unique connection identifier: 24 hex characters of
// entropy, or a timestamped sequence number if crypto/rand fails.
func NewID() string {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err == nil {
		return hex.EncodeToString(buf[:])
	}
	return fmt.Sprintf("conn-%d-%d", time.Now().UnixNano(), idSeq.Add(1))
}
