package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

// NewNumber mints a human-facing order number such as LIB-20260829-4F2A1C.
// The random tail keeps numbers unguessable while the date prefix keeps
// support lookups easy.
func NewNumber(now time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// the clock so order creation cannot be blocked.
		return fmt.Sprintf("LIB-%s-%06X", now.UTC().Format("20060102"), now.UnixNano()&0xFFFFFF)
	}
	return fmt.Sprintf("LIB-%s-%02X%02X%02X", now.UTC().Format("20060102"), buf[0], buf[1], buf[2])
}
