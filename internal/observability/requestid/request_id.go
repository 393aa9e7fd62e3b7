package requestid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type ctxKey struct{}

// NewRequestID returns an ID of the form req_<unix-millis>_<hex>.
// The millisecond prefix keeps IDs roughly sortable in log output,
// which makes correlating a request across log lines easier than
// with a plain random UUID.
func NewRequestID() string {
	ts := time.Now().UnixMilli()

	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		// Timestamp-only IDs can collide under load but still
		// identify the request in most traces.
		return fmt.Sprintf("req_%d", ts)
	}
	return fmt.Sprintf("req_%d_%s", ts, hex.EncodeToString(buf))
}

// GetRequestID returns the request ID stored in ctx, or "" when absent.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// SetRequestID returns a child context carrying id.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}
