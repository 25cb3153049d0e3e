//
//  internal/requestinfo/requestinfo.go
//
//  Per-request metadata for the admin API: client IP, caller identity,
//  chi request id, and timing.  The struct is inert and safe to log or
//  JSON-encode.
//

package requestinfo

import (
	"context"
	"net"
	"time"
)

// RequestInfo is attached to the request context by Enrich.
type RequestInfo struct {
	IP        net.IP    // left-most forwarded address, else RemoteAddr
	RequestID string    // chi middleware.RequestID value, may be empty
	Method    string    // HTTP method
	Path      string    // URL path without query
	Timestamp time.Time // UTC arrival time
}

type ctxKey struct{}

// FromContext returns the RequestInfo stored by Enrich, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	info, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return info
}

// Since reports the elapsed time since arrival.
func (i *RequestInfo) Since() time.Duration {
	return time.Since(i.Timestamp)
}
