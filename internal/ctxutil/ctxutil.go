package ctxutil

import (
	"context"
	"time"
)

// Default budget for a single store call. A constant for now.
var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout caps ctx at the standard DB timeout, or at whatever is left
// of the parent's own deadline if that is shorter.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
