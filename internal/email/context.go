package email

import (
	"context"
	"time"
)

// sendContext bounds one background send. It keeps the request's values,
// so the send logs with the request id, but not its cancellation: the
// handler has usually returned before the email goes out.
func sendContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
