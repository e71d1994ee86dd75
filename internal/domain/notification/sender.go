// Package notification defines the push notification port.
package notification

import "context"

// Sender delivers a single best-effort push notification to one device.
// Delivery failures are returned to the caller.
type Sender interface {
	Send(ctx context.Context, deviceToken, title, body string) error
}
