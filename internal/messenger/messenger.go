// Package messenger abstracts the external text-messaging capability.
package messenger

import "context"

// Messenger delivers one message to one contact. Implementations report
// only success or failure; delivery-channel details (e.g. an OS-level SMS
// fallback) are not observable by callers.
type Messenger interface {
	Send(ctx context.Context, text, contact string) error
}
