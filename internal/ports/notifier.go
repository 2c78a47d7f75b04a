package ports

import "context"

// Notifier delivers human-readable decision lines to a recipient. Delivery
// failure must never abort a simulation — callers log and continue.
type Notifier interface {
	Notify(ctx context.Context, recipient string, decisions []string) error
}
