package interfaces

import "context"

// Oracle sends a system instruction plus a serialized payload to an external
// prediction service and returns its free-text reply.
type Oracle interface {
	Ask(ctx context.Context, system, payload string) (string, error)
}
