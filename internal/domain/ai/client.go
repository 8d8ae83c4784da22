// internal/domain/ai/client.go
package ai

import (
	"context"
	"errors"
)

// ErrModelNotFound signals that the completion service rejected the
// requested model id. Callers retry exactly once against the configured
// default model, then fall back.
var ErrModelNotFound = errors.New("ai model not recognized")

// Client defines an interface for single-turn AI completions.
// Implementations must be zero-temperature and request JSON-only output;
// the caller bounds each call with a context deadline.
type Client interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}
