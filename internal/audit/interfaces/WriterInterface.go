package interfaces

import (
	"context"
	"flairhq/internal/models"
)

// WriterInterface is the best-effort audit channel. Record never blocks
// and never reports failure to the caller.
type WriterInterface interface {
	Record(events ...models.ModerationEvent)
	Flush(ctx context.Context) error
	Close()
}
