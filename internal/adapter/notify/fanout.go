package notify

import (
	"context"

	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/port"
)

// Fanout hands every notification to each of its sinks in order.
type Fanout []port.Notifier

func (f Fanout) Notify(ctx context.Context, note domain.Notification) {
	for _, n := range f {
		n.Notify(ctx, note)
	}
}
