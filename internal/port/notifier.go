package port

import (
	"context"
	"time"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

type Notifier interface {
	// Notify delivers a rejection to the user. Fire-and-forget: delivery
	// problems are the notifier's concern, never the caller's.
	Notify(ctx context.Context, n domain.Notification)
}

type OutcomeRecorder interface {
	// RecordOutcome observes the terminal state of one cart operation
	RecordOutcome(op domain.Operation, outcome domain.Outcome, elapsed time.Duration)
}
