package notify

import (
	"context"
	"log/slog"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

// LogNotifier writes each rejection as a structured log line.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note domain.Notification) {
	n.logger.LogAttrs(ctx, slog.LevelWarn, Message(note.Operation, note.Reason),
		slog.String("notification_id", note.ID),
		slog.String("op", string(note.Operation)),
		slog.String("reason", string(note.Reason)),
		slog.Int64("product_id", note.ProductID),
	)
}
