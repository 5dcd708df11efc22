package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

const DefaultTopic = "cartsync.notifications"

// Event is the payload published for each rejection.
type Event struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Operation string    `json:"operation"`
	Reason    string    `json:"reason"`
	ProductID int64     `json:"product_id"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes rejections to a topic keyed by product id.
type KafkaNotifier struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaWriter returns an async writer for brokersCSV. Delivery errors
// are reported to logger.
func NewKafkaWriter(brokersCSV, topic string, logger *slog.Logger) *kafka.Writer {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if topic == "" {
		topic = DefaultTopic
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				logger.Error("notification delivery failed",
					slog.Int("messages", len(msgs)), slog.Any("err", err))
			}
		},
	}
}

func NewKafkaNotifier(writer messageWriter, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, logger: logger}
}

func (n *KafkaNotifier) Notify(ctx context.Context, note domain.Notification) {
	evt := Event{
		EventID:   note.ID,
		Type:      "cart.operation_rejected",
		Operation: string(note.Operation),
		Reason:    string(note.Reason),
		ProductID: note.ProductID,
		Message:   Message(note.Operation, note.Reason),
		At:        note.At,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		n.logger.Error("encode notification", slog.Any("err", err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(note.ProductID, 10)),
		Value: data,
		Time:  note.At,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Error("publish notification",
			slog.String("notification_id", note.ID), slog.Any("err", err))
	}
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
