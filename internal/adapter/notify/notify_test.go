package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		op      domain.Operation
		outcome domain.Outcome
		want    string
	}{
		{domain.OperationAddItem, domain.OutcomeFailed, "Erro na adição do produto"},
		{domain.OperationRemoveItem, domain.OutcomeFailed, "Erro na remoção do produto"},
		{domain.OperationUpdateAmount, domain.OutcomeFailed, "Erro na alteração de quantidade do produto"},
		{domain.OperationAddItem, domain.OutcomeStockExceeded, "Quantidade solicitada fora de estoque"},
		{domain.OperationUpdateAmount, domain.OutcomeStockExceeded, "Quantidade solicitada fora de estoque"},
		{domain.OperationAddItem, domain.OutcomeUpdated, ""},
		{domain.OperationRemoveItem, domain.OutcomeUnchanged, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.op)+"/"+string(tt.outcome), func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.op, tt.outcome))
		})
	}
}

func sampleNotification() domain.Notification {
	return domain.Notification{
		ID:        "n-1",
		Operation: domain.OperationUpdateAmount,
		Reason:    domain.OutcomeStockExceeded,
		ProductID: 42,
		At:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	NewLogNotifier(logger).Notify(context.Background(), sampleNotification())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, MsgStockExceeded, line["msg"])
	assert.Equal(t, "n-1", line["notification_id"])
	assert.Equal(t, float64(42), line["product_id"])
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaNotifier_Publishes(t *testing.T) {
	w := &fakeWriter{}
	n := NewKafkaNotifier(w, slog.New(slog.DiscardHandler))

	n.Notify(context.Background(), sampleNotification())

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))

	var evt Event
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	assert.Equal(t, Event{
		EventID:   "n-1",
		Type:      "cart.operation_rejected",
		Operation: "update_amount",
		Reason:    "stock_exceeded",
		ProductID: 42,
		Message:   MsgStockExceeded,
		At:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}, evt)
}

func TestKafkaNotifier_WriteErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	w := &fakeWriter{err: errors.New("broker down")}
	n := NewKafkaNotifier(w, slog.New(slog.NewJSONHandler(&buf, nil)))

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), sampleNotification())
	})
	assert.Contains(t, buf.String(), "broker down")
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter(" a:9092, ,b:9092", "", slog.New(slog.DiscardHandler))
	defer w.Close()

	assert.Equal(t, DefaultTopic, w.Topic)
	assert.NotNil(t, w.Addr)
	assert.True(t, w.Async)
}

type countingNotifier struct{ n int }

func (c *countingNotifier) Notify(context.Context, domain.Notification) { c.n++ }

func TestFanout(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	Fanout{a, b}.Notify(context.Background(), sampleNotification())

	assert.Equal(t, 1, a.n)
	assert.Equal(t, 1, b.n)
}
