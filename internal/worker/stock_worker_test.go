package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/metrics"
	"github.com/flicky/storefront-api/internal/model"
)

type fakeAck struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAck) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAck) Reject(uint64, bool) error { return nil }

type fakeStock struct {
	stock map[primitive.ObjectID]int
	err   error
	calls int
}

func (s *fakeStock) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	if s.stock[id] < qty {
		return false, nil
	}
	s.stock[id] -= qty
	return true, nil
}

type fakeMarkers struct {
	marks   map[string]bool
	deleted []string
	seenErr error
}

func newFakeMarkers() *fakeMarkers { return &fakeMarkers{marks: map[string]bool{}} }

func (m *fakeMarkers) Seen(_ context.Context, key string) (bool, error) {
	if m.seenErr != nil {
		return false, m.seenErr
	}
	return m.marks[key], nil
}

func (m *fakeMarkers) Mark(_ context.Context, key string, _ time.Duration) error {
	m.marks[key] = true
	return nil
}

func (m *fakeMarkers) Delete(_ context.Context, keys ...string) error {
	m.deleted = append(m.deleted, keys...)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }

func delivery(t *testing.T, ack *fakeAck, adj model.StockAdjustment, redelivered bool) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(adj)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body, Redelivered: redelivered}
}

func TestStockWorker_AppliesOnce(t *testing.T) {
	productID := primitive.NewObjectID()
	stock := &fakeStock{stock: map[primitive.ObjectID]int{productID: 5}}
	markers := newFakeMarkers()
	w := NewStockWorker(nil, stock, markers, discard())
	adj := model.StockAdjustment{OrderID: primitive.NewObjectID(), ProductID: productID, Quantity: 2}

	applied := testutil.ToFloat64(metrics.StockReconcile.WithLabelValues("applied"))
	duplicate := testutil.ToFloat64(metrics.StockReconcile.WithLabelValues("duplicate"))

	first := &fakeAck{}
	w.processMessage(context.Background(), delivery(t, first, adj, false))
	assert.Equal(t, 1, first.acked)
	assert.Equal(t, 3, stock.stock[productID])
	assert.True(t, markers.marks[idempotencyKey(adj)])
	assert.Equal(t, []string{cache.ProductKey(productID.Hex())}, markers.deleted)

	second := &fakeAck{}
	w.processMessage(context.Background(), delivery(t, second, adj, true))
	assert.Equal(t, 1, second.acked)
	assert.Equal(t, 3, stock.stock[productID])
	assert.Equal(t, 1, stock.calls)

	assert.Equal(t, applied+1, testutil.ToFloat64(metrics.StockReconcile.WithLabelValues("applied")))
	assert.Equal(t, duplicate+1, testutil.ToFloat64(metrics.StockReconcile.WithLabelValues("duplicate")))
}

func TestStockWorker_Failures(t *testing.T) {
	productID := primitive.NewObjectID()
	adj := model.StockAdjustment{OrderID: primitive.NewObjectID(), ProductID: productID, Quantity: 2}

	tests := []struct {
		name        string
		stock       *fakeStock
		seenErr     error
		body        []byte
		redelivered bool
		wantRequeue bool
	}{
		{"malformed body", &fakeStock{}, nil, []byte("{"), false, false},
		{"zero quantity", &fakeStock{}, nil, []byte(`{"quantity":0}`), false, false},
		{"marker store down", &fakeStock{}, errors.New("redis down"), nil, false, true},
		{"store error first delivery", &fakeStock{err: errors.New("mongo down")}, nil, nil, false, true},
		{"store error redelivered", &fakeStock{err: errors.New("mongo down")}, nil, nil, true, false},
		{"insufficient stock", &fakeStock{stock: map[primitive.ObjectID]int{productID: 1}}, nil, nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markers := newFakeMarkers()
			markers.seenErr = tt.seenErr
			w := NewStockWorker(nil, tt.stock, markers, discard())

			ack := &fakeAck{}
			msg := delivery(t, ack, adj, tt.redelivered)
			if tt.body != nil {
				msg.Body = tt.body
			}
			w.processMessage(context.Background(), msg)

			assert.Zero(t, ack.acked)
			assert.Equal(t, 1, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
			assert.Empty(t, markers.marks)
		})
	}
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
	queue      string
}

func (c *fakeConsumer) Consume(queue, _ string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	if autoAck {
		return nil, errors.New("worker must ack manually")
	}
	c.queue = queue
	return c.deliveries, nil
}

func TestStockWorker_StartStop(t *testing.T) {
	productID := primitive.NewObjectID()
	stock := &fakeStock{stock: map[primitive.ObjectID]int{productID: 5}}
	ch := &fakeConsumer{deliveries: make(chan amqp.Delivery)}
	w := NewStockWorker(ch, stock, newFakeMarkers(), discard())

	require.NoError(t, w.Start(context.Background()))
	assert.Equal(t, stockQueueName, ch.queue)

	ack := &fakeAck{}
	ch.deliveries <- delivery(t, ack, model.StockAdjustment{OrderID: primitive.NewObjectID(), ProductID: productID, Quantity: 1}, false)
	w.Stop()

	ack.mu.Lock()
	defer ack.mu.Unlock()
	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 4, stock.stock[productID])
}

type recordingChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
}

func (c *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, exchange+"/"+key)
	c.published = append(c.published, msg)
	return nil
}

func TestPublisher_PublishStockAdjustments(t *testing.T) {
	ch := &recordingChannel{}
	p := NewPublisher(ch)
	orderID := primitive.NewObjectID()
	adjustments := []model.StockAdjustment{
		{OrderID: orderID, ProductID: primitive.NewObjectID(), Quantity: 1},
		{OrderID: orderID, ProductID: primitive.NewObjectID(), Quantity: 3},
	}

	require.NoError(t, p.PublishStockAdjustments(context.Background(), adjustments))
	require.Len(t, ch.published, 2)
	assert.Equal(t, []string{"/" + stockQueueName, "/" + stockQueueName}, ch.keys)
	assert.NotEqual(t, ch.published[0].MessageId, ch.published[1].MessageId)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var got model.StockAdjustment
	require.NoError(t, json.Unmarshal(ch.published[1].Body, &got))
	assert.Equal(t, adjustments[1], got)

	ch.err = errors.New("channel closed")
	assert.Error(t, p.PublishStockAdjustments(context.Background(), adjustments))
}
