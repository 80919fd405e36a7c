// Package worker applies stock decrements that order placement could not
// apply inline. Placement publishes them to RabbitMQ; the worker consumes
// them, guarded by a Redis idempotency marker per order and product.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/flicky/storefront-api/internal/cache"
	"github.com/flicky/storefront-api/internal/metrics"
	"github.com/flicky/storefront-api/internal/model"
)

const (
	stockQueueName = "stock.adjustments"
	dlxExchange    = "stock.dlx"
	dlqQueueName   = "stock.adjustments.dlq"
	idempotencyTTL = 24 * time.Hour
)

var errInsufficientStock = errors.New("insufficient stock")

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, stockQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(stockQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": stockQueueName,
	}); err != nil {
		return fmt.Errorf("declare stock queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// StockStore is the slice of the product repository the worker needs.
type StockStore interface {
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
}

// MarkerStore holds idempotency markers and the product cache.
type MarkerStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type StockWorker struct {
	channel  consumer
	products StockStore
	markers  MarkerStore
	log      *slog.Logger
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewStockWorker(ch consumer, products StockStore, markers MarkerStore, log *slog.Logger) *StockWorker {
	return &StockWorker{
		channel:  ch,
		products: products,
		markers:  markers,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (w *StockWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(stockQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("stock worker started")
	return nil
}

// Stop ends consumption and waits for the message in hand.
func (w *StockWorker) Stop() {
	close(w.done)
	w.wg.Wait()
}

func idempotencyKey(adj model.StockAdjustment) string {
	return "stock_adjusted:" + adj.OrderID.Hex() + ":" + adj.ProductID.Hex()
}

func (w *StockWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var adj model.StockAdjustment
	if err := json.Unmarshal(msg.Body, &adj); err != nil || adj.Quantity < 1 {
		w.log.Error("decode stock adjustment", "error", err, "message_id", msg.MessageId)
		metrics.StockReconcile.WithLabelValues("failed").Inc()
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", adj.OrderID.Hex(), "product_id", adj.ProductID.Hex(), "qty", adj.Quantity)
	key := idempotencyKey(adj)

	seen, err := w.markers.Seen(ctx, key)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("stock adjustment already applied, skipping")
		metrics.StockReconcile.WithLabelValues("duplicate").Inc()
		_ = msg.Ack(false)
		return
	}

	if err := w.apply(ctx, adj); err != nil {
		log.Error("apply stock adjustment", "error", err, "redelivered", msg.Redelivered)
		metrics.StockReconcile.WithLabelValues("failed").Inc()
		// One retry for store errors, then the DLQ.
		requeue := !msg.Redelivered && !errors.Is(err, errInsufficientStock)
		_ = msg.Nack(false, requeue)
		return
	}

	if err := w.markers.Mark(ctx, key, idempotencyTTL); err != nil {
		log.Error("set idempotency key", "error", err)
	}
	if err := w.markers.Delete(ctx, cache.ProductKey(adj.ProductID.Hex())); err != nil {
		log.Warn("invalidate product cache", "error", err)
	}

	metrics.StockReconcile.WithLabelValues("applied").Inc()
	_ = msg.Ack(false)
	log.Info("stock adjustment applied")
}

func (w *StockWorker) apply(ctx context.Context, adj model.StockAdjustment) error {
	ok, err := w.products.DecrementStock(ctx, adj.ProductID, adj.Quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if !ok {
		return errInsufficientStock
	}
	return nil
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher enqueues stock adjustments on the reconciliation queue.
type Publisher struct {
	channel publisher
}

func NewPublisher(ch publisher) *Publisher {
	return &Publisher{channel: ch}
}

func (p *Publisher) PublishStockAdjustments(ctx context.Context, adjustments []model.StockAdjustment) error {
	for _, adj := range adjustments {
		body, err := json.Marshal(adj)
		if err != nil {
			return fmt.Errorf("encode stock adjustment: %w", err)
		}
		if err := p.channel.PublishWithContext(ctx, "", stockQueueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		}); err != nil {
			return fmt.Errorf("publish stock adjustment: %w", err)
		}
	}
	return nil
}
