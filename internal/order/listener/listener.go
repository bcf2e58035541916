// Package listener consumes order lifecycle events and drives the stock
// decrement when an order starts fulfilling.
package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/altastore/stock-service/internal/product"
	"github.com/altastore/stock-service/pkg/logger"
)

// Consumer is the message source; satisfied by the Kafka consumer.
type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type OrderListener struct {
	consumer Consumer
	catalog  product.UseCase
	logger   logger.Logger
}

func NewOrderListener(consumer Consumer, catalog product.UseCase, log logger.Logger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		catalog:  catalog,
		logger:   log,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("starting order fulfillment listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping order fulfillment listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read order event", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			l.ProcessMessage(ctx, msg.Value)
		}
	}
}

type OrderStatusEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID             string             `json:"id"`
	PreviousStatus string             `json:"previous_status"`
	Status         string             `json:"status"`
	Items          []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// ProcessMessage decrements stock for each line item of an order entering a
// fulfilling state. One item failing does not stop the rest; the failure is
// logged and the order proceeds. That mismatch is deliberate and visible in
// the sync failure stream.
func (l *OrderListener) ProcessMessage(ctx context.Context, value []byte) {
	var event OrderStatusEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal order event", zap.Error(err))
		return
	}

	if event.EventType != "OrderStatusChanged" {
		return
	}
	if !isFulfillmentTransition(event.Payload.PreviousStatus, event.Payload.Status) {
		return
	}

	l.logger.Info("processing order fulfillment",
		zap.String("order_id", event.Payload.ID),
		zap.String("status", event.Payload.Status),
		zap.Int("items", len(event.Payload.Items)),
	)

	for _, item := range event.Payload.Items {
		if item.Quantity <= 0 {
			continue
		}
		_, err := l.catalog.AdjustStock(ctx, item.ProductID, -item.Quantity, event.Payload.ID)
		if err != nil {
			l.logger.Error("failed to decrement stock for order item",
				zap.String("order_id", event.Payload.ID),
				zap.String("product_id", item.ProductID),
				zap.Int64("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

func isFulfillmentTransition(previous, current string) bool {
	if previous != "pending" {
		return false
	}
	return current == "processing" || current == "completed"
}
