package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"bookstore/internal/pkg/mq"
	"bookstore/internal/service/order/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// OrderEventsKafkaAdapter 实现了 port.OrderEventProducer。
// 以 orderId 作为分区键，保证同一笔订单的事件有序。
type OrderEventsKafkaAdapter struct {
	writer *kafka.Writer
}

func NewOrderEventsKafkaAdapter(writer *kafka.Writer) *OrderEventsKafkaAdapter {
	return &OrderEventsKafkaAdapter{writer: writer}
}

func (a *OrderEventsKafkaAdapter) PublishPlaced(ctx context.Context, order *domain.Order) error {
	return a.publish(ctx, domain.OrderEvent{
		EventID:     uuid.New().String(),
		Type:        domain.EventOrderPlaced,
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		At:          time.Now().UTC(),
	})
}

func (a *OrderEventsKafkaAdapter) PublishStatusChanged(ctx context.Context, order *domain.Order, prev domain.Status) error {
	return a.publish(ctx, domain.OrderEvent{
		EventID:    uuid.New().String(),
		Type:       domain.EventOrderStatusChanged,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		PrevStatus: prev,
		At:         time.Now().UTC(),
	})
}

func (a *OrderEventsKafkaAdapter) publish(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := []byte(strconv.FormatInt(event.OrderID, 10))
	return mq.ProduceMessage(ctx, a.writer, key, payload)
}
