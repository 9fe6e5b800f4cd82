package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"bookstore/internal/pkg/mq"
	"bookstore/internal/service/inventory/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// LowStockEvent 是库存触达低水位时对外广播的事件，供补货侧订阅。
type LowStockEvent struct {
	EventID   string    `json:"eventId"`
	BookID    int64     `json:"bookId"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
	At        time.Time `json:"at"`
}

// LowStockKafkaAdapter 实现 port.LowStockNotifier。
type LowStockKafkaAdapter struct {
	writer *kafka.Writer
}

func NewLowStockKafkaAdapter(writer *kafka.Writer) *LowStockKafkaAdapter {
	return &LowStockKafkaAdapter{writer: writer}
}

func (a *LowStockKafkaAdapter) NotifyLowStock(ctx context.Context, stock *domain.Stock) error {
	event := LowStockEvent{
		EventID:   uuid.New().String(),
		BookID:    stock.BookID,
		Quantity:  stock.Quantity,
		Threshold: stock.Threshold,
		At:        time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(strconv.FormatInt(stock.BookID, 10)), payload)
}
