package domain

import "time"

// 订单事件类型，发往 order-events topic。
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent 是订单侧对外广播的事件载体。
// 实时推送通道和下游订阅方都消费同一种信封。
type OrderEvent struct {
	EventID     string    `json:"eventId"`
	Type        string    `json:"type"`
	OrderID     int64     `json:"orderId"`
	UserID      int64     `json:"userId"`
	Status      Status    `json:"status"`
	PrevStatus  Status    `json:"prevStatus,omitempty"`
	TotalAmount float64   `json:"totalAmount,omitempty"`
	At          time.Time `json:"at"`
}
