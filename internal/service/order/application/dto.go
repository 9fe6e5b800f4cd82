package application

import (
	"time"

	"bookstore/internal/service/order/domain"
)

// PlaceOrderRequest 是下单用例的输入数据
type PlaceOrderRequest struct {
	UserID int64         `json:"userId"`
	Items  map[int64]int `json:"items"` // bookID -> 数量
}

// OrderResponse 是订单在 API 边界上的表示
type OrderResponse struct {
	OrderID     int64         `json:"orderId"`
	UserID      int64         `json:"userId"`
	Items       map[int64]int `json:"items"`
	TotalAmount float64       `json:"totalAmount"`
	Status      domain.Status `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// ToOrderResponse 把领域实体转换为 API 表示
func ToOrderResponse(order *domain.Order) *OrderResponse {
	return &OrderResponse{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
	}
}
