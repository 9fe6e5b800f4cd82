package port

import (
	"context"

	"bookstore/internal/service/order/domain"
)

// OrderEventProducer 把订单侧的领域事件发布出去。
// 发布失败不回滚业务，只记录告警。
type OrderEventProducer interface {
	PublishPlaced(ctx context.Context, order *domain.Order) error
	PublishStatusChanged(ctx context.Context, order *domain.Order, prev domain.Status) error
}
