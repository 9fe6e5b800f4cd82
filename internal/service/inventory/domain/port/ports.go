package port

import (
	"context"

	"bookstore/internal/service/inventory/domain"
)

// SnapshotCache 是供咨询式可用性查询使用的库存快照缓存。
// 读到的数量允许滞后，权威判断永远在条件写那一步。
type SnapshotCache interface {
	// GetQuantities 读取缓存中的数量；未命中的书目从结果中省略。
	GetQuantities(ctx context.Context, bookIDs []int64) (map[int64]int, error)

	// SetQuantities 回填最新数量。
	SetQuantities(ctx context.Context, quantities map[int64]int) error

	// Invalidate 删除指定书目的缓存。
	Invalidate(ctx context.Context, bookIDs ...int64) error
}

// AdminLocker 串行化跨实例的库存行上架/下架操作。
type AdminLocker interface {
	WithLock(resource string, fn func() error) error
}

// LowStockNotifier 在库存触达低水位后对外广播。
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, stock *domain.Stock) error
}
