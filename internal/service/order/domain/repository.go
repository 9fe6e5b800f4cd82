package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// Save 保存订单；新订单在这里获得数据库分配的 ID。
	Save(ctx context.Context, order *Order) error

	// FindByID 查找订单；不存在或已软删除均返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id int64) (*Order, error)

	// FindByUserID 列出某个用户的订单（不含已软删除的）。
	FindByUserID(ctx context.Context, userID int64) ([]*Order, error)

	// UpdateStatus 以条件写持久化状态流转：只有当行状态仍是 from 时
	// 才写入 to，并发流转先提交会让条件落空，返回 ErrConcurrentTransition。
	UpdateStatus(ctx context.Context, id int64, from, to Status) error

	// SoftDelete 把订单标记为删除并从默认读取中排除。
	// 只在扣减失败回滚临时订单行时使用，订单永远不会被物理删除。
	SoftDelete(ctx context.Context, id int64) error
}
