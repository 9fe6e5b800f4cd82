package domain

import "context"

// Deduction 是一次条件扣减：只有当行版本仍然等于 Version 时才允许生效。
type Deduction struct {
	BookID   int64
	Quantity int
	Version  int64
}

// StockRepository 定义了库存行的持久化接口。
type StockRepository interface {
	FindByBookID(ctx context.Context, bookID int64) (*Stock, error)

	// FindByBookIDs 批量读取库存行快照；没有库存行的书目从结果中省略。
	FindByBookIDs(ctx context.Context, bookIDs []int64) (map[int64]*Stock, error)

	Create(ctx context.Context, stock *Stock) error
	Delete(ctx context.Context, bookID int64) error

	// DeductBatch 在一个事务里对每一行做版本条件扣减。
	// 任何一行条件落空都回滚整个事务并返回 ErrVersionConflict，
	// 保证多本书的扣减要么全部成立、要么一行都不动。
	DeductBatch(ctx context.Context, deductions []Deduction) error

	// Restock 原子加量（版本同样递增），补货流程只增不减。
	Restock(ctx context.Context, bookID int64, quantity int) error
}
