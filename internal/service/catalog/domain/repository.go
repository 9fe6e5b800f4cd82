package domain

import "context"

// BookRepository 定义了目录的持久化接口，由基础设施层实现。
type BookRepository interface {
	FindByID(ctx context.Context, id int64) (*Book, error)

	// FindPricesByIDs 批量查询单价；不存在的 ID 直接从结果中省略。
	FindPricesByIDs(ctx context.Context, ids []int64) (map[int64]float64, error)

	// UpdatePrice 调整一本书的价格（运营后台使用）。
	UpdatePrice(ctx context.Context, id int64, price float64) error
}
