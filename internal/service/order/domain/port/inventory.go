package port

import "context"

// InventoryService 是库存协作方的出站端口。
type InventoryService interface {
	// CheckBulkAvailability 咨询式批量可用性查询，结果允许过期；
	// 权威的检查发生在 ReduceBulk 的条件写里。
	CheckBulkAvailability(ctx context.Context, items map[int64]int) (map[int64]bool, error)

	// ReduceBulk 整单扣减，要么全部成立、要么一行不动。
	ReduceBulk(ctx context.Context, items map[int64]int) error
}
