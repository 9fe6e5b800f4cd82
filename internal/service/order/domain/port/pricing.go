package port

import "context"

// PricingService 是定价协作方的出站端口。
type PricingService interface {
	// GetPrices 批量取单价；目录里没有的书直接从结果中省略，
	// 由编排方把缺价判定为不可成单。
	GetPrices(ctx context.Context, bookIDs []int64) (map[int64]float64, error)
}
