package port

import "context"

// PlacementPolicy 是可配置的下单策略（如单笔数量上限）。
// 在任何远程调用之前评估，不通过的请求按验证错误处理。
type PlacementPolicy interface {
	Allow(ctx context.Context, userID int64, items map[int64]int) error
}
