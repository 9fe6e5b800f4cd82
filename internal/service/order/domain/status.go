package domain

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusPending   Status = "PENDING"   // 下单成功、库存已扣，等待发货
	StatusShipped   Status = "SHIPPED"   // 已发货
	StatusDelivered Status = "DELIVERED" // 已送达，终态
	StatusCancelled Status = "CANCELLED" // 已取消，终态
)

// validNext 是唯一的状态流转依据：只允许单步向前推进，
// 发货之后不允许取消，终态之后不允许任何流转。
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition 判断 from → to 是否是合法流转。
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// IsValid 判断是否是已知状态。
func (s Status) IsValid() bool {
	_, ok := validNext[s]
	return ok
}
