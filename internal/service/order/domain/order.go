package domain

import (
	"time"
)

// Order 是订单聚合的根实体。
// TotalAmount 在下单时按当时的单价计算并冻结，之后目录改价不会回写。
type Order struct {
	ID          int64
	UserID      int64
	Items       map[int64]int // bookID -> 数量
	TotalAmount float64
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrder 工厂函数：校验条目后构造一个待持久化的新订单。
// 校验在任何远程调用之前进行，坏请求不消耗下游资源。
func NewOrder(userID int64, items map[int64]int) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, quantity := range items {
		if quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	now := time.Now()
	return &Order{
		UserID:    userID,
		Items:     items,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Freeze 记录下单时刻的总价。只在创建流程中调用一次。
func (o *Order) Freeze(total float64) {
	o.TotalAmount = total
}

// TransitionTo 按生命周期表推进状态，非法流转原样保留当前状态。
func (o *Order) TransitionTo(target Status) error {
	if !CanTransition(o.Status, target) {
		return &InvalidTransitionError{From: o.Status, To: target}
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel 取消订单，等价于流转到 CANCELLED，受同一张表约束。
func (o *Order) Cancel() error {
	return o.TransitionTo(StatusCancelled)
}
