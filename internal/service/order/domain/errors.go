package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyOrder 表示下单请求没有任何条目。
	ErrEmptyOrder = errors.New("order must contain at least one item")

	// ErrInvalidQuantity 表示某个条目的数量不是正整数。
	ErrInvalidQuantity = errors.New("item quantity must be a positive integer")

	// ErrOrderNotFound 覆盖订单不存在和已被软删除两种情况。
	ErrOrderNotFound = errors.New("order not found")

	// ErrStockConflict 表示库存侧在并发竞争下扣减失败（重试已耗尽）。
	// 与 UnfulfillableError 区分开：这是时序竞争，换个时间重试同样的请求是合理的。
	ErrStockConflict = errors.New("stock deduction conflict")

	// ErrItemNotFound 表示扣减时发现库存台账里根本没有这一行。
	ErrItemNotFound = errors.New("inventory record not found")

	// ErrConcurrentTransition 表示条件更新落空：读和写之间
	// 有并发流转先提交了，调用方应重读最新状态再决定。
	ErrConcurrentTransition = errors.New("order status changed concurrently")
)

// InvalidTransitionError 表示一次违反生命周期表的状态变更。
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}

// UnfulfillableError 表示部分书目在核对时没有价格或没有可售库存。
// 携带具体书目 ID，让调用方知道该改请求而不是重试。
type UnfulfillableError struct {
	Unpriced    []int64
	Unavailable []int64
}

func (e *UnfulfillableError) Error() string {
	return fmt.Sprintf("order cannot be fulfilled: unpriced books %v, unavailable books %v", e.Unpriced, e.Unavailable)
}

// CollaboratorUnavailableError 表示定价或库存协作方不可达/超时/返回异常。
// 原始的传输错误封在 Err 里，不允许裸着穿透到调用方。
type CollaboratorUnavailableError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorUnavailableError) Error() string {
	return fmt.Sprintf("collaborator %s unavailable: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorUnavailableError) Unwrap() error {
	return e.Err
}

// InsufficientStockError 是库存侧在扣减时发现现货不足的回报。
// 咨询式检查说有货、扣减时说没货，是两个检查点之间被并发订单抢走了。
type InsufficientStockError struct {
	BookID    int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %d: available %d, requested %d", e.BookID, e.Available, e.Requested)
}

// PolicyViolationError 表示下单请求没有通过配置的下单策略。
type PolicyViolationError struct {
	Rule string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("order rejected by placement policy: %s", e.Rule)
}
