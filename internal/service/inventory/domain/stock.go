package domain

import (
	"errors"
	"fmt"
)

// DefaultThreshold 是新上架库存行的默认低库存水位。
const DefaultThreshold = 10

var (
	// ErrStockNotFound 表示请求的书目没有库存行。
	ErrStockNotFound = errors.New("stock record not found")

	// ErrVersionConflict 表示条件写因为版本号变化而落空，
	// 说明读和写之间有并发扣减提交了。
	ErrVersionConflict = errors.New("stock version conflict")

	// ErrStockExists 表示上架时库存行已存在。
	ErrStockExists = errors.New("stock record already exists")
)

// InsufficientStockError 表示某本书的现货小于请求量。
type InsufficientStockError struct {
	BookID    int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %d: available %d, requested %d", e.BookID, e.Available, e.Requested)
}

// Stock 是一本书的库存行。Version 在每次写入时加一，
// 作为条件写的比较依据，避免并发扣减互相覆盖。
type Stock struct {
	BookID    int64
	Quantity  int
	Threshold int
	Version   int64
}

// CanDeduct 判断现货是否足够。只是快照判断，最终以条件写为准。
func (s *Stock) CanDeduct(quantity int) bool {
	return s.Quantity >= quantity
}

// IsLow 判断扣减后是否已经触达低库存水位。
func (s *Stock) IsLow() bool {
	return s.Quantity <= s.Threshold
}
