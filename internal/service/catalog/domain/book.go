package domain

import "errors"

var ErrBookNotFound = errors.New("book not found")

// Book 是目录中的一本书。价格由目录独立维护，
// 订单侧在下单时取价并冻结，之后目录改价不影响已下的订单。
type Book struct {
	ID       int64
	Title    string
	Author   string
	Category string
	Price    float64
}
