package infrastructure

import (
	"gorm.io/gorm"

	"bookstore/internal/service/order/domain"
)

// OrderModel 对应数据库中的 orders 表。
// gorm.Model 的 DeletedAt 承担软删除标记：被回滚的临时订单行
// 和被删除的订单都只打标记，默认查询自动排除，从不物理删除。
type OrderModel struct {
	gorm.Model
	UserID      int64         `gorm:"index"`
	Items       map[int64]int `gorm:"serializer:json"`
	TotalAmount float64       `gorm:"type:decimal(10,2)"`
	Status      domain.Status `gorm:"type:varchar(20);index"`
}

func (OrderModel) TableName() string {
	return "orders"
}

func toDomainOrder(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:          int64(m.ID),
		UserID:      m.UserID,
		Items:       m.Items,
		TotalAmount: m.TotalAmount,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
