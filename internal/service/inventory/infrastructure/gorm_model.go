package infrastructure

import (
	"gorm.io/gorm"

	"bookstore/internal/service/inventory/domain"
)

// StockModel 对应数据库中的 stock 表，每本书一行。
type StockModel struct {
	gorm.Model
	BookID    int64 `gorm:"uniqueIndex"`
	Quantity  int
	Threshold int   `gorm:"default:10"`
	Version   int64 `gorm:"default:0"`
}

func (StockModel) TableName() string {
	return "stock"
}

func toDomainStock(m *StockModel) *domain.Stock {
	return &domain.Stock{
		BookID:    m.BookID,
		Quantity:  m.Quantity,
		Threshold: m.Threshold,
		Version:   m.Version,
	}
}
