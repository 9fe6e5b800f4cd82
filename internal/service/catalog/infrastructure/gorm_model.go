package infrastructure

import (
	"gorm.io/gorm"

	"bookstore/internal/service/catalog/domain"
)

// BookModel 对应数据库中的 book 表。
type BookModel struct {
	gorm.Model
	Title    string
	Author   string
	Category string
	Price    float64 `gorm:"type:decimal(10,2)"`
}

func (BookModel) TableName() string {
	return "book"
}

func toDomainBook(m *BookModel) *domain.Book {
	return &domain.Book{
		ID:       int64(m.ID),
		Title:    m.Title,
		Author:   m.Author,
		Category: m.Category,
		Price:    m.Price,
	}
}
