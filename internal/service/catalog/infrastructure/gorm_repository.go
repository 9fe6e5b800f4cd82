package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookstore/internal/service/catalog/domain"
)

// GormBookRepository 是 BookRepository 的 GORM 实现。
type GormBookRepository struct {
	db *gorm.DB
}

func NewGormBookRepository(db *gorm.DB) *GormBookRepository {
	return &GormBookRepository{db: db}
}

func (r *GormBookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	var model BookModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return toDomainBook(&model), nil
}

func (r *GormBookRepository) FindPricesByIDs(ctx context.Context, ids []int64) (map[int64]float64, error) {
	var models []BookModel
	if err := r.db.WithContext(ctx).Select("id", "price").Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}

	prices := make(map[int64]float64, len(models))
	for _, m := range models {
		prices[int64(m.ID)] = m.Price
	}
	return prices, nil
}

func (r *GormBookRepository) UpdatePrice(ctx context.Context, id int64, price float64) error {
	result := r.db.WithContext(ctx).Model(&BookModel{}).Where("id = ?", id).Update("price", price)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}
