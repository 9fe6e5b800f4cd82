package infrastructure

import (
	"context"
	"errors"

	gosqlmysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"bookstore/internal/service/inventory/domain"
)

// GormStockRepository 是 StockRepository 的 GORM 实现。
// 扣减走 "WHERE book_id = ? AND version = ?" 的条件更新，
// RowsAffected 为 0 即说明版本已被并发写推进，整个事务回滚。
type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) FindByBookID(ctx context.Context, bookID int64) (*domain.Stock, error) {
	var model StockModel
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStockNotFound
		}
		return nil, err
	}
	return toDomainStock(&model), nil
}

func (r *GormStockRepository) FindByBookIDs(ctx context.Context, bookIDs []int64) (map[int64]*domain.Stock, error) {
	var models []StockModel
	if err := r.db.WithContext(ctx).Where("book_id IN ?", bookIDs).Find(&models).Error; err != nil {
		return nil, err
	}
	stocks := make(map[int64]*domain.Stock, len(models))
	for i := range models {
		stocks[models[i].BookID] = toDomainStock(&models[i])
	}
	return stocks, nil
}

func (r *GormStockRepository) Create(ctx context.Context, stock *domain.Stock) error {
	model := StockModel{
		BookID:    stock.BookID,
		Quantity:  stock.Quantity,
		Threshold: stock.Threshold,
	}
	err := r.db.WithContext(ctx).Create(&model).Error
	if err == nil {
		return nil
	}
	// TranslateError 覆盖大部分场景，1062 兜底老版本驱动直接抛的裸错误
	var mysqlErr *gosqlmysql.MySQLError
	if errors.Is(err, gorm.ErrDuplicatedKey) || (errors.As(err, &mysqlErr) && mysqlErr.Number == 1062) {
		return domain.ErrStockExists
	}
	return err
}

func (r *GormStockRepository) Delete(ctx context.Context, bookID int64) error {
	result := r.db.WithContext(ctx).Where("book_id = ?", bookID).Delete(&StockModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}

func (r *GormStockRepository) DeductBatch(ctx context.Context, deductions []domain.Deduction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range deductions {
			result := tx.Model(&StockModel{}).
				Where("book_id = ? AND version = ? AND quantity >= ?", d.BookID, d.Version, d.Quantity).
				Updates(map[string]interface{}{
					"quantity": gorm.Expr("quantity - ?", d.Quantity),
					"version":  gorm.Expr("version + 1"),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				// 返回错误触发 GORM 的事务回滚，之前几行的扣减一并撤销
				return domain.ErrVersionConflict
			}
		}
		return nil
	})
}

func (r *GormStockRepository) Restock(ctx context.Context, bookID int64, quantity int) error {
	result := r.db.WithContext(ctx).Model(&StockModel{}).
		Where("book_id = ?", bookID).
		Updates(map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", quantity),
			"version":  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}
