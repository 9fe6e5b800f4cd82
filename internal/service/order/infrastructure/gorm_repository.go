package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookstore/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := OrderModel{
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	}
	if order.ID != 0 {
		model.ID = uint(order.ID)
	}
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}
	// 新订单在这里拿到数据库分配的 ID
	order.ID = int64(model.ID)
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return toDomainOrder(&model), nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, toDomainOrder(&models[i]))
	}
	return orders, nil
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.Status) error {
	// 条件写：两个并发流转（发货 vs 取消）同时通过校验时，
	// 只有先提交的一方能命中 WHERE 条件，后到的一方报冲突
	result := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentTransition
	}
	return nil
}

func (r *GormOrderRepository) SoftDelete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&OrderModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
