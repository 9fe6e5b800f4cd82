package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"bookstore/internal/pkg/logger"
	"bookstore/internal/service/inventory/domain"
	"bookstore/internal/service/inventory/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

const adminLockResource = "stock-admin"

// InventoryService 是库存台账的应用服务。
// 所有扣减都走"读快照 → 批量条件写"的乐观并发路径，
// 两个并发订单抢同一本书的最后一件时，后落盘的一方条件写失败，
// 被迫重读已经减少的数量，从而不可能超卖。
type InventoryService struct {
	repo       domain.StockRepository
	cache      port.SnapshotCache    // 可为 nil，纯 DB 模式
	locker     port.AdminLocker      // 可为 nil，单实例模式
	notifier   port.LowStockNotifier // 可为 nil
	tracer     trace.Tracer
	maxRetries int
}

func NewInventoryService(repo domain.StockRepository, cache port.SnapshotCache, locker port.AdminLocker, notifier port.LowStockNotifier, tracer trace.Tracer, maxRetries int) *InventoryService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &InventoryService{
		repo:       repo,
		cache:      cache,
		locker:     locker,
		notifier:   notifier,
		tracer:     tracer,
		maxRetries: maxRetries,
	}
}

// CheckBulkAvailability 是咨询式的快照查询：优先读缓存，未命中回落到 DB。
// 结果到了调用方手里就可能已经过期，下单方不允许拿它当扣减依据。
func (s *InventoryService) CheckBulkAvailability(ctx context.Context, items map[int64]int) (map[int64]bool, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.CheckBulkAvailability")
	defer span.End()
	span.SetAttributes(attribute.Int("items.count", len(items)))

	if err := validateItems(items); err != nil {
		return nil, err
	}

	bookIDs := sortedIDs(items)
	quantities := map[int64]int{}

	if s.cache != nil {
		cached, err := s.cache.GetQuantities(ctx, bookIDs)
		if err != nil {
			// 缓存故障只降级，不影响查询结果
			logger.Ctx(ctx).Warn().Err(err).Msg("snapshot cache read failed, falling back to db")
		} else {
			quantities = cached
		}
	}

	var missing []int64
	for _, id := range bookIDs {
		if _, ok := quantities[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		stocks, err := s.repo.FindByBookIDs(ctx, missing)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		refill := map[int64]int{}
		for id, stock := range stocks {
			quantities[id] = stock.Quantity
			refill[id] = stock.Quantity
		}
		if s.cache != nil && len(refill) > 0 {
			if err := s.cache.SetQuantities(ctx, refill); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("snapshot cache refill failed")
			}
		}
	}

	availability := make(map[int64]bool, len(items))
	for id, requested := range items {
		quantity, ok := quantities[id]
		// 没有库存行的书目按不可用处理
		availability[id] = ok && quantity >= requested
	}
	return availability, nil
}

// ReduceBulk 对一批 (书目, 数量) 做整单扣减。
// 批次要么全部成立、要么一行都不动；版本冲突时重读重试，
// 重试耗尽后把冲突暴露给调用方。
func (s *InventoryService) ReduceBulk(ctx context.Context, items map[int64]int) error {
	ctx, span := s.tracer.Start(ctx, "inventory.ReduceBulk")
	defer span.End()
	span.SetAttributes(attribute.Int("items.count", len(items)))

	if err := validateItems(items); err != nil {
		return err
	}

	bookIDs := sortedIDs(items)

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		stocks, err := s.repo.FindByBookIDs(ctx, bookIDs)
		if err != nil {
			span.RecordError(err)
			deductionsTotal.WithLabelValues("error").Inc()
			return err
		}

		// 先整批检查，任何一行不满足就整单拒绝，不做任何写入
		deductions := make([]domain.Deduction, 0, len(bookIDs))
		for _, id := range bookIDs {
			stock, ok := stocks[id]
			if !ok {
				deductionsTotal.WithLabelValues("not_found").Inc()
				return fmt.Errorf("book %d: %w", id, domain.ErrStockNotFound)
			}
			if !stock.CanDeduct(items[id]) {
				span.SetStatus(codes.Error, "insufficient stock")
				deductionsTotal.WithLabelValues("insufficient").Inc()
				return &domain.InsufficientStockError{
					BookID:    id,
					Available: stock.Quantity,
					Requested: items[id],
				}
			}
			deductions = append(deductions, domain.Deduction{
				BookID:   id,
				Quantity: items[id],
				Version:  stock.Version,
			})
		}

		err = s.repo.DeductBatch(ctx, deductions)
		if err == nil {
			deductionsTotal.WithLabelValues("ok").Inc()
			s.afterDeduct(ctx, stocks, items)
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			span.RecordError(err)
			deductionsTotal.WithLabelValues("error").Inc()
			return err
		}

		// 版本冲突：有并发扣减在读和写之间提交了，重读最新快照再来
		deductionConflicts.Inc()
		span.AddEvent("version conflict, retrying", trace.WithAttributes(attribute.Int("attempt", attempt+1)))
		lastErr = err
	}

	span.SetStatus(codes.Error, "version conflict retries exhausted")
	deductionsTotal.WithLabelValues("conflict").Inc()
	return lastErr
}

// afterDeduct 做扣减成功后的旁路动作：刷新快照缓存、低库存广播。
// 这些动作失败不影响已提交的扣减。
func (s *InventoryService) afterDeduct(ctx context.Context, before map[int64]*domain.Stock, items map[int64]int) {
	updated := map[int64]int{}
	for id, stock := range before {
		updated[id] = stock.Quantity - items[id]
	}
	if s.cache != nil {
		if err := s.cache.SetQuantities(ctx, updated); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("snapshot cache update failed after deduction")
		}
	}
	for id, stock := range before {
		remaining := &domain.Stock{
			BookID:    id,
			Quantity:  updated[id],
			Threshold: stock.Threshold,
			Version:   stock.Version + 1,
		}
		if remaining.IsLow() {
			logger.Ctx(ctx).Warn().Int64("book_id", id).Int("quantity", remaining.Quantity).Msg("stock fell to low watermark")
			if s.notifier != nil {
				if err := s.notifier.NotifyLowStock(ctx, remaining); err != nil {
					logger.Ctx(ctx).Error().Err(err).Int64("book_id", id).Msg("failed to publish low stock event")
				}
			}
		}
	}
}

// Restock 补货，只增不减。
func (s *InventoryService) Restock(ctx context.Context, bookID int64, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "inventory.Restock")
	defer span.End()
	span.SetAttributes(attribute.Int64("book.id", bookID), attribute.Int("quantity", quantity))

	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := s.repo.Restock(ctx, bookID, quantity); err != nil {
		span.RecordError(err)
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, bookID); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("snapshot cache invalidation failed after restock")
		}
	}
	return nil
}

// GetStock 读取单行库存。
func (s *InventoryService) GetStock(ctx context.Context, bookID int64) (*domain.Stock, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.GetStock")
	defer span.End()

	return s.repo.FindByBookID(ctx, bookID)
}

// CreateStock 上架一本书的库存行，跨实例用分布式锁串行化。
func (s *InventoryService) CreateStock(ctx context.Context, bookID int64, quantity, threshold int) error {
	ctx, span := s.tracer.Start(ctx, "inventory.CreateStock")
	defer span.End()

	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if threshold <= 0 {
		threshold = domain.DefaultThreshold
	}
	stock := &domain.Stock{BookID: bookID, Quantity: quantity, Threshold: threshold}

	return s.withAdminLock(func() error {
		return s.repo.Create(ctx, stock)
	})
}

// RemoveStock 下架一行库存，与订单流程解耦，只能由管理入口触发。
func (s *InventoryService) RemoveStock(ctx context.Context, bookID int64) error {
	ctx, span := s.tracer.Start(ctx, "inventory.RemoveStock")
	defer span.End()

	err := s.withAdminLock(func() error {
		return s.repo.Delete(ctx, bookID)
	})
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, bookID); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("snapshot cache invalidation failed after removal")
		}
	}
	return nil
}

func (s *InventoryService) withAdminLock(fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	return s.locker.WithLock(adminLockResource, fn)
}

func validateItems(items map[int64]int) error {
	if len(items) == 0 {
		return ErrInvalidQuantity
	}
	for _, quantity := range items {
		if quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// sortedIDs 固定遍历顺序，让条件写的加锁顺序稳定，减少死锁概率。
func sortedIDs(items map[int64]int) []int64 {
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
