package application

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"bookstore/internal/pkg/logger"
	"bookstore/internal/service/order/domain"
	"bookstore/internal/service/order/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// OrderApplicationService 负责下单编排和订单生命周期管理。
//
// 下单是整条链路里唯一的并行汇合点：定价和库存两路读并发发出，
// 两路都成功才进入核对；任何一路失败都整单放弃，不留半截状态。
type OrderApplicationService struct {
	orderRepo        domain.OrderRepository
	pricingService   port.PricingService
	inventoryService port.InventoryService
	eventProducer    port.OrderEventProducer // 可为 nil
	policy           port.PlacementPolicy    // 可为 nil，未配置策略
	tracer           trace.Tracer
	remoteTimeout    time.Duration
}

func NewOrderApplicationService(orderRepo domain.OrderRepository, pricingService port.PricingService, inventoryService port.InventoryService, eventProducer port.OrderEventProducer, policy port.PlacementPolicy, tracer trace.Tracer, remoteTimeout time.Duration) *OrderApplicationService {
	if remoteTimeout <= 0 {
		remoteTimeout = 3 * time.Second
	}
	return &OrderApplicationService{
		orderRepo:        orderRepo,
		pricingService:   pricingService,
		inventoryService: inventoryService,
		eventProducer:    eventProducer,
		policy:           policy,
		tracer:           tracer,
		remoteTimeout:    remoteTimeout,
	}
}

// PlaceOrder 执行一次完整的下单：
//
//  1. 本地校验（空单、非正数量、下单策略），失败不发任何远程调用；
//  2. 并行拉取单价和可用性，任一失败取消另一路并整单放弃；
//  3. 核对：每本书必须既有价格又可售，否则报出具体书目；
//  4. 以此刻的单价计算并冻结总价；
//  5. 以 PENDING 状态落库；
//  6. 调用库存整单扣减；失败则软删刚建的订单行再报错，
//     成功则返回持久化后的订单。
func (s *OrderApplicationService) PlaceOrder(ctx context.Context, userID int64, items map[int64]int) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int("items.count", len(items)),
	)

	order, err := domain.NewOrder(userID, items)
	if err != nil {
		orderPlaceFailures.WithLabelValues("validation").Inc()
		return nil, err
	}
	if s.policy != nil {
		if err := s.policy.Allow(ctx, userID, items); err != nil {
			span.AddEvent("placement policy rejected order")
			orderPlaceFailures.WithLabelValues("policy").Inc()
			return nil, err
		}
	}

	prices, availability, err := s.fetchPricesAndAvailability(ctx, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collaborator fan-out failed")
		orderPlaceFailures.WithLabelValues("collaborator").Inc()
		return nil, err
	}

	total, err := reconcile(items, prices, availability)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconciliation failed")
		orderPlaceFailures.WithLabelValues("unfulfillable").Inc()
		return nil, err
	}
	order.Freeze(total)
	span.SetAttributes(attribute.Float64("order.total", total))

	// 先落临时订单行，再扣库存；扣减失败就把这行软删掉，
	// 对外表现为这笔订单从未成立过。
	if err := s.orderRepo.Save(ctx, order); err != nil {
		span.RecordError(err)
		orderPlaceFailures.WithLabelValues("persistence").Inc()
		return nil, err
	}

	// 扣减和两路读一样受 remoteTimeout 约束：库存侧挂死时
	// 及时放弃并走回滚，不让 PENDING 临时行一直可见
	deductCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	err = s.inventoryService.ReduceBulk(deductCtx, items)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &domain.CollaboratorUnavailableError{Collaborator: "inventory-service", Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock deduction failed")
		s.rollbackProvisionalOrder(ctx, order.ID)
		orderPlaceFailures.WithLabelValues(deductFailureReason(err)).Inc()
		return nil, err
	}

	ordersPlacedTotal.Inc()
	logger.Ctx(ctx).Info().Int64("order_id", order.ID).Int64("user_id", userID).Float64("total", total).Msg("order placed")

	if s.eventProducer != nil {
		if err := s.eventProducer.PublishPlaced(ctx, order); err != nil {
			logger.Ctx(ctx).Error().Err(err).Int64("order_id", order.ID).Msg("failed to publish order placed event")
		}
	}
	return order, nil
}

// fetchPricesAndAvailability 把定价和库存两路读放到同一个 errgroup 里，
// 每路各自受 remoteTimeout 约束；先失败的一路会通过组上下文取消另一路。
func (s *OrderApplicationService) fetchPricesAndAvailability(ctx context.Context, items map[int64]int) (map[int64]float64, map[int64]bool, error) {
	ctx, span := s.tracer.Start(ctx, "order.FetchPricesAndAvailability")
	defer span.End()

	bookIDs := make([]int64, 0, len(items))
	for id := range items {
		bookIDs = append(bookIDs, id)
	}
	sort.Slice(bookIDs, func(i, j int) bool { return bookIDs[i] < bookIDs[j] })

	var (
		prices       map[int64]float64
		availability map[int64]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, s.remoteTimeout)
		defer cancel()
		var err error
		prices, err = s.pricingService.GetPrices(callCtx, bookIDs)
		return err
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(gctx, s.remoteTimeout)
		defer cancel()
		var err error
		availability, err = s.inventoryService.CheckBulkAvailability(callCtx, items)
		return err
	})

	if err := g.Wait(); err != nil {
		// 部分结果一律丢弃，绝不拿半套数据做决策
		return nil, nil, err
	}
	span.AddEvent("prices and availability fetched in parallel")
	return prices, availability, nil
}

// reconcile 逐本书核对"有价格且可售"，全部满足才计算总价。
// 金额按分位四舍五入，避免浮点尾差进到落库的总价里。
func reconcile(items map[int64]int, prices map[int64]float64, availability map[int64]bool) (float64, error) {
	var unpriced, unavailable []int64
	for id := range items {
		if _, ok := prices[id]; !ok {
			unpriced = append(unpriced, id)
		}
		if !availability[id] {
			unavailable = append(unavailable, id)
		}
	}
	if len(unpriced) > 0 || len(unavailable) > 0 {
		sort.Slice(unpriced, func(i, j int) bool { return unpriced[i] < unpriced[j] })
		sort.Slice(unavailable, func(i, j int) bool { return unavailable[i] < unavailable[j] })
		return 0, &domain.UnfulfillableError{Unpriced: unpriced, Unavailable: unavailable}
	}

	var total float64
	for id, quantity := range items {
		total += prices[id] * float64(quantity)
	}
	return math.Round(total*100) / 100, nil
}

// rollbackProvisionalOrder 软删扣减失败后残留的临时订单行。
// 回滚本身失败是需要人工介入的严重问题，只能重点记录。
func (s *OrderApplicationService) rollbackProvisionalOrder(ctx context.Context, orderID int64) {
	if err := s.orderRepo.SoftDelete(ctx, orderID); err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("order_id", orderID).Msg("CRITICAL: failed to roll back provisional order after deduction failure")
	}
}

func deductFailureReason(err error) string {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient), errors.Is(err, domain.ErrStockConflict):
		return "stock_conflict"
	default:
		return "collaborator"
	}
}

// ChangeStatus 推进订单生命周期。非法流转不会改动存储中的状态。
func (s *OrderApplicationService) ChangeStatus(ctx context.Context, orderID int64, target domain.Status) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.ChangeStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("target", string(target)))

	if !target.IsValid() {
		return nil, &domain.InvalidTransitionError{To: target}
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	prev := order.Status
	if err := order.TransitionTo(target); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, prev, target); err != nil {
		span.RecordError(err)
		return nil, err
	}

	statusChangesTotal.WithLabelValues(string(target)).Inc()
	logger.Ctx(ctx).Info().Int64("order_id", orderID).Str("from", string(prev)).Str("to", string(target)).Msg("order status changed")

	if s.eventProducer != nil {
		if err := s.eventProducer.PublishStatusChanged(ctx, order, prev); err != nil {
			logger.Ctx(ctx).Error().Err(err).Int64("order_id", orderID).Msg("failed to publish status change event")
		}
	}
	return order, nil
}

// Cancel 取消订单。取消不回补库存：已扣的现货留在台账里，
// 是否回补是独立的运营决策，不随取消自动发生。
func (s *OrderApplicationService) Cancel(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.ChangeStatus(ctx, orderID, domain.StatusCancelled)
}

// GetOrder 查询单笔订单。
func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.GetOrder")
	defer span.End()

	return s.orderRepo.FindByID(ctx, orderID)
}

// ListOrders 列出某个用户的订单。
func (s *OrderApplicationService) ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.ListOrders")
	defer span.End()

	return s.orderRepo.FindByUserID(ctx, userID)
}
