package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bookstore/internal/service/inventory/domain"

	"go.opentelemetry.io/otel"
)

// memStockRepo 在内存里复刻条件写语义：版本不匹配或余量不足时
// 整批失败并返回版本冲突，与 SQL 实现的行为保持一致。
type memStockRepo struct {
	mu     sync.Mutex
	stocks map[int64]*domain.Stock
}

func newMemStockRepo(stocks ...*domain.Stock) *memStockRepo {
	repo := &memStockRepo{stocks: make(map[int64]*domain.Stock)}
	for _, stock := range stocks {
		cp := *stock
		repo.stocks[stock.BookID] = &cp
	}
	return repo
}

func (r *memStockRepo) FindByBookID(ctx context.Context, bookID int64) (*domain.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stock, ok := r.stocks[bookID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	cp := *stock
	return &cp, nil
}

func (r *memStockRepo) FindByBookIDs(ctx context.Context, bookIDs []int64) (map[int64]*domain.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]*domain.Stock)
	for _, id := range bookIDs {
		if stock, ok := r.stocks[id]; ok {
			cp := *stock
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *memStockRepo) Create(ctx context.Context, stock *domain.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[stock.BookID]; ok {
		return domain.ErrStockExists
	}
	cp := *stock
	r.stocks[stock.BookID] = &cp
	return nil
}

func (r *memStockRepo) Delete(ctx context.Context, bookID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stocks[bookID]; !ok {
		return domain.ErrStockNotFound
	}
	delete(r.stocks, bookID)
	return nil
}

func (r *memStockRepo) DeductBatch(ctx context.Context, deductions []domain.Deduction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// 先整批验证再写入，任何一行失败整批回滚
	for _, d := range deductions {
		stock, ok := r.stocks[d.BookID]
		if !ok {
			return domain.ErrStockNotFound
		}
		if stock.Version != d.Version || stock.Quantity < d.Quantity {
			return domain.ErrVersionConflict
		}
	}
	for _, d := range deductions {
		stock := r.stocks[d.BookID]
		stock.Quantity -= d.Quantity
		stock.Version++
	}
	return nil
}

func (r *memStockRepo) Restock(ctx context.Context, bookID int64, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stock, ok := r.stocks[bookID]
	if !ok {
		return domain.ErrStockNotFound
	}
	stock.Quantity += quantity
	stock.Version++
	return nil
}

func (r *memStockRepo) quantity(bookID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stocks[bookID].Quantity
}

type memNotifier struct {
	mu     sync.Mutex
	events []int64
}

func (n *memNotifier) NotifyLowStock(ctx context.Context, stock *domain.Stock) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, stock.BookID)
	return nil
}

func newTestInventoryService(repo domain.StockRepository, maxRetries int) *InventoryService {
	return NewInventoryService(repo, nil, nil, nil, otel.Tracer("test"), maxRetries)
}

func TestReduceBulk_Success(t *testing.T) {
	repo := newMemStockRepo(
		&domain.Stock{BookID: 101, Quantity: 5, Threshold: 1, Version: 3},
		&domain.Stock{BookID: 102, Quantity: 1, Threshold: 1, Version: 7},
	)
	svc := newTestInventoryService(repo, 3)

	if err := svc.ReduceBulk(context.Background(), map[int64]int{101: 2, 102: 1}); err != nil {
		t.Fatalf("ReduceBulk failed: %v", err)
	}
	if got := repo.quantity(101); got != 3 {
		t.Errorf("book 101 quantity = %d, want 3", got)
	}
	if got := repo.quantity(102); got != 0 {
		t.Errorf("book 102 quantity = %d, want 0", got)
	}
}

// 批次里任何一行不满足，整批必须一行不动。
func TestReduceBulk_AllOrNothing(t *testing.T) {
	repo := newMemStockRepo(
		&domain.Stock{BookID: 101, Quantity: 5, Threshold: 1},
		&domain.Stock{BookID: 102, Quantity: 1, Threshold: 1},
	)
	svc := newTestInventoryService(repo, 3)

	err := svc.ReduceBulk(context.Background(), map[int64]int{101: 2, 102: 2})
	var insufficient *domain.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.BookID != 102 || insufficient.Available != 1 || insufficient.Requested != 2 {
		t.Errorf("unexpected error detail: %+v", insufficient)
	}
	if repo.quantity(101) != 5 || repo.quantity(102) != 1 {
		t.Error("a rejected batch must not deduct any row")
	}
}

func TestReduceBulk_UnknownBook(t *testing.T) {
	repo := newMemStockRepo(&domain.Stock{BookID: 101, Quantity: 5, Threshold: 1})
	svc := newTestInventoryService(repo, 3)

	err := svc.ReduceBulk(context.Background(), map[int64]int{101: 1, 999: 1})
	if !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
	if repo.quantity(101) != 5 {
		t.Error("unknown book in the batch must not deduct the known rows")
	}
}

func TestReduceBulk_RejectsNonPositiveQuantity(t *testing.T) {
	repo := newMemStockRepo(&domain.Stock{BookID: 101, Quantity: 5, Threshold: 1})
	svc := newTestInventoryService(repo, 3)

	if err := svc.ReduceBulk(context.Background(), map[int64]int{101: 0}); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity for zero, got %v", err)
	}
	if err := svc.ReduceBulk(context.Background(), nil); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity for empty batch, got %v", err)
	}
}

// conflictOnceRepo 第一次条件写强制返回版本冲突，验证重试路径。
type conflictOnceRepo struct {
	*memStockRepo
	mu       sync.Mutex
	injected bool
}

func (r *conflictOnceRepo) DeductBatch(ctx context.Context, deductions []domain.Deduction) error {
	r.mu.Lock()
	if !r.injected {
		r.injected = true
		r.mu.Unlock()
		return domain.ErrVersionConflict
	}
	r.mu.Unlock()
	return r.memStockRepo.DeductBatch(ctx, deductions)
}

func TestReduceBulk_RetriesOnVersionConflict(t *testing.T) {
	repo := &conflictOnceRepo{memStockRepo: newMemStockRepo(&domain.Stock{BookID: 101, Quantity: 5, Threshold: 1})}
	svc := newTestInventoryService(repo, 3)

	if err := svc.ReduceBulk(context.Background(), map[int64]int{101: 2}); err != nil {
		t.Fatalf("a single version conflict should be retried away: %v", err)
	}
	if got := repo.quantity(101); got != 3 {
		t.Errorf("quantity after retried deduction = %d, want 3", got)
	}
}

// alwaysConflictRepo 模拟持续高并发冲突，重试耗尽后冲突必须暴露出来。
type alwaysConflictRepo struct{ *memStockRepo }

func (r *alwaysConflictRepo) DeductBatch(ctx context.Context, deductions []domain.Deduction) error {
	return domain.ErrVersionConflict
}

func TestReduceBulk_ConflictRetriesExhausted(t *testing.T) {
	repo := &alwaysConflictRepo{memStockRepo: newMemStockRepo(&domain.Stock{BookID: 101, Quantity: 5, Threshold: 1})}
	svc := newTestInventoryService(repo, 2)

	if err := svc.ReduceBulk(context.Background(), map[int64]int{101: 1}); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict after retries exhausted, got %v", err)
	}
	if repo.quantity(101) != 5 {
		t.Error("exhausted retries must leave the ledger untouched")
	}
}

// 并发扣减压测：不管调度怎么交错，扣出去的总量绝不能超过初始库存。
func TestReduceBulk_ConcurrentNoOversell(t *testing.T) {
	const initial = 20
	const workers = 50
	repo := newMemStockRepo(&domain.Stock{BookID: 101, Quantity: initial, Threshold: 1})
	svc := newTestInventoryService(repo, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.ReduceBulk(context.Background(), map[int64]int{101: 1}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	final := repo.quantity(101)
	if final < 0 {
		t.Fatalf("ledger went negative: %d", final)
	}
	if successes > initial {
		t.Fatalf("%d successful deductions from an initial stock of %d", successes, initial)
	}
	if initial-final != successes {
		t.Errorf("ledger drift: initial=%d final=%d successes=%d", initial, final, successes)
	}
}

func TestCheckBulkAvailability(t *testing.T) {
	repo := newMemStockRepo(
		&domain.Stock{BookID: 101, Quantity: 5, Threshold: 1},
		&domain.Stock{BookID: 102, Quantity: 0, Threshold: 1},
	)
	svc := newTestInventoryService(repo, 3)

	// 999 没有库存行，按不可用处理
	availability, err := svc.CheckBulkAvailability(context.Background(), map[int64]int{101: 5, 102: 1, 999: 1})
	if err != nil {
		t.Fatalf("CheckBulkAvailability failed: %v", err)
	}
	if !availability[101] {
		t.Error("book 101 with exactly enough stock must be available")
	}
	if availability[102] {
		t.Error("book 102 with zero stock must be unavailable")
	}
	if availability[999] {
		t.Error("a book without a stock row must be unavailable")
	}
}

func TestRestock(t *testing.T) {
	repo := newMemStockRepo(&domain.Stock{BookID: 101, Quantity: 2, Threshold: 1})
	svc := newTestInventoryService(repo, 3)

	if err := svc.Restock(context.Background(), 101, 8); err != nil {
		t.Fatalf("Restock failed: %v", err)
	}
	if got := repo.quantity(101); got != 10 {
		t.Errorf("quantity after restock = %d, want 10", got)
	}

	if err := svc.Restock(context.Background(), 101, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity for zero restock, got %v", err)
	}
	if err := svc.Restock(context.Background(), 999, 5); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("expected ErrStockNotFound, got %v", err)
	}
}

func TestCreateAndRemoveStock(t *testing.T) {
	repo := newMemStockRepo()
	svc := newTestInventoryService(repo, 3)

	if err := svc.CreateStock(context.Background(), 101, 5, 0); err != nil {
		t.Fatalf("CreateStock failed: %v", err)
	}
	stock, err := svc.GetStock(context.Background(), 101)
	if err != nil {
		t.Fatalf("GetStock after create: %v", err)
	}
	if stock.Threshold != domain.DefaultThreshold {
		t.Errorf("unset threshold should default to %d, got %d", domain.DefaultThreshold, stock.Threshold)
	}

	if err := svc.CreateStock(context.Background(), 101, 5, 0); !errors.Is(err, domain.ErrStockExists) {
		t.Errorf("expected ErrStockExists on duplicate create, got %v", err)
	}

	if err := svc.RemoveStock(context.Background(), 101); err != nil {
		t.Fatalf("RemoveStock failed: %v", err)
	}
	if _, err := svc.GetStock(context.Background(), 101); !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("expected ErrStockNotFound after removal, got %v", err)
	}
}

func TestLowStockNotification(t *testing.T) {
	repo := newMemStockRepo(&domain.Stock{BookID: 101, Quantity: 11, Threshold: 10})
	notifier := &memNotifier{}
	svc := NewInventoryService(repo, nil, nil, notifier, otel.Tracer("test"), 3)

	// 11 -> 9，跌破阈值 10
	if err := svc.ReduceBulk(context.Background(), map[int64]int{101: 2}); err != nil {
		t.Fatalf("ReduceBulk failed: %v", err)
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 || notifier.events[0] != 101 {
		t.Errorf("expected one low stock event for book 101, got %v", notifier.events)
	}
}
