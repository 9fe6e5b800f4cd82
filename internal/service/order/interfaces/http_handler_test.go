package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore/internal/service/order/application"
	"bookstore/internal/service/order/domain"

	"go.opentelemetry.io/otel"
)

// ---- 只为状态码映射服务的最小桩 ----

type stubRepo struct {
	orders map[int64]*domain.Order
	nextID int64
}

func (r *stubRepo) Save(ctx context.Context, order *domain.Order) error {
	if order.ID == 0 {
		r.nextID++
		order.ID = r.nextID
	}
	r.orders[order.ID] = order
	return nil
}

func (r *stubRepo) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *stubRepo) FindByUserID(ctx context.Context, userID int64) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *stubRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.Status) error {
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status != from {
		return domain.ErrConcurrentTransition
	}
	order.Status = to
	return nil
}

func (r *stubRepo) SoftDelete(ctx context.Context, id int64) error {
	delete(r.orders, id)
	return nil
}

type stubPricing struct {
	prices map[int64]float64
	err    error
}

func (p *stubPricing) GetPrices(ctx context.Context, bookIDs []int64) (map[int64]float64, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[int64]float64)
	for _, id := range bookIDs {
		if price, ok := p.prices[id]; ok {
			out[id] = price
		}
	}
	return out, nil
}

type stubInventory struct {
	availability map[int64]bool
	reduceErr    error
}

func (i *stubInventory) CheckBulkAvailability(ctx context.Context, items map[int64]int) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for id := range items {
		out[id] = i.availability[id]
	}
	return out, nil
}

func (i *stubInventory) ReduceBulk(ctx context.Context, items map[int64]int) error {
	return i.reduceErr
}

func newTestServer(pricing *stubPricing, inventory *stubInventory) (*httptest.Server, *stubRepo) {
	repo := &stubRepo{orders: make(map[int64]*domain.Order)}
	svc := application.NewOrderApplicationService(repo, pricing, inventory, nil, nil, otel.Tracer("test"), time.Second)
	mux := http.NewServeMux()
	NewOrderHandler(svc).RegisterRoutes(mux)
	return httptest.NewServer(mux), repo
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHandlePlaceOrder_Created(t *testing.T) {
	server, _ := newTestServer(
		&stubPricing{prices: map[int64]float64{101: 10.00}},
		&stubInventory{availability: map[int64]bool{101: true}},
	)
	defer server.Close()

	resp := postJSON(t, server.URL+"/orders", map[string]interface{}{
		"userId": 42,
		"items":  map[string]int{"101": 2},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var order application.OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if order.TotalAmount != 20.00 || order.Status != domain.StatusPending {
		t.Errorf("unexpected order response: %+v", order)
	}
}

func TestHandlePlaceOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		pricing    *stubPricing
		inventory  *stubInventory
		items      map[string]int
		wantStatus int
		wantError  string
		retryable  bool
	}{
		{
			name:       "empty order",
			pricing:    &stubPricing{prices: map[int64]float64{}},
			inventory:  &stubInventory{},
			items:      map[string]int{},
			wantStatus: http.StatusBadRequest,
			wantError:  "validation",
		},
		{
			name:       "unfulfillable",
			pricing:    &stubPricing{prices: map[int64]float64{}},
			inventory:  &stubInventory{availability: map[int64]bool{101: true}},
			items:      map[string]int{"101": 1},
			wantStatus: http.StatusBadRequest,
			wantError:  "unfulfillable_items",
		},
		{
			name:       "stock race lost",
			pricing:    &stubPricing{prices: map[int64]float64{101: 10.00}},
			inventory:  &stubInventory{availability: map[int64]bool{101: true}, reduceErr: &domain.InsufficientStockError{BookID: 101, Available: 0, Requested: 1}},
			items:      map[string]int{"101": 1},
			wantStatus: http.StatusConflict,
			wantError:  "insufficient_stock",
			retryable:  true,
		},
		{
			name:       "persistent version conflict",
			pricing:    &stubPricing{prices: map[int64]float64{101: 10.00}},
			inventory:  &stubInventory{availability: map[int64]bool{101: true}, reduceErr: domain.ErrStockConflict},
			items:      map[string]int{"101": 1},
			wantStatus: http.StatusConflict,
			wantError:  "stock_conflict",
			retryable:  true,
		},
		{
			name:       "book vanished between check and reduce",
			pricing:    &stubPricing{prices: map[int64]float64{101: 10.00}},
			inventory:  &stubInventory{availability: map[int64]bool{101: true}, reduceErr: domain.ErrItemNotFound},
			items:      map[string]int{"101": 1},
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
		{
			name:       "catalog down",
			pricing:    &stubPricing{err: &domain.CollaboratorUnavailableError{Collaborator: "catalog-service", Err: errors.New("timeout")}},
			inventory:  &stubInventory{availability: map[int64]bool{101: true}},
			items:      map[string]int{"101": 1},
			wantStatus: http.StatusBadGateway,
			wantError:  "collaborator_unavailable",
			retryable:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server, _ := newTestServer(tc.pricing, tc.inventory)
			defer server.Close()

			resp := postJSON(t, server.URL+"/orders", map[string]interface{}{
				"userId": 1,
				"items":  tc.items,
			})
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			body := decodeError(t, resp)
			if body["error"] != tc.wantError {
				t.Errorf("error code = %v, want %s", body["error"], tc.wantError)
			}
			if retryable, _ := body["retryable"].(bool); retryable != tc.retryable {
				t.Errorf("retryable = %v, want %v", body["retryable"], tc.retryable)
			}
		})
	}
}

func TestHandleChangeStatus(t *testing.T) {
	server, repo := newTestServer(
		&stubPricing{prices: map[int64]float64{101: 10.00}},
		&stubInventory{availability: map[int64]bool{101: true}},
	)
	defer server.Close()

	order, _ := domain.NewOrder(1, map[int64]int{101: 1})
	repo.Save(context.Background(), order)

	resp := postJSON(t, server.URL+"/orders/status", map[string]interface{}{"orderId": order.ID, "status": "SHIPPED"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("legal transition: status = %d, want 200", resp.StatusCode)
	}

	// 已发货订单不能取消
	resp = postJSON(t, server.URL+"/orders/cancel", map[string]interface{}{"orderId": order.ID})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("illegal cancel: status = %d, want 409", resp.StatusCode)
	}
	if body := decodeError(t, resp); body["error"] != "invalid_transition" {
		t.Errorf("error code = %v, want invalid_transition", body["error"])
	}

	resp = postJSON(t, server.URL+"/orders/status", map[string]interface{}{"orderId": int64(9999), "status": "SHIPPED"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown order: status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHandleGetOrder_NotFound(t *testing.T) {
	server, _ := newTestServer(&stubPricing{}, &stubInventory{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/orders?id=404")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
