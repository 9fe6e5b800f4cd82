package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bookstore/internal/service/order/application"
	"bookstore/internal/service/order/domain"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// OrderHandler 封装了 order 服务的 HTTP 处理器
type OrderHandler struct {
	service *application.OrderApplicationService
}

func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/orders", h.handleOrders)
	mux.HandleFunc("/orders/status", h.handleChangeStatus)
	mux.HandleFunc("/orders/cancel", h.handleCancel)
}

func (h *OrderHandler) handleOrders(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	switch r.Method {
	case http.MethodPost:
		var req application.PlaceOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		order, err := h.service.PlaceOrder(ctx, req.UserID, req.Items)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(application.ToOrderResponse(order))

	case http.MethodGet:
		if idParam := r.URL.Query().Get("id"); idParam != "" {
			id, err := strconv.ParseInt(idParam, 10, 64)
			if err != nil {
				http.Error(w, "invalid order id", http.StatusBadRequest)
				return
			}
			order, err := h.service.GetOrder(ctx, id)
			if err != nil {
				writeOrderError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(application.ToOrderResponse(order))
			return
		}

		userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
		if err != nil {
			http.Error(w, "either id or userId is required", http.StatusBadRequest)
			return
		}
		orders, err := h.service.ListOrders(ctx, userID)
		if err != nil {
			writeOrderError(w, err)
			return
		}
		resp := make([]*application.OrderResponse, 0, len(orders))
		for _, order := range orders {
			resp = append(resp, application.ToOrderResponse(order))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *OrderHandler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		OrderID int64         `json:"orderId"`
		Status  domain.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.ChangeStatus(ctx, req.OrderID, req.Status)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(application.ToOrderResponse(order))
}

func (h *OrderHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		OrderID int64 `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.service.Cancel(ctx, req.OrderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(application.ToOrderResponse(order))
}

// writeOrderError 把领域错误映射到 HTTP 状态码：
// 改请求 → 400，不存在 → 404，时序竞争/非法流转 → 409，下游不可用 → 502。
// 响应体里带上足够的信息，让客户端能区分"改参数"和"稍后重试"。
func writeOrderError(w http.ResponseWriter, err error) {
	type errorBody struct {
		Error       string  `json:"error"`
		Message     string  `json:"message"`
		Unpriced    []int64 `json:"unpricedBooks,omitempty"`
		Unavailable []int64 `json:"unavailableBooks,omitempty"`
		BookID      int64   `json:"bookId,omitempty"`
		Retryable   bool    `json:"retryable"`
	}

	var (
		unfulfillable *domain.UnfulfillableError
		insufficient  *domain.InsufficientStockError
		transition    *domain.InvalidTransitionError
		unavailable   *domain.CollaboratorUnavailableError
		policy        *domain.PolicyViolationError
	)

	status := http.StatusInternalServerError
	body := errorBody{Error: "internal", Message: err.Error()}

	switch {
	case errors.Is(err, domain.ErrEmptyOrder), errors.Is(err, domain.ErrInvalidQuantity):
		status = http.StatusBadRequest
		body.Error = "validation"
	case errors.As(err, &policy):
		status = http.StatusBadRequest
		body.Error = "policy_violation"
	case errors.As(err, &unfulfillable):
		status = http.StatusBadRequest
		body.Error = "unfulfillable_items"
		body.Unpriced = unfulfillable.Unpriced
		body.Unavailable = unfulfillable.Unavailable
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrItemNotFound):
		status = http.StatusNotFound
		body.Error = "not_found"
	case errors.As(err, &insufficient):
		status = http.StatusConflict
		body.Error = "insufficient_stock"
		body.BookID = insufficient.BookID
		body.Retryable = true
	case errors.Is(err, domain.ErrStockConflict):
		status = http.StatusConflict
		body.Error = "stock_conflict"
		body.Retryable = true
	case errors.As(err, &transition):
		status = http.StatusConflict
		body.Error = "invalid_transition"
	case errors.Is(err, domain.ErrConcurrentTransition):
		status = http.StatusConflict
		body.Error = "transition_conflict"
		body.Retryable = true
	case errors.As(err, &unavailable):
		status = http.StatusBadGateway
		body.Error = "collaborator_unavailable"
		body.Retryable = true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
