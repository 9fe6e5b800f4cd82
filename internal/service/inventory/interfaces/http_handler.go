package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bookstore/internal/service/inventory/application"
	"bookstore/internal/service/inventory/domain"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// 错误码是跨服务契约的一部分：订单侧的适配器按 error 字段
// 把响应還原成自己的领域错误。
const (
	codeInsufficientStock = "insufficient_stock"
	codeVersionConflict   = "version_conflict"
	codeStockNotFound     = "stock_not_found"
	codeStockExists       = "stock_exists"
	codeBadRequest        = "bad_request"
)

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	BookID    int64  `json:"bookId,omitempty"`
	Available int    `json:"available,omitempty"`
	Requested int    `json:"requested,omitempty"`
}

// StockHandler 封装了 inventory 服务的 HTTP 处理器
type StockHandler struct {
	service *application.InventoryService
}

func NewStockHandler(service *application.InventoryService) *StockHandler {
	return &StockHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *StockHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stocks/check", h.handleCheck)
	mux.HandleFunc("/stocks/reduce", h.handleReduce)
	mux.HandleFunc("/stocks/restock", h.handleRestock)
	mux.HandleFunc("/stocks", h.handleAdmin)
}

type itemsRequest struct {
	Items map[int64]int `json:"items"`
}

// handleCheck 咨询式批量可用性查询。
func (h *StockHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req itemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: codeBadRequest, Message: "invalid request body"})
		return
	}

	availability, err := h.service.CheckBulkAvailability(ctx, req.Items)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"availability": availability})
}

// handleReduce 整单扣减入口。
func (h *StockHandler) handleReduce(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req itemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: codeBadRequest, Message: "invalid request body"})
		return
	}

	if err := h.service.ReduceBulk(ctx, req.Items); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *StockHandler) handleRestock(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		BookID   int64 `json:"bookId"`
		Quantity int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: codeBadRequest, Message: "invalid request body"})
		return
	}

	if err := h.service.Restock(ctx, req.BookID, req.Quantity); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleAdmin 覆盖库存行的查询/上架/下架。
func (h *StockHandler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	switch r.Method {
	case http.MethodGet:
		bookID, err := strconv.ParseInt(r.URL.Query().Get("bookId"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errorResponse{Error: codeBadRequest, Message: "invalid bookId"})
			return
		}
		stock, err := h.service.GetStock(ctx, bookID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stock)

	case http.MethodPost:
		var req struct {
			BookID    int64 `json:"bookId"`
			Quantity  int   `json:"quantity"`
			Threshold int   `json:"threshold"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errorResponse{Error: codeBadRequest, Message: "invalid request body"})
			return
		}
		if err := h.service.CreateStock(ctx, req.BookID, req.Quantity, req.Threshold); err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodDelete:
		bookID, err := strconv.ParseInt(r.URL.Query().Get("bookId"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errorResponse{Error: codeBadRequest, Message: "invalid bookId"})
			return
		}
		if err := h.service.RemoveStock(ctx, bookID); err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StockHandler) writeServiceError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, errorResponse{
			Error:     codeInsufficientStock,
			Message:   insufficient.Error(),
			BookID:    insufficient.BookID,
			Available: insufficient.Available,
			Requested: insufficient.Requested,
		})
	case errors.Is(err, domain.ErrVersionConflict):
		writeError(w, http.StatusConflict, errorResponse{Error: codeVersionConflict, Message: err.Error()})
	case errors.Is(err, domain.ErrStockNotFound):
		writeError(w, http.StatusNotFound, errorResponse{Error: codeStockNotFound, Message: err.Error()})
	case errors.Is(err, domain.ErrStockExists):
		writeError(w, http.StatusConflict, errorResponse{Error: codeStockExists, Message: err.Error()})
	case errors.Is(err, application.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, errorResponse{Error: codeBadRequest, Message: err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
