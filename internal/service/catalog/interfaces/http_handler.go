package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"bookstore/internal/service/catalog/application"
	"bookstore/internal/service/catalog/domain"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// CatalogHandler 封装了 catalog 服务的 HTTP 处理器
type CatalogHandler struct {
	service *application.CatalogService
}

func NewCatalogHandler(service *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/prices", h.handleGetPrices)
	mux.HandleFunc("/books", h.handleGetBook)
	mux.HandleFunc("/books/price", h.handleUpdatePrice)
}

// handleGetPrices 批量取价: GET /prices?ids=101,102
// 响应: {"prices": {"101": 10.00, "102": 20.00}}，查不到的 ID 不出现。
func (h *CatalogHandler) handleGetPrices(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	idsParam := r.URL.Query().Get("ids")
	if idsParam == "" {
		http.Error(w, "missing ids parameter", http.StatusBadRequest)
		return
	}

	var ids []int64
	for _, raw := range strings.Split(idsParam, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			http.Error(w, "invalid book id: "+raw, http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	prices, err := h.service.GetPrices(ctx, ids)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"prices": prices})
}

func (h *CatalogHandler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid book id", http.StatusBadRequest)
		return
	}

	book, err := h.service.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(book)
}

func (h *CatalogHandler) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		BookID int64   `json:"bookId"`
		Price  float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Price < 0 {
		http.Error(w, "price must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdatePrice(ctx, req.BookID, req.Price); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
