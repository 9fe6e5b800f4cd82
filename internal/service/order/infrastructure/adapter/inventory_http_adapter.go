package adapter

import (
	"context"
	"encoding/json"
	"net/http"

	"bookstore/internal/pkg/httpclient"
	"bookstore/internal/service/order/domain"

	"github.com/pkg/errors"
)

const inventoryServiceName = "inventory-service"

// inventoryErrorBody 是库存服务错误响应的约定格式。
type inventoryErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	BookID    int64  `json:"bookId"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// InventoryHTTPAdapter 实现了 port.InventoryService 接口。
// 409 响应按约定的错误码还原成领域错误（现货不足 / 版本冲突），
// 其余失败一律归类为协作方不可用。
type InventoryHTTPAdapter struct {
	client *httpclient.Client
}

func NewInventoryHTTPAdapter(client *httpclient.Client) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client}
}

func (a *InventoryHTTPAdapter) CheckBulkAvailability(ctx context.Context, items map[int64]int) (map[int64]bool, error) {
	var resp struct {
		Availability map[int64]bool `json:"availability"`
	}
	req := map[string]interface{}{"items": items}
	if err := a.client.PostJSON(ctx, inventoryServiceName, "/stocks/check", req, &resp); err != nil {
		return nil, &domain.CollaboratorUnavailableError{Collaborator: inventoryServiceName, Err: err}
	}
	return resp.Availability, nil
}

func (a *InventoryHTTPAdapter) ReduceBulk(ctx context.Context, items map[int64]int) error {
	req := map[string]interface{}{"items": items}
	err := a.client.PostJSON(ctx, inventoryServiceName, "/stocks/reduce", req, nil)
	if err == nil {
		return nil
	}
	return a.classifyReduceError(err)
}

func (a *InventoryHTTPAdapter) classifyReduceError(err error) error {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return &domain.CollaboratorUnavailableError{Collaborator: inventoryServiceName, Err: err}
	}

	var body inventoryErrorBody
	_ = json.Unmarshal(statusErr.Body, &body)

	switch {
	case statusErr.StatusCode == http.StatusConflict && body.Error == "insufficient_stock":
		return &domain.InsufficientStockError{
			BookID:    body.BookID,
			Available: body.Available,
			Requested: body.Requested,
		}
	case statusErr.StatusCode == http.StatusConflict && body.Error == "version_conflict":
		return domain.ErrStockConflict
	case statusErr.StatusCode == http.StatusNotFound:
		return domain.ErrItemNotFound
	default:
		return &domain.CollaboratorUnavailableError{Collaborator: inventoryServiceName, Err: statusErr}
	}
}
