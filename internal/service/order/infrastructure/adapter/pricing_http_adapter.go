package adapter

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"bookstore/internal/pkg/httpclient"
	"bookstore/internal/service/order/domain"
)

const catalogServiceName = "catalog-service"

// PricingHTTPAdapter 实现了 port.PricingService 接口。
// 任何传输层错误（不可达、超时、非 2xx）在这里统一翻译成
// CollaboratorUnavailableError，不让裸错误穿透到编排层。
type PricingHTTPAdapter struct {
	client *httpclient.Client
}

func NewPricingHTTPAdapter(client *httpclient.Client) *PricingHTTPAdapter {
	return &PricingHTTPAdapter{client: client}
}

func (a *PricingHTTPAdapter) GetPrices(ctx context.Context, bookIDs []int64) (map[int64]float64, error) {
	ids := make([]string, len(bookIDs))
	for i, id := range bookIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))

	var resp struct {
		Prices map[int64]float64 `json:"prices"`
	}
	if err := a.client.GetJSON(ctx, catalogServiceName, "/prices", params, &resp); err != nil {
		return nil, &domain.CollaboratorUnavailableError{Collaborator: catalogServiceName, Err: err}
	}
	// 目录里没有的书不出现在 resp.Prices 里，缺价的判定交给编排层
	return resp.Prices, nil
}
