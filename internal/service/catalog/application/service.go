package application

import (
	"context"

	"bookstore/internal/service/catalog/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CatalogService 暴露目录侧的查询能力，核心是给订单流程用的批量取价。
type CatalogService struct {
	repo   domain.BookRepository
	tracer trace.Tracer
}

func NewCatalogService(repo domain.BookRepository, tracer trace.Tracer) *CatalogService {
	return &CatalogService{repo: repo, tracer: tracer}
}

// GetPrices 返回请求的书目单价；查不到的 ID 不出现在结果里，
// 由调用方自己决定缺价意味着什么。
func (s *CatalogService) GetPrices(ctx context.Context, ids []int64) (map[int64]float64, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetPrices")
	defer span.End()
	span.SetAttributes(attribute.Int("book.count", len(ids)))

	return s.repo.FindPricesByIDs(ctx, ids)
}

// GetBook 查询单本书的详情。
func (s *CatalogService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetBook")
	defer span.End()

	return s.repo.FindByID(ctx, id)
}

// UpdatePrice 调整价格。
func (s *CatalogService) UpdatePrice(ctx context.Context, id int64, price float64) error {
	ctx, span := s.tracer.Start(ctx, "catalog.UpdatePrice")
	defer span.End()

	return s.repo.UpdatePrice(ctx, id, price)
}
