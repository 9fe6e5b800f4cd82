package application

import (
	"context"
	"errors"
	"testing"

	"bookstore/internal/service/catalog/domain"

	"go.opentelemetry.io/otel"
)

type memBookRepo struct {
	books map[int64]*domain.Book
}

func (r *memBookRepo) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	book, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

func (r *memBookRepo) FindPricesByIDs(ctx context.Context, ids []int64) (map[int64]float64, error) {
	out := make(map[int64]float64)
	for _, id := range ids {
		if book, ok := r.books[id]; ok {
			out[id] = book.Price
		}
	}
	return out, nil
}

func (r *memBookRepo) UpdatePrice(ctx context.Context, id int64, price float64) error {
	book, ok := r.books[id]
	if !ok {
		return domain.ErrBookNotFound
	}
	book.Price = price
	return nil
}

func newTestCatalog(books ...*domain.Book) *CatalogService {
	repo := &memBookRepo{books: make(map[int64]*domain.Book)}
	for _, book := range books {
		repo.books[book.ID] = book
	}
	return NewCatalogService(repo, otel.Tracer("test"))
}

func TestGetPrices_OmitsUnknownBooks(t *testing.T) {
	svc := newTestCatalog(
		&domain.Book{ID: 101, Title: "The Go Programming Language", Price: 10.00},
		&domain.Book{ID: 102, Title: "Designing Data-Intensive Applications", Price: 20.00},
	)

	prices, err := svc.GetPrices(context.Background(), []int64{101, 102, 999})
	if err != nil {
		t.Fatalf("GetPrices failed: %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("expected 2 prices, got %v", prices)
	}
	if prices[101] != 10.00 || prices[102] != 20.00 {
		t.Errorf("unexpected prices: %v", prices)
	}
	if _, ok := prices[999]; ok {
		t.Error("an unknown book must be omitted from the result, not zero-priced")
	}
}

func TestUpdatePrice(t *testing.T) {
	svc := newTestCatalog(&domain.Book{ID: 101, Price: 10.00})

	if err := svc.UpdatePrice(context.Background(), 101, 12.50); err != nil {
		t.Fatalf("UpdatePrice failed: %v", err)
	}
	book, err := svc.GetBook(context.Background(), 101)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if book.Price != 12.50 {
		t.Errorf("price = %v, want 12.50", book.Price)
	}

	if err := svc.UpdatePrice(context.Background(), 999, 1.00); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}
