// Package catalog serves the read-only product list of the shop.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/internal/shop"
)

// Backend is the part of the CMS client the catalog needs.
type Backend interface {
	ListProducts(ctx context.Context) ([]shop.Product, error)
	FindProduct(ctx context.Context, id int64) (shop.Product, bool, error)
}

// Service lists and resolves products.
type Service struct {
	backend Backend
}

// NewService wraps a CMS backend.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// ListProducts returns every product in backend order. An empty catalog is not an error.
func (s *Service) ListProducts(ctx context.Context) ([]shop.Product, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "service.catalog", "products.listed", slog.Int("count", len(products)))
	}
	return products, nil
}

// GetProduct returns one product or a *shop.NotFoundError.
func (s *Service) GetProduct(ctx context.Context, id int64) (shop.Product, error) {
	if id <= 0 {
		return shop.Product{}, &shop.NotFoundError{Kind: "product", ID: strconv.FormatInt(id, 10)}
	}
	p, ok, err := s.backend.FindProduct(ctx, id)
	if err != nil {
		return shop.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	if !ok {
		return shop.Product{}, &shop.NotFoundError{Kind: "product", ID: strconv.FormatInt(id, 10)}
	}
	return p, nil
}
