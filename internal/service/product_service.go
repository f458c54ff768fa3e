package service

import (
	"context"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
	"github.com/Lixing-Zhang/product-catalog/internal/repository"
)

// ProductService handles business logic for products
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns all available products
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates the draft and stores it, returning the assigned ID
func (s *ProductService) CreateProduct(ctx context.Context, draft models.Draft) (int64, error) {
	if err := draft.Validate(); err != nil {
		return 0, err
	}
	product, err := s.repo.Create(ctx, draft)
	if err != nil {
		return 0, err
	}
	return product.ID, nil
}

// UpdateProduct validates the draft and replaces the stored product
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, draft models.Draft) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, draft)
}

// DeleteProduct removes a product by ID
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
