package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, draft models.Draft) (models.Product, error)
	Update(ctx context.Context, id int64, draft models.Draft) error
	Delete(ctx context.Context, id int64) error
}

// InMemoryProductRepository implements ProductRepository with in-memory
// storage. Identifiers come from a counter that never reuses a value, even
// after deletes.
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[int64]models.Product
	nextID   int64
}

// SeedProducts returns the sample catalog the development backend starts with.
func SeedProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Claw Hammer", Description: "16 oz steel hammer with a fiberglass handle", Price: 18.99, Category: "Tools"},
		{ID: 2, Name: "Cordless Drill", Description: "18V drill/driver with two batteries", Price: 89.50, Category: "Tools"},
		{ID: 3, Name: "Tape Measure", Description: "25 ft locking tape measure", Price: 9.49, Category: "Tools"},
		{ID: 4, Name: "LED Desk Lamp", Description: "Dimmable lamp with USB charging port", Price: 34.00, Category: "Lighting"},
		{ID: 5, Name: "String Lights", Description: "10 m warm white outdoor string lights", Price: 22.75, Category: "Lighting"},
		{ID: 6, Name: "Ceramic Mug", Description: "350 ml stoneware mug, dishwasher safe", Price: 12.00, Category: "Kitchen"},
	}
}

// NewInMemoryProductRepository creates a repository holding the given
// products. The next assigned identifier follows the largest seeded one.
func NewInMemoryProductRepository(seed []models.Product) *InMemoryProductRepository {
	products := make(map[int64]models.Product, len(seed))
	var maxID int64
	for _, p := range seed {
		products[p.ID] = p
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	return &InMemoryProductRepository{
		products: products,
		nextID:   maxID + 1,
	}
}

// GetAll returns all products ordered by identifier
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Create stores the draft under a fresh identifier
func (r *InMemoryProductRepository) Create(ctx context.Context, draft models.Draft) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product := draft.WithID(r.nextID)
	r.nextID++
	r.products[product.ID] = product
	return product, nil
}

// Update replaces every non-id field of an existing product
func (r *InMemoryProductRepository) Update(ctx context.Context, id int64, draft models.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		return ErrProductNotFound
	}
	r.products[id] = draft.WithID(id)
	return nil
}

// Delete removes a product
func (r *InMemoryProductRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}
