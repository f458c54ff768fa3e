// Package catalog binds the products API to the query cache: the products
// list query, the create/update/delete mutations and the table of keys each
// mutation invalidates.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
	"github.com/Lixing-Zhang/product-catalog/internal/querycache"
)

// ProductsKey caches the full product list.
const ProductsKey querycache.Key = "products"

// Mutation kinds registered with the store.
const (
	CreateProduct querycache.MutationKind = "create"
	UpdateProduct querycache.MutationKind = "update"
	DeleteProduct querycache.MutationKind = "delete"
)

// ValidationError is returned by Create and Update when a draft is rejected
// before any request is sent.
type ValidationError = models.ValidationError

// ProductsAPI is the remote resource the catalog reads and mutates.
// *client.Client satisfies it.
type ProductsAPI interface {
	List(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, draft models.Draft) (int64, error)
	Update(ctx context.Context, id int64, draft models.Draft) error
	Delete(ctx context.Context, id int64) error
}

// ProductsState is a typed view of the products entry.
type ProductsState struct {
	Products   []models.Product
	IsLoading  bool
	IsFetching bool
	Err        error
	Version    uint64
}

// Catalog exposes the product operations the UI and CLI use.
type Catalog struct {
	api    ProductsAPI
	store  *querycache.Store
	logger *slog.Logger
}

// New registers the products query and the mutation table on store.
func New(api ProductsAPI, store *querycache.Store, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{api: api, store: store, logger: logger}

	if err := store.Register(ProductsKey, c.fetchProducts); err != nil {
		return nil, fmt.Errorf("register products query: %w", err)
	}
	store.Invalidates(CreateProduct, ProductsKey)
	store.Invalidates(UpdateProduct, ProductsKey)
	store.Invalidates(DeleteProduct, ProductsKey)

	return c, nil
}

func (c *Catalog) fetchProducts(ctx context.Context) (any, error) {
	products, err := c.api.List(ctx)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Store returns the query cache the catalog is bound to.
func (c *Catalog) Store() *querycache.Store {
	return c.store
}

// WatchProducts subscribes fn to the product list. A request is issued
// immediately, even when the list is already cached.
func (c *Catalog) WatchProducts(fn func(ProductsState)) (*querycache.Subscription, error) {
	return c.store.Subscribe(ProductsKey, func(snap querycache.Snapshot) {
		if fn != nil {
			fn(StateOf(snap))
		}
	})
}

// StateOf converts a products snapshot into its typed form.
func StateOf(snap querycache.Snapshot) ProductsState {
	products, _ := querycache.Value[[]models.Product](snap)
	return ProductsState{
		Products:   products,
		IsLoading:  snap.IsLoading,
		IsFetching: snap.IsFetching,
		Err:        snap.Err,
		Version:    snap.Version,
	}
}

// Products returns the product list, from cache when it is fresh. The
// returned slice is a copy.
func (c *Catalog) Products(ctx context.Context) ([]models.Product, error) {
	v, err := c.store.Fetch(ctx, ProductsKey)
	if err != nil {
		return nil, err
	}
	products, _ := v.([]models.Product)
	return slices.Clone(products), nil
}

// Refresh refetches the product list in the background.
func (c *Catalog) Refresh() error {
	return c.store.Refetch(ProductsKey)
}

// Focus refetches every watched query, as when the terminal regains focus.
func (c *Catalog) Focus() {
	c.store.Focus()
}

// Create validates draft and sends it. onSuccess, when set, runs before the
// product list is invalidated.
func (c *Catalog) Create(ctx context.Context, draft models.Draft, onSuccess func(id int64)) (int64, error) {
	if err := draft.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := c.store.RunMutation(ctx, CreateProduct,
		func(ctx context.Context) error {
			var err error
			id, err = c.api.Create(ctx, draft)
			return err
		},
		func() {
			c.logger.Info("product created", "id", id, "name", draft.Name)
			if onSuccess != nil {
				onSuccess(id)
			}
		},
	)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// Update validates draft and replaces product id with it.
func (c *Catalog) Update(ctx context.Context, id int64, draft models.Draft, onSuccess func()) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	err := c.store.RunMutation(ctx, UpdateProduct,
		func(ctx context.Context) error { return c.api.Update(ctx, id, draft) },
		func() {
			c.logger.Info("product updated", "id", id)
			if onSuccess != nil {
				onSuccess()
			}
		},
	)
	if err != nil {
		return fmt.Errorf("update product %d: %w", id, err)
	}
	return nil
}

// Delete removes product id.
func (c *Catalog) Delete(ctx context.Context, id int64, onSuccess func()) error {
	err := c.store.RunMutation(ctx, DeleteProduct,
		func(ctx context.Context) error { return c.api.Delete(ctx, id) },
		func() {
			c.logger.Info("product deleted", "id", id)
			if onSuccess != nil {
				onSuccess()
			}
		},
	)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}
