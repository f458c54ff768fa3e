package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

func TestInMemoryProductRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryProductRepository(SeedProducts())

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != len(SeedProducts()) {
		t.Fatalf("expected %d products, got %d", len(SeedProducts()), len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("products not ordered by id: %d before %d", all[i-1].ID, all[i].ID)
		}
	}

	draft := models.Draft{Name: "Widget", Description: "A widget", Price: 9.99, Category: "Tools"}
	created, err := repo.Create(ctx, draft)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != 7 {
		t.Errorf("expected id 7, got %d", created.ID)
	}

	updated := models.Draft{Name: "Widget Pro", Description: "A better widget", Price: 19.99, Category: "Tools"}
	if err := repo.Update(ctx, created.ID, updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Draft() != updated {
		t.Errorf("expected %+v, got %+v", updated, got.Draft())
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestInMemoryProductRepository_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryProductRepository(nil)
	draft := models.Draft{Name: "A", Description: "a", Price: 1, Category: "C"}

	first, _ := repo.Create(ctx, draft)
	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	second, _ := repo.Create(ctx, draft)

	if second.ID == first.ID {
		t.Errorf("identifier %d was reused", first.ID)
	}
}

func TestInMemoryProductRepository_UnknownID(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryProductRepository(nil)

	if err := repo.Update(ctx, 42, models.Draft{}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Update: expected ErrProductNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, 42); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Delete: expected ErrProductNotFound, got %v", err)
	}
}
