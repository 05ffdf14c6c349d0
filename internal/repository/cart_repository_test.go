package repository

import (
	"context"
	"testing"

	"github.com/shopcore-next/internal/models"
)

func TestCartRepositoryAddQuantityUpsertsSingleRow(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()
	product := seedRepositoryProduct(t, db, "CART-A", "10")

	for i := 0; i < 5; i++ {
		applied, err := repo.AddQuantity(ctx, "user:1", product.ID, 1, 999)
		if err != nil || !applied {
			t.Fatalf("add quantity failed: applied=%v err=%v", applied, err)
		}
	}

	var rows []models.CartItem
	if err := db.Where("owner_key = ?", "user:1").Find(&rows).Error; err != nil {
		t.Fatalf("load cart rows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", rows[0].Quantity)
	}
}

func TestCartRepositoryAddQuantityRespectsLineLimit(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()
	product := seedRepositoryProduct(t, db, "CART-CAP", "10")

	for i := 0; i < 2; i++ {
		applied, err := repo.AddQuantity(ctx, "user:1", product.ID, 4, 10)
		if err != nil || !applied {
			t.Fatalf("add within limit failed: applied=%v err=%v", applied, err)
		}
	}
	applied, err := repo.AddQuantity(ctx, "user:1", product.ID, 4, 10)
	if err != nil {
		t.Fatalf("add over limit returned error: %v", err)
	}
	if applied {
		t.Fatalf("add over limit should not be applied")
	}
	applied, err = repo.AddQuantity(ctx, "user:1", product.ID, 11, 10)
	if err != nil || applied {
		t.Fatalf("single add over limit should not be applied: applied=%v err=%v", applied, err)
	}

	items, err := repo.ListByOwner(ctx, "user:1")
	if err != nil || len(items) != 1 {
		t.Fatalf("list failed: %v len=%d", err, len(items))
	}
	if items[0].Quantity != 8 {
		t.Fatalf("expected quantity 8, got %d", items[0].Quantity)
	}
}

func TestCartRepositoryOwnerScoping(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()
	product := seedRepositoryProduct(t, db, "CART-B", "10")

	if _, err := repo.AddQuantity(ctx, "user:1", product.ID, 2, 999); err != nil {
		t.Fatalf("add quantity failed: %v", err)
	}
	items, err := repo.ListByOwner(ctx, "user:1")
	if err != nil || len(items) != 1 {
		t.Fatalf("list owner items failed: %v len=%d", err, len(items))
	}
	if items[0].Product == nil || items[0].Product.SKU != "CART-B" {
		t.Fatalf("expected product preloaded")
	}

	affected, err := repo.UpdateQuantity(ctx, items[0].ID, "user:2", 9)
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("foreign owner should not update row")
	}
	if err := repo.DeleteByIDAndOwner(ctx, items[0].ID, "user:2"); err != nil {
		t.Fatalf("delete foreign item failed: %v", err)
	}
	items, err = repo.ListByOwner(ctx, "user:1")
	if err != nil || len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("item should survive foreign delete: %v", err)
	}

	if err := repo.ClearByOwner(ctx, "user:1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := repo.ClearByOwner(ctx, "user:1"); err != nil {
		t.Fatalf("second clear should be idempotent: %v", err)
	}
	items, _ = repo.ListByOwner(ctx, "user:1")
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d", len(items))
	}
}

func TestCartRepositorySubtractQuantity(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()
	a := seedRepositoryProduct(t, db, "SUB-A", "10")
	b := seedRepositoryProduct(t, db, "SUB-B", "10")

	if _, err := repo.AddQuantity(ctx, "user:1", a.ID, 5, 999); err != nil {
		t.Fatalf("add a failed: %v", err)
	}
	if _, err := repo.AddQuantity(ctx, "user:1", b.ID, 2, 999); err != nil {
		t.Fatalf("add b failed: %v", err)
	}

	if err := repo.SubtractQuantity(ctx, "user:1", a.ID, 3); err != nil {
		t.Fatalf("subtract a failed: %v", err)
	}
	if err := repo.SubtractQuantity(ctx, "user:1", b.ID, 4); err != nil {
		t.Fatalf("subtract b failed: %v", err)
	}
	if err := repo.SubtractQuantity(ctx, "user:2", a.ID, 1); err != nil {
		t.Fatalf("subtract foreign owner failed: %v", err)
	}

	items, err := repo.ListByOwner(ctx, "user:1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != a.ID || items[0].Quantity != 2 {
		t.Fatalf("unexpected cart after subtract: %+v", items)
	}
}
