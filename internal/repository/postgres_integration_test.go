//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.OrderEvent{},
		&models.OrderItem{},
		&models.Order{},
		&models.CartItem{},
		&models.Session{},
		&models.User{},
		&models.Product{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresCartAddQuantityConcurrent(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCartRepository(db)
	ctx := context.Background()

	product := &models.Product{SKU: "PG-CART", Name: "pg cart", PriceAmount: models.MustMoney("12.50"), IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AddQuantity(ctx, "user:42", product.ID, 1, 999)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent add failed: %v", err)
		}
	}

	items, err := repo.ListByOwner(ctx, "user:42")
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != workers {
		t.Fatalf("expected single row with quantity %d, got %+v", workers, items)
	}
}

func TestPostgresOrderNoUniqueViolation(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	newOrder := func() *models.Order {
		return &models.Order{
			OrderNo:        "SCPG000001",
			GuestEmail:     "pg@example.com",
			Status:         constants.OrderStatusPending,
			PaymentStatus:  constants.PaymentStatusPending,
			Currency:       "USD",
			SubtotalAmount: models.MustMoney("10"),
			TotalAmount:    models.MustMoney("10"),
		}
	}
	if err := repo.CreateHeader(ctx, newOrder()); err != nil {
		t.Fatalf("create first order failed: %v", err)
	}
	err := repo.CreateHeader(ctx, newOrder())
	if err == nil {
		t.Fatalf("expected duplicate order_no error")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	found, err := repo.GetByOrderNoAndGuest(ctx, "SCPG000001", "pg@example.com")
	if err != nil || found == nil {
		t.Fatalf("guest lookup failed: %v", err)
	}
}

func TestPostgresCompareAndSetStateSingleWinner(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &models.Order{
		OrderNo:        "SCPG000002",
		GuestEmail:     "pg@example.com",
		Status:         constants.OrderStatusPending,
		PaymentStatus:  constants.PaymentStatusPending,
		Currency:       "USD",
		SubtotalAmount: models.MustMoney("10"),
		TotalAmount:    models.MustMoney("10"),
	}
	if err := repo.CreateHeader(ctx, order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			affected, err := repo.CompareAndSetState(ctx, order.ID, "payment_status",
				constants.PaymentStatusPending, constants.PaymentStatusPaid, nil)
			if err != nil {
				t.Errorf("cas failed: %v", err)
				return
			}
			mu.Lock()
			winners += affected
			mu.Unlock()
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
