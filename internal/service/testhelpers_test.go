package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/queue"
	"github.com/shopcore-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// serviceTestEnv 服务层测试依赖
type serviceTestEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	sessions *SessionService
	carts    *CartService
	orders   *OrderService
	machine  *OrderStateMachine
	payments *PaymentService
	settings *SettingService
	users    *UserAuthService
	admins   *AuthService
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:service_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWT:     config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1},
		Session: config.SessionConfig{TTLHours: 1, CacheSeconds: 60},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8},
		},
		Pricing: config.PricingConfig{
			Currency:        "USD",
			ShippingFee:     "150",
			TaxRate:         "0.08",
			TaxScale:        0,
			MismatchEpsilon: "0.01",
		},
		Order: config.OrderConfig{PaymentExpireMinutes: 30, MaxItems: 100, MaxQuantity: 999},
		Payment: config.PaymentConfig{
			Stripe: config.StripeConfig{WebhookSecret: "whsec_test", WebhookToleranceSeconds: 300},
			Epusdt: config.EpusdtConfig{AuthToken: "epusdt-token"},
		},
	}
}

func newServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()
	db := openServiceTestDB(t)
	cfg := testConfig()
	queueClient, _ := queue.NewClient(nil)

	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	settings := NewSettingService(settingRepo)
	machine := NewOrderStateMachine(db, orderRepo, queueClient)
	env := &serviceTestEnv{
		db:       db,
		cfg:      cfg,
		sessions: NewSessionService(sessionRepo, cfg.Session),
		carts:    NewCartService(db, cartRepo, productRepo, cfg.Order),
		machine:  machine,
		settings: settings,
	}
	env.orders = NewOrderService(db, orderRepo, productRepo, machine, queueClient, settings, cfg.Pricing, cfg.Order)
	env.users = NewUserAuthService(cfg, userRepo, env.sessions, env.carts)
	env.admins = NewAuthService(cfg, adminRepo)
	env.payments = NewPaymentService(db, orderRepo, machine, ParseMismatchEpsilon(cfg.Pricing.MismatchEpsilon), cfg.Payment)
	return env
}

func (e *serviceTestEnv) seedProduct(t *testing.T, sku, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		SKU:         sku,
		Name:        "Product " + sku,
		PriceAmount: models.MustMoney(price),
		IsActive:    true,
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (e *serviceTestEnv) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  "tester",
		Status:       constants.UserStatusActive,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func testAddress() *models.Address {
	return &models.Address{
		Name:    "Jane Doe",
		Line1:   "1 Main St",
		City:    "Springfield",
		Country: "US",
	}
}
