package provider

import (
	"fmt"

	"github.com/shopcore-next/internal/authz"
	"github.com/shopcore-next/internal/cache"
	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/queue"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	SessionRepo       repository.SessionRepository
	ProductRepo       repository.ProductRepository
	CartRepo          repository.CartRepository
	OrderRepo         repository.OrderRepository
	SettingRepo       repository.SettingRepository
	AdminAuditLogRepo repository.AdminAuditLogRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	SessionService    *service.SessionService
	UserAuthService   *service.UserAuthService
	UserAdminService  *service.UserAdminService
	CaptchaService    *service.CaptchaService
	ProductService    *service.ProductService
	SettingService    *service.SettingService
	CartService       *service.CartService
	StateMachine      *service.OrderStateMachine
	OrderService      *service.OrderService
	PaymentService    *service.PaymentService
	AuditService      *service.AdminAuditService
}

// NewContainer 初始化容器，数据库句柄由调用方打开并持有
func NewContainer(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("container requires config and db")
	}
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.SessionRepo = repository.NewSessionRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AdminAuditLogRepo = repository.NewAdminAuditLogRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}
	c.AuthzService = authzService

	cfg := c.Config
	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.CaptchaService = service.NewCaptchaService(cfg.Captcha)
	c.AuthService = service.NewAuthService(cfg, c.AdminRepo)
	c.SessionService = service.NewSessionService(c.SessionRepo, cfg.Session)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.DB, c.CartRepo, c.ProductRepo, cfg.Order)
	c.UserAuthService = service.NewUserAuthService(cfg, c.UserRepo, c.SessionService, c.CartService)
	c.UserAdminService = service.NewUserAdminService(c.UserRepo, c.SessionService)
	c.StateMachine = service.NewOrderStateMachine(c.DB, c.OrderRepo, c.QueueClient)
	c.OrderService = service.NewOrderService(c.DB, c.OrderRepo, c.ProductRepo, c.StateMachine, c.QueueClient, c.SettingService, cfg.Pricing, cfg.Order)
	c.PaymentService = service.NewPaymentService(c.DB, c.OrderRepo, c.StateMachine, service.ParseMismatchEpsilon(cfg.Pricing.MismatchEpsilon), cfg.Payment)
	c.AuditService = service.NewAdminAuditService(c.AdminAuditLogRepo)
	return nil
}

// Close 释放容器持有的外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
