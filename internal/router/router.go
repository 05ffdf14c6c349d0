package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopcore-next/internal/authz"
	"github.com/shopcore-next/internal/cache"
	"github.com/shopcore-next/internal/config"
	adminhandlers "github.com/shopcore-next/internal/http/handlers/admin"
	publichandlers "github.com/shopcore-next/internal/http/handlers/public"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/provider"
	"github.com/shopcore-next/internal/telemetry"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const defaultRedisPrefix = "shopcore"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = defaultRedisPrefix
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}
	registerRule := loginRule
	registerRule.Prefix = fmt.Sprintf("%s:rate:register", redisPrefix)
	adminLoginRule := loginRule
	adminLoginRule.Prefix = fmt.Sprintf("%s:rate:admin_login", redisPrefix)
	orderRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order_create", redisPrefix),
		WindowSeconds: cfg.Security.OrderRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OrderRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
	}

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(telemetry.ServiceName(cfg.Telemetry)))
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(SessionMiddleware(c.SessionService))
	{
		apiV1.GET("/health", publicHandler.Health)
		apiV1.GET("/config", publicHandler.GetConfig)
		apiV1.GET("/captcha/image", publicHandler.GetImageCaptcha)
		apiV1.GET("/products", publicHandler.GetProducts)
		apiV1.GET("/products/:id", publicHandler.GetProduct)

		// 支付回调，签名校验在服务层完成
		apiV1.POST("/payments/webhook/stripe", publicHandler.StripeWebhook)
		apiV1.POST("/payments/callback/epusdt", publicHandler.EpusdtCallback)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, registerRule, KeyByIPAndJSONField("email")), publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)

			session := auth.Group("", RequireSession())
			session.POST("/logout", publicHandler.Logout)
			session.GET("/me", publicHandler.GetMe)
			session.PATCH("/profile", publicHandler.UpdateProfile)
			session.POST("/password", publicHandler.ChangePassword)
		}

		// 购物车：登录用户按会话归属，游客按 X-Cart-Key
		cart := apiV1.Group("/cart")
		{
			cart.POST("/key", publicHandler.IssueCartKey)
			cart.GET("", publicHandler.GetCart)
			cart.PUT("", publicHandler.ReplaceCart)
			cart.DELETE("", publicHandler.ClearCart)
			cart.POST("/items", publicHandler.AddCartItem)
			cart.PATCH("/items/:id", publicHandler.UpdateCartItem)
			cart.DELETE("/items/:id", publicHandler.DeleteCartItem)
		}

		orders := apiV1.Group("/orders")
		{
			orders.POST("/preview", publicHandler.PreviewOrder)
			orders.POST("", RateLimitMiddleware(redisClient, orderRule, KeyByIP), publicHandler.CreateOrder)
			orders.GET("", RequireSession(), publicHandler.ListOrders)
			orders.GET("/:order_no", publicHandler.GetOrder)
			orders.POST("/:order_no/cancel", publicHandler.CancelOrder)
			orders.POST("/:order_no/payment", publicHandler.AttachPayment)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			adminJWT := JWTAuthMiddleware(cfg.JWT.SecretKey, c.AuthService)

			// 本人信息与改密只需登录
			self := admin.Group("", adminJWT)
			{
				self.GET("/me", adminHandler.GetAdminMe)
				self.POST("/password", adminHandler.ChangeAdminPassword)
			}

			authorized := admin.Group("", adminJWT, AdminRBACMiddleware(c.AuthzService))
			{
				// 订单
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.PATCH("/orders/:id", adminHandler.AdminPatchOrder)
				authorized.DELETE("/orders/:id", adminHandler.AdminDeleteOrder)
				authorized.POST("/orders/:id/transition", adminHandler.AdminTransitionOrder)
				authorized.POST("/payments/confirm", adminHandler.AdminConfirmPayment)

				// 用户
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.PATCH("/users/:id/status", adminHandler.UpdateAdminUserStatus)

				// 商品
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.PATCH("/products/:id/active", adminHandler.SetProductActive)

				// 设置
				authorized.GET("/settings", adminHandler.GetSettings)
				authorized.GET("/settings/:key", adminHandler.GetSetting)
				authorized.PUT("/settings/:key", adminHandler.UpdateSetting)

				// 权限
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
				authorized.GET("/audit-logs", adminHandler.ListAuditLogs)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// adminUnguardedPaths 不经过 RBAC 的后台路由
var adminUnguardedPaths = map[string]struct{}{
	"/api/v1/admin/login":    {},
	"/api/v1/admin/me":       {},
	"/api/v1/admin/password": {},
}

// buildAdminPermissionCatalog 从已注册路由生成后台权限目录，供角色授权时选择
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if _, skip := adminUnguardedPaths[item.Path]; skip {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     permissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module != items[j].Module {
			return items[i].Module < items[j].Module
		}
		if items[i].Object != items[j].Object {
			return items[i].Object < items[j].Object
		}
		return items[i].Method < items[j].Method
	})
	return items
}

// permissionModule 取 /admin 之后的第一段作为模块名
func permissionModule(object string) string {
	segments := strings.Split(strings.Trim(object, "/"), "/")
	if len(segments) < 2 || segments[0] != "admin" {
		return "system"
	}
	return segments[1]
}
