package public

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopcore-next/internal/cache"
	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Health 存活与依赖检查
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbStatus := "ok"
	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		dbStatus = "down"
	}
	redisStatus := "disabled"
	if cache.Enabled() {
		redisStatus = "ok"
		if err := cache.Ping(ctx); err != nil {
			redisStatus = "down"
		}
	}
	response.Success(c, gin.H{
		"status":  "ok",
		"version": h.Config.App.Version,
		"db":      dbStatus,
		"redis":   redisStatus,
		"queue":   h.QueueClient.Enabled(),
	})
}

// GetConfig 获取店铺公开配置（站点信息、计价策略、验证码开关）
func (h *Handler) GetConfig(c *gin.Context) {
	policy := h.OrderService.Policy()
	defaults := map[string]interface{}{
		"site_name": h.Config.App.Name,
	}
	site, err := h.SettingService.GetSiteConfig(c.Request.Context(), defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"site": site,
		"pricing": gin.H{
			"currency":     policy.Currency,
			"shipping_fee": policy.ShippingFee.StringFixed(2),
			"tax_rate":     policy.TaxRate.String(),
		},
		"captcha": h.CaptchaService.PublicSetting(),
	})
}

// GetProducts 商品列表（仅上架商品）
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListPublic(c.Request.Context(), search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.ProductService.GetPublicByID(c.Request.Context(), uint(id))
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
		}, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, product)
}
