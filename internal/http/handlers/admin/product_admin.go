package admin

import (
	"strings"

	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	SKU         string          `json:"sku" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	PriceAmount decimal.Decimal `json:"price_amount"`
	Image       string          `json:"image"`
	IsActive    *bool           `json:"is_active"`
	SortOrder   int             `json:"sort_order"`
}

// SetProductActiveRequest 上下架请求
type SetProductActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (r ProductRequest) toInput() service.CreateProductInput {
	return service.CreateProductInput{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		PriceAmount: r.PriceAmount,
		Image:       r.Image,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
}

// GetAdminProducts 商品列表（含下架商品）
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	products, total, err := h.ProductService.ListAdmin(c.Request.Context(), strings.TrimSpace(c.Query("search")), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.NewPagination(page, pageSize, total))
}

// GetAdminProduct 商品详情
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "error.bad_request")
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdminByID(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, productAdminErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondWithMappedError(c, err, productAdminErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "product_create",
		ResourceType: models.AuditResourceProduct,
		ResourceID:   service.AuditResourceID(product.ID),
	})
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "error.bad_request")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, productAdminErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "product_update",
		ResourceType: models.AuditResourceProduct,
		ResourceID:   service.AuditResourceID(id),
	})
	response.Success(c, product)
}

// SetProductActive 上下架商品
func (h *Handler) SetProductActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "error.bad_request")
	if !ok {
		return
	}
	var req SetProductActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondWithMappedError(c, err, productAdminErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "product_set_active",
		ResourceType: models.AuditResourceProduct,
		ResourceID:   service.AuditResourceID(id),
		Detail:       models.JSON{"is_active": *req.IsActive},
	})
	response.Success(c, product)
}
