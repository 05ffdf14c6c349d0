package public

import (
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest 修改数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// ReplaceCartRequest 整体覆盖购物车请求
type ReplaceCartRequest struct {
	Items []service.CartLine `json:"items"`
}

// IssueCartKey 为游客签发购物车标识
func (h *Handler) IssueCartKey(c *gin.Context) {
	response.Success(c, gin.H{"cart_key": service.NewGuestCartKey()})
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	h.respondCart(c, owner)
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CartService.Add(c.Request.Context(), owner, req.ProductID, req.Quantity); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.respondCart(c, owner)
}

// UpdateCartItem 修改购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CartService.SetQuantity(c.Request.Context(), owner, itemID, req.Quantity); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.respondCart(c, owner)
}

// DeleteCartItem 删除购物车项
func (h *Handler) DeleteCartItem(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CartService.Remove(c.Request.Context(), owner, itemID); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.respondCart(c, owner)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(c.Request.Context(), owner); err != nil {
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	h.respondCart(c, owner)
}

// ReplaceCart 以请求内容整体覆盖购物车
func (h *Handler) ReplaceCart(c *gin.Context) {
	owner, ok := resolveCartOwner(c)
	if !ok {
		return
	}
	var req ReplaceCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CartService.ReplaceAll(c.Request.Context(), owner, req.Items); err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.respondCart(c, owner)
}

func (h *Handler) respondCart(c *gin.Context, owner string) {
	view, err := h.CartService.List(c.Request.Context(), owner)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, view)
}
