package admin

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopcore-next/internal/constants"
	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
)

// TransitionOrderRequest 手动推进订单状态请求
type TransitionOrderRequest struct {
	Axis   string `json:"axis" binding:"required"`
	Target string `json:"target" binding:"required"`
	Note   string `json:"note"`
}

// AdminListOrders 订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := handlershared.QueryPagination(c)
	userID, ok := parseOptionalUintQuery(c, "user_id")
	if !ok {
		return
	}
	createdFrom, ok := parseTimeQuery(c, "created_from")
	if !ok {
		return
	}
	createdTo, ok := parseTimeQuery(c, "created_to")
	if !ok {
		return
	}

	orders, total, err := h.OrderService.ListAdminOrders(c.Request.Context(), repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        userID,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.ToUpper(strings.TrimSpace(c.Query("order_no"))),
		GuestEmail:    strings.ToLower(strings.TrimSpace(c.Query("guest_email"))),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// AdminGetOrder 订单详情（含状态流转记录）
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "error.bad_request")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondWithMappedError(c, err, orderTransitionErrorRules, response.CodeInternal, "error.fetch_failed")
		return
	}
	events, err := h.OrderService.GetOrderEvents(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"order": order, "events": events})
}

// AdminPatchOrder 部分更新订单，金额与订单项不可修改
func (h *Handler) AdminPatchOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "error.bad_request")
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := service.ValidatePatchKeys(raw); err != nil {
		respondWithMappedError(c, err, orderPatchErrorRules, response.CodeBadRequest, "error.bad_request")
		return
	}
	var patch service.OrderPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.UpdateOrder(c.Request.Context(), orderID, patch)
	if err != nil {
		respondWithMappedError(c, err, orderPatchErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "order_patch",
		ResourceType: models.AuditResourceOrder,
		ResourceID:   service.AuditResourceID(orderID),
		Detail:       models.JSON{"fields": patchFieldNames(raw)},
	})
	requestLog(c).Infow("admin_order_patched", "admin_id", currentAdminID(c), "order_id", orderID)
	response.Success(c, order)
}

// AdminDeleteOrder 删除订单及订单项
func (h *Handler) AdminDeleteOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "error.bad_request")
	if !ok {
		return
	}
	if err := h.OrderService.DeleteOrder(c.Request.Context(), orderID); err != nil {
		respondWithMappedError(c, err, orderTransitionErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "order_delete",
		ResourceType: models.AuditResourceOrder,
		ResourceID:   service.AuditResourceID(orderID),
	})
	requestLog(c).Infow("admin_order_deleted", "admin_id", currentAdminID(c), "order_id", orderID)
	response.Success(c, nil)
}

// AdminTransitionOrder 手动推进支付或履约状态
func (h *Handler) AdminTransitionOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id", "error.bad_request")
	if !ok {
		return
	}
	var req TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.StateMachine.Advance(c.Request.Context(), service.OrderRef{ID: orderID}, service.Signal{
		Axis:   strings.ToLower(strings.TrimSpace(req.Axis)),
		Target: strings.ToLower(strings.TrimSpace(req.Target)),
		Source: constants.TransitionSourceAdmin,
		Note:   strings.TrimSpace(req.Note),
	})
	if err != nil {
		respondWithMappedError(c, err, orderTransitionErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	h.recordAudit(c, service.AuditEntry{
		Action:       "order_transition",
		ResourceType: models.AuditResourceOrder,
		ResourceID:   service.AuditResourceID(orderID),
		Detail: models.JSON{
			"axis":    result.Axis,
			"from":    result.From,
			"to":      result.To,
			"outcome": result.Outcome,
		},
	})
	response.Success(c, result)
}

// patchFieldNames 返回补丁中出现的字段名，按字典序
func patchFieldNames(raw map[string]json.RawMessage) []string {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
