package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"
	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/provider"
	"github.com/shopcore-next/internal/repository"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:admin_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		JWT:      config.JWTConfig{SecretKey: "admin-secret", ExpireHours: 1},
		Session:  config.SessionConfig{TTLHours: 1},
		Security: config.SecurityConfig{PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8}},
		Pricing:  config.PricingConfig{Currency: "USD", ShippingFee: "150", TaxRate: "0.08", MismatchEpsilon: "0.01"},
		Order:    config.OrderConfig{PaymentExpireMinutes: 30, MaxItems: 100, MaxQuantity: 999},
	}
	container, err := provider.NewContainer(cfg, db)
	require.NoError(t, err)
	return New(container)
}

// asAdmin 模拟管理端鉴权中间件写入的上下文
func asAdmin(admin *models.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(handlershared.ContextKeyAdminID, admin.ID)
		c.Set(handlershared.ContextKeyAdminName, admin.Username)
		c.Set(handlershared.ContextKeyAdminIsSuper, admin.IsSuper)
		c.Next()
	}
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func seedGuestOrder(t *testing.T, h *Handler) *models.Order {
	t.Helper()
	ctx := t.Context()
	product := &models.Product{SKU: "ADM-" + t.Name(), Name: "Widget", PriceAmount: models.MustMoney("100"), IsActive: true}
	require.NoError(t, h.DB.Create(product).Error)
	items := []service.CreateOrderItem{{ProductID: product.ID, Quantity: 1}}
	summary, err := h.OrderService.PreviewSummary(ctx, items)
	require.NoError(t, err)
	order, err := h.OrderService.CreateOrder(ctx, service.CreateOrderInput{
		GuestEmail:      "guest@example.com",
		Items:           items,
		ShippingAddress: &models.Address{Name: "Jane", Line1: "1 Main St", City: "Springfield", Country: "US"},
		PaymentMethod:   constants.PaymentMethodCard,
		Summary:         summary,
	})
	require.NoError(t, err)
	return order
}

func TestAdminLogin(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.AuthService.CreateAdmin(t.Context(), "ops", "Sup3rSecret", false)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/admin/login", h.AdminLogin)

	resp := doRequest(t, router, http.MethodPost, "/admin/login", `{"username":"ops","password":"wrong-password"}`)
	require.Equal(t, response.CodeUnauthorized, resp.StatusCode)

	resp = doRequest(t, router, http.MethodPost, "/admin/login", `{"username":"ops","password":"Sup3rSecret"}`)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var data LoginResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Token)

	claims, err := h.AuthService.ParseJWT(data.Token)
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Username)
}

func TestAdminPatchOrderRejectsImmutableFields(t *testing.T) {
	h := newTestHandler(t)
	admin, err := h.AuthService.CreateAdmin(t.Context(), "root", "Sup3rSecret", true)
	require.NoError(t, err)
	order := seedGuestOrder(t, h)

	router := gin.New()
	router.Use(asAdmin(admin))
	router.PATCH("/admin/orders/:id", h.AdminPatchOrder)
	path := fmt.Sprintf("/admin/orders/%d", order.ID)

	resp := doRequest(t, router, http.MethodPatch, path, `{"total_amount":"1.00"}`)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	resp = doRequest(t, router, http.MethodPatch, path, `{}`)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	resp = doRequest(t, router, http.MethodPatch, path, `{"notes":"gift wrap","status":"confirmed"}`)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var updated models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &updated))
	require.Equal(t, "gift wrap", updated.Notes)
	require.Equal(t, constants.OrderStatusConfirmed, updated.Status)
	require.True(t, updated.TotalAmount.Equal(order.TotalAmount.Decimal))
}

func TestAdminTransitionAndConfirm(t *testing.T) {
	h := newTestHandler(t)
	admin, err := h.AuthService.CreateAdmin(t.Context(), "root", "Sup3rSecret", true)
	require.NoError(t, err)
	order := seedGuestOrder(t, h)

	router := gin.New()
	router.Use(asAdmin(admin))
	router.POST("/admin/orders/:id/transition", h.AdminTransitionOrder)
	router.POST("/admin/payments/confirm", h.AdminConfirmPayment)
	router.GET("/admin/orders/:id", h.AdminGetOrder)

	path := fmt.Sprintf("/admin/orders/%d/transition", order.ID)
	resp := doRequest(t, router, http.MethodPost, path, `{"axis":"fulfillment","target":"delivered"}`)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	resp = doRequest(t, router, http.MethodPost, path, `{"axis":"shipping","target":"delivered"}`)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	body := fmt.Sprintf(`{"order_no":%q,"provider_status":"success","amount":"250.00"}`, order.OrderNo)
	resp = doRequest(t, router, http.MethodPost, "/admin/payments/confirm", body)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode, "amount mismatch must be rejected")

	body = fmt.Sprintf(`{"order_no":%q,"provider_status":"success","amount":%q}`, order.OrderNo, order.TotalAmount.StringFixed(2))
	resp = doRequest(t, router, http.MethodPost, "/admin/payments/confirm", body)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var result struct {
		Outcome string `json:"outcome"`
		To      string `json:"to"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	require.Equal(t, constants.PaymentStatusPaid, result.To)

	resp = doRequest(t, router, http.MethodGet, fmt.Sprintf("/admin/orders/%d", order.ID), "")
	require.Equal(t, response.CodeOK, resp.StatusCode)
	var detail struct {
		Order  models.Order        `json:"order"`
		Events []models.OrderEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	require.Equal(t, constants.PaymentStatusPaid, detail.Order.PaymentStatus)
	require.Len(t, detail.Events, 1)
	require.Equal(t, constants.TransitionSourceAdmin, detail.Events[0].Source)
}

func TestAdminProductAndSettings(t *testing.T) {
	h := newTestHandler(t)
	admin, err := h.AuthService.CreateAdmin(t.Context(), "root", "Sup3rSecret", true)
	require.NoError(t, err)

	router := gin.New()
	router.Use(asAdmin(admin))
	router.POST("/admin/products", h.CreateProduct)
	router.PATCH("/admin/products/:id/active", h.SetProductActive)
	router.PUT("/admin/settings/:key", h.UpdateSetting)
	router.GET("/admin/settings/:key", h.GetSetting)

	resp := doRequest(t, router, http.MethodPost, "/admin/products", `{"sku":"NEW-1","name":"Lamp","price_amount":"42.50"}`)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var product models.Product
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	require.True(t, product.IsActive)

	resp = doRequest(t, router, http.MethodPost, "/admin/products", `{"sku":"NEW-1","name":"Lamp","price_amount":"42.50"}`)
	require.Equal(t, response.CodeConflict, resp.StatusCode)

	resp = doRequest(t, router, http.MethodPatch, fmt.Sprintf("/admin/products/%d/active", product.ID), `{"is_active":false}`)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	require.False(t, product.IsActive)

	resp = doRequest(t, router, http.MethodPut, "/admin/settings/unknown_key", `{"a":1}`)
	require.Equal(t, response.CodeNotFound, resp.StatusCode)

	resp = doRequest(t, router, http.MethodPut, "/admin/settings/"+constants.SettingKeySiteConfig, `{"site_name":"Corner Shop"}`)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)

	resp = doRequest(t, router, http.MethodGet, "/admin/settings/"+constants.SettingKeySiteConfig, "")
	require.Equal(t, response.CodeOK, resp.StatusCode)
	var site map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &site))
	require.Equal(t, "Corner Shop", site[constants.SettingFieldSiteName])
}

func TestCreateAuthzAdminRequiresSuperForSuper(t *testing.T) {
	h := newTestHandler(t)
	operator, err := h.AuthService.CreateAdmin(t.Context(), "ops", "Sup3rSecret", false)
	require.NoError(t, err)

	router := gin.New()
	router.Use(asAdmin(operator))
	router.POST("/admin/authz/admins", h.CreateAuthzAdmin)

	resp := doRequest(t, router, http.MethodPost, "/admin/authz/admins", `{"username":"boss","password":"Sup3rSecret","is_super":true}`)
	require.Equal(t, response.CodeForbidden, resp.StatusCode)

	resp = doRequest(t, router, http.MethodPost, "/admin/authz/admins", `{"username":"clerk","password":"Sup3rSecret"}`)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)

	resp = doRequest(t, router, http.MethodPost, "/admin/authz/admins", `{"username":"clerk","password":"Sup3rSecret"}`)
	require.Equal(t, response.CodeConflict, resp.StatusCode)

	logs, total, err := h.AuditService.List(t.Context(), repository.AdminAuditLogFilter{Page: 1, PageSize: 20, ResourceType: models.AuditResourceAdmin})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "admin_create", logs[0].Action)
	require.Equal(t, operator.ID, logs[0].AdminID)
}
