package public

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
	handlershared "github.com/shopcore-next/internal/http/handlers/shared"
	"github.com/shopcore-next/internal/http/response"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/provider"
	"github.com/shopcore-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
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
	dsn := fmt.Sprintf("file:public_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		App:      config.AppConfig{Name: "shopcore", Version: "test"},
		JWT:      config.JWTConfig{SecretKey: "public-secret", ExpireHours: 1},
		Session:  config.SessionConfig{TTLHours: 1},
		Security: config.SecurityConfig{PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8}},
		Pricing:  config.PricingConfig{Currency: "USD", ShippingFee: "150", TaxRate: "0.08", MismatchEpsilon: "0.01"},
		Order:    config.OrderConfig{PaymentExpireMinutes: 30, MaxItems: 100, MaxQuantity: 999},
		Payment: config.PaymentConfig{
			Stripe: config.StripeConfig{WebhookSecret: "whsec_test", WebhookToleranceSeconds: 300},
			Epusdt: config.EpusdtConfig{AuthToken: "epusdt-token"},
		},
	}
	container, err := provider.NewContainer(cfg, db)
	require.NoError(t, err)
	return New(container)
}

// withIdentity 模拟会话中间件写入的上下文
func withIdentity(h *Handler, token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity := h.SessionService.Verify(c.Request.Context(), token); identity != nil {
			c.Set(handlershared.ContextKeyIdentity, identity)
			c.Set(handlershared.ContextKeyUserID, identity.UserID)
			c.Set(handlershared.ContextKeySessionToken, token)
		}
		c.Next()
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func seedProduct(t *testing.T, h *Handler, sku, price string) *models.Product {
	t.Helper()
	product := &models.Product{SKU: sku, Name: "Item " + sku, PriceAmount: models.MustMoney(price), IsActive: true}
	require.NoError(t, h.DB.Create(product).Error)
	return product
}

func testAddress() map[string]interface{} {
	return map[string]interface{}{"name": "Jane", "line1": "1 Main St", "city": "Springfield", "country": "US"}
}

func TestCartRequiresKeyForGuests(t *testing.T) {
	h := newTestHandler(t)
	router := gin.New()
	router.GET("/cart", h.GetCart)

	resp := doJSON(t, router, http.MethodGet, "/cart", nil, nil)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	resp = doJSON(t, router, http.MethodGet, "/cart", nil, map[string]string{handlershared.CartKeyHeader: "not-a-uuid"})
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)
}

func TestGuestCartFlow(t *testing.T) {
	h := newTestHandler(t)
	router := gin.New()
	router.GET("/cart", h.GetCart)
	router.POST("/cart/items", h.AddCartItem)
	router.PATCH("/cart/items/:id", h.UpdateCartItem)
	router.DELETE("/cart", h.ClearCart)

	product := seedProduct(t, h, "CART-1", "12.50")
	headers := map[string]string{handlershared.CartKeyHeader: uuid.NewString()}

	resp := doJSON(t, router, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID, "quantity": 2}, headers)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var view struct {
		Items []struct {
			ID       uint `json:"id"`
			Quantity int  `json:"quantity"`
		} `json:"items"`
		Subtotal string `json:"subtotal"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Len(t, view.Items, 1)
	require.Equal(t, "25.00", view.Subtotal)

	resp = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/cart/items/%d", view.Items[0].ID), gin.H{"quantity": 4}, headers)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Equal(t, "50.00", view.Subtotal)

	resp = doJSON(t, router, http.MethodPost, "/cart/items", gin.H{"product_id": product.ID + 100, "quantity": 1}, headers)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode)

	resp = doJSON(t, router, http.MethodDelete, "/cart", nil, headers)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Empty(t, view.Items)

	// 其他游客的购物车互不可见
	resp = doJSON(t, router, http.MethodGet, "/cart", nil, map[string]string{handlershared.CartKeyHeader: uuid.NewString()})
	require.Equal(t, response.CodeOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Empty(t, view.Items)
}

func TestGuestOrderLifecycle(t *testing.T) {
	h := newTestHandler(t)
	router := gin.New()
	router.POST("/orders/preview", h.PreviewOrder)
	router.POST("/orders", h.CreateOrder)
	router.GET("/orders/:order_no", h.GetOrder)
	router.POST("/orders/:order_no/cancel", h.CancelOrder)

	a := seedProduct(t, h, "ORD-A", "100")
	b := seedProduct(t, h, "ORD-B", "15")
	items := []gin.H{{"product_id": a.ID, "quantity": 1}, {"product_id": b.ID, "quantity": 2}}

	resp := doJSON(t, router, http.MethodPost, "/orders/preview", gin.H{"items": items}, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	require.Equal(t, "290.00", summary["total"])

	resp = doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"items":            items,
		"shipping_address": testAddress(),
		"summary":          summary,
	}, nil)
	require.Equal(t, response.CodeBadRequest, resp.StatusCode, "guest email is required")

	resp = doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"email":            "buyer@example.com",
		"items":            items,
		"shipping_address": testAddress(),
		"summary":          summary,
	}, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var order struct {
		OrderNo     string `json:"order_no"`
		TotalAmount string `json:"total_amount"`
		Status      string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	require.Equal(t, "290.00", order.TotalAmount)

	resp = doJSON(t, router, http.MethodGet, "/orders/"+strings.ToLower(order.OrderNo)+"?email=Buyer@Example.com", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)

	resp = doJSON(t, router, http.MethodGet, "/orders/"+order.OrderNo+"?email=someone@example.com", nil, nil)
	require.Equal(t, response.CodeNotFound, resp.StatusCode)

	resp = doJSON(t, router, http.MethodPost, "/orders/"+order.OrderNo+"/cancel", gin.H{"email": "buyer@example.com"}, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	require.Equal(t, "cancelled", order.Status)
}

func TestCreateOrderRejectsStaleSummary(t *testing.T) {
	h := newTestHandler(t)
	router := gin.New()
	router.POST("/orders", h.CreateOrder)

	product := seedProduct(t, h, "STALE-1", "100")
	resp := doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"email":            "stale@example.com",
		"items":            []gin.H{{"product_id": product.ID, "quantity": 1}},
		"shipping_address": testAddress(),
		"summary":          gin.H{"currency": "USD", "subtotal": "90.00", "shipping": "150.00", "tax": "7.20", "total": "247.20"},
	}, nil)
	require.Equal(t, response.CodeConflict, resp.StatusCode)

	var count int64
	h.DB.Model(&models.Order{}).Count(&count)
	require.Zero(t, count)
}

func TestUserRegisterMergesGuestCartAndListsOrders(t *testing.T) {
	h := newTestHandler(t)
	product := seedProduct(t, h, "USER-1", "20")
	cartKey := uuid.NewString()
	require.NoError(t, h.CartService.Add(t.Context(), mustGuestOwner(t, cartKey), product.ID, 3))

	router := gin.New()
	router.POST("/auth/register", h.Register)
	resp := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"email":    "new@example.com",
		"password": "Passw0rd!",
	}, map[string]string{handlershared.CartKeyHeader: cartKey})
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var session struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	require.NotEmpty(t, session.Token)

	resp = doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"email":    "NEW@example.com",
		"password": "Passw0rd!",
	}, nil)
	require.Equal(t, response.CodeConflict, resp.StatusCode)

	authed := gin.New()
	authed.Use(withIdentity(h, session.Token))
	authed.GET("/cart", h.GetCart)
	authed.GET("/auth/me", h.GetMe)
	authed.GET("/orders", h.ListOrders)
	authed.POST("/auth/logout", h.Logout)

	resp = doJSON(t, authed, http.MethodGet, "/cart", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)
	var view service.CartView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Len(t, view.Items, 1)
	require.Equal(t, 3, view.Items[0].Quantity)

	resp = doJSON(t, authed, http.MethodGet, "/auth/me", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)

	resp = doJSON(t, authed, http.MethodGet, "/orders", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)

	resp = doJSON(t, authed, http.MethodPost, "/auth/logout", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	require.Nil(t, h.SessionService.Verify(t.Context(), session.Token))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newTestHandler(t)
	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)

	resp := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{"email": "login@example.com", "password": "Passw0rd!"}, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode, resp.Msg)

	resp = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "login@example.com", "password": "wrong-pass"}, nil)
	require.Equal(t, response.CodeUnauthorized, resp.StatusCode)

	resp = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "login@example.com", "password": "Passw0rd!"}, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
}

func TestPaymentWebhookRejections(t *testing.T) {
	h := newTestHandler(t)
	router := gin.New()
	router.POST("/payments/webhook/stripe", h.StripeWebhook)
	router.POST("/payments/callback/epusdt", h.EpusdtCallback)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set(stripeSignatureHeader, "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/payments/callback/epusdt", strings.NewReader(`not-json`))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, epusdtCallbackFailure, w.Body.String())
}

func TestGetConfigExposesPricing(t *testing.T) {
	h := newTestHandler(t)
	router := gin.New()
	router.GET("/config", h.GetConfig)

	resp := doJSON(t, router, http.MethodGet, "/config", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	var data struct {
		Site    map[string]interface{} `json:"site"`
		Pricing map[string]string      `json:"pricing"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, "shopcore", data.Site["site_name"])
	require.Equal(t, "USD", data.Pricing["currency"])
	require.Equal(t, "150.00", data.Pricing["shipping_fee"])
}

func mustGuestOwner(t *testing.T, key string) string {
	t.Helper()
	owner, ok := service.GuestCartOwner(key)
	require.True(t, ok)
	return owner
}
