package public

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/payment"
	"github.com/cupom-store/internal/provider"
	"github.com/cupom-store/internal/repository"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type stubGateway struct {
	mu       sync.Mutex
	payments map[string]*payment.Status
	getErr   error
}

func (g *stubGateway) CreateCharge(_ context.Context, input payment.ChargeInput) (*payment.ChargeResult, error) {
	return &payment.ChargeResult{ID: "pay-charge", Status: constants.GatewayStatusPending}, nil
}

func (g *stubGateway) GetPayment(_ context.Context, paymentID string) (*payment.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	status, ok := g.payments[paymentID]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	copied := *status
	return &copied, nil
}

func (g *stubGateway) CreateCheckoutPreference(_ context.Context, input payment.PreferenceInput) (*payment.PreferenceResult, error) {
	return &payment.PreferenceResult{ID: "pref-1", InitPoint: "https://checkout.test/pref-1"}, nil
}

type nopNotifier struct{}

func (nopNotifier) SendCouponIssued(context.Context, *models.User, *models.Coupon) service.NotifyResult {
	return service.NotifyResult{Delivered: true}
}

func setupPublicTest(t *testing.T) (*Handler, *stubGateway, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:public_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	prev := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = prev
		_ = sqlDB.Close()
	})

	cfg := &config.Config{}
	cfg.Order.NumberMaxAttempts = 5
	cfg.Coupon.CodeMaxAttempts = 20
	gateway := &stubGateway{payments: map[string]*payment.Status{}}

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	userRepo := repository.NewUserRepository(db)
	specialDays := service.NewSpecialDayService(repository.NewSpecialDayRepository(db), cfg.SpecialDay)
	ledger := service.NewCouponLedger(couponRepo, cfg.Coupon)
	payments := service.NewPaymentService(orderRepo, productRepo, couponRepo, userRepo, ledger, gateway, nopNotifier{})

	container := &provider.Container{
		Config:            cfg,
		SpecialDayService: specialDays,
		CatalogService:    service.NewCatalogService(productRepo, specialDays),
		PaymentService:    payments,
		OrderService:      service.NewOrderService(orderRepo, productRepo, couponRepo, userRepo, specialDays, ledger, gateway, nil, cfg),
	}
	return New(container), gateway, db
}

func withUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, w.Body.String())
	}
	return body
}

func reasonOf(body map[string]interface{}) string {
	data, _ := body["data"].(map[string]interface{})
	reason, _ := data["reason"].(string)
	return reason
}

func TestMercadoPagoWebhook(t *testing.T) {
	h, gateway, _ := setupPublicTest(t)
	router := gin.New()
	router.POST("/webhooks/mercadopago", h.MercadoPagoWebhook)

	gateway.payments["pay-9"] = &payment.Status{ID: "pay-9", Status: constants.GatewayStatusApproved, ExternalReference: "desconhecido"}

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post(`{"type":"payment","data":{"id":"pay-9"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("unknown reference want 200 got %d: %s", w.Code, w.Body.String())
	}
	data, _ := decodeBody(t, w)["data"].(map[string]interface{})
	if data["action"] != service.ReconcileActionDropped {
		t.Fatalf("want dropped got %v", data["action"])
	}

	w = post(`{"type":"merchant_order","data":{"id":"77"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("ignored topic want 200 got %d", w.Code)
	}

	gateway.getErr = errors.New("connection reset")
	w = post(`{"type":"payment","data":{"id":"pay-9"}}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("gateway failure want 500 got %d", w.Code)
	}
}

func TestMercadoPagoWebhookQueryParams(t *testing.T) {
	h, gateway, _ := setupPublicTest(t)
	router := gin.New()
	router.POST("/webhooks/mercadopago", h.MercadoPagoWebhook)
	gateway.payments["55"] = &payment.Status{ID: "55", Status: constants.GatewayStatusPending, ExternalReference: "order:999"}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago?topic=payment&id=55", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestMercadoPagoWebhookRejectsInvalidSignature(t *testing.T) {
	h, _, _ := setupPublicTest(t)
	h.WebhookSecret = "segredo"
	router := gin.New()
	router.POST("/webhooks/mercadopago", h.MercadoPagoWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", bytes.NewBufferString(`{"type":"payment","data":{"id":"1"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-signature", "ts=1700000000,v1=deadbeef")
	req.Header.Set("x-request-id", "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 got %d", w.Code)
	}
}

func TestCreateOrderErrorMapping(t *testing.T) {
	h, _, db := setupPublicTest(t)
	user := &models.User{Email: "cliente@example.com", PasswordHash: "x", Name: "Cliente", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	product := &models.Product{Name: "Buquê", Price: models.MustMoney("80.00"), Stock: 3, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	now := time.Now().UTC()
	paidAt := now
	coupon := &models.Coupon{
		Code:            "CUPTESTE001",
		UserID:          user.ID,
		DiscountPercent: 10,
		AmountPaid:      models.MustMoney("9.90"),
		PurchasedAt:     now,
		ExpiresAt:       now.Add(24 * time.Hour),
		IsActive:        true,
		PaymentStatus:   constants.CouponPaymentApproved,
		PaidAt:          &paidAt,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	router := gin.New()
	router.POST("/orders", withUser(user.ID), h.CreateOrder)
	address := `"address":{"recipient_name":"Maria","zip_code":"01310-100","street":"Av. Paulista","number":"1000","city":"São Paulo","state":"SP"}`

	cases := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{
			name:   "malformed",
			body:   `{"items":[]}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "negative quantity",
			body:   fmt.Sprintf(`{"items":[{"product_id":%d,"quantity":-1}],%s}`, product.ID, address),
			status: http.StatusBadRequest,
			reason: "invalid_order_item",
		},
		{
			name:   "coupon outside special day",
			body:   fmt.Sprintf(`{"items":[{"product_id":%d,"quantity":1}],"coupon_code":"CUPTESTE001",%s}`, product.ID, address),
			status: http.StatusUnprocessableEntity,
			reason: constants.CouponReasonRequiresSpecialDay,
		},
		{
			name:   "insufficient stock",
			body:   fmt.Sprintf(`{"items":[{"product_id":%d,"quantity":9}],%s}`, product.ID, address),
			status: http.StatusUnprocessableEntity,
			reason: "insufficient_stock",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("want %d got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.reason != "" {
				if got := reasonOf(decodeBody(t, w)); got != tc.reason {
					t.Fatalf("want reason %s got %s", tc.reason, got)
				}
			}
		})
	}

	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("no order should be created, got %d", count)
	}
}

func TestCreateOrderReturnsCheckout(t *testing.T) {
	h, _, db := setupPublicTest(t)
	user := &models.User{Email: "ana@example.com", PasswordHash: "x", Name: "Ana", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	product := &models.Product{Name: "Caneca", Price: models.MustMoney("25.00"), Stock: 5, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	router := gin.New()
	router.POST("/orders", withUser(user.ID), h.CreateOrder)
	body := fmt.Sprintf(`{"items":[{"product_id":%d,"quantity":2}],"address":{"recipient_name":"Ana","zip_code":"20040-002","street":"Rua da Assembleia","number":"10","city":"Rio de Janeiro","state":"RJ"}}`, product.ID)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("want 201 got %d: %s", w.Code, w.Body.String())
	}
	data, _ := decodeBody(t, w)["data"].(map[string]interface{})
	pricing, _ := data["pricing"].(map[string]interface{})
	if pricing["total"] != "50.00" {
		t.Fatalf("want total 50.00 got %v", pricing["total"])
	}
	checkout, _ := data["checkout"].(map[string]interface{})
	if checkout == nil || checkout["init_point"] == "" {
		t.Fatalf("checkout missing: %v", data)
	}
}

func TestGetOrderRequiresUser(t *testing.T) {
	h, _, _ := setupPublicTest(t)
	router := gin.New()
	router.GET("/orders/:order_no", h.GetOrderByOrderNo)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/PD1", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 got %d", w.Code)
	}
}

func TestGetPaymentStatusChecksOwnership(t *testing.T) {
	h, gateway, db := setupPublicTest(t)
	owner := &models.User{Email: "owner@example.com", PasswordHash: "x", Name: "Dona", Status: constants.UserStatusActive, Locale: constants.LocalePtBR}
	other := &models.User{Email: "other@example.com", PasswordHash: "x", Name: "Outra", Status: constants.UserStatusActive, Locale: constants.LocalePtBR}
	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("create other: %v", err)
	}
	order := &models.Order{OrderNo: "PD20260101000000000001", UserID: owner.ID, Status: constants.OrderStatusPending, PaymentMethod: constants.PaymentMethodCheckout, TotalAmount: models.MustMoney("10.00")}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	gateway.payments["mp-1"] = &payment.Status{ID: "mp-1", Status: constants.GatewayStatusPending, ExternalReference: fmt.Sprintf("order:%d", order.ID), Amount: order.TotalAmount.Decimal}

	cases := []struct {
		name   string
		userID uint
		want   int
	}{
		{name: "foreign user", userID: other.ID, want: http.StatusNotFound},
		{name: "owner", userID: owner.ID, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/payments/:id/status", withUser(tc.userID), h.GetPaymentStatus)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/mp-1/status", nil))
			if w.Code != tc.want {
				t.Fatalf("want %d got %d (%s)", tc.want, w.Code, w.Body.String())
			}
		})
	}
}
