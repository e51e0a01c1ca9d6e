package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cupom-store/internal/authz"
	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/provider"
	"github.com/cupom-store/internal/repository"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAdminTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:admin_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "admin-test"
	cfg.Order.NumberMaxAttempts = 5
	adminRepo := repository.NewAdminRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	userRepo := repository.NewUserRepository(db)
	specialDays := service.NewSpecialDayService(repository.NewSpecialDayRepository(db), cfg.SpecialDay)
	ledger := service.NewCouponLedger(couponRepo, cfg.Coupon)

	container := &provider.Container{
		Config:            cfg,
		AdminRepo:         adminRepo,
		AuthzService:      authzService,
		AuthService:       service.NewAuthService(cfg, adminRepo),
		SpecialDayService: specialDays,
		CatalogService:    service.NewCatalogService(productRepo, specialDays),
		OrderService:      service.NewOrderService(orderRepo, productRepo, couponRepo, userRepo, specialDays, ledger, nil, nil, cfg),
	}
	return New(container), db
}

func asAdmin(adminID uint, super bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("admin_id", adminID)
		c.Set("admin_is_super", super)
		c.Next()
	}
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdminLogin(t *testing.T) {
	h, db := setupAdminTest(t)
	hash, err := models.NewPasswordHash("Senha123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := db.Create(&models.Admin{Username: "gerente", PasswordHash: hash}).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}
	router := gin.New()
	router.POST("/admin/login", h.AdminLogin)

	w := doJSON(router, http.MethodPost, "/admin/login", `{"username":"gerente","password":"errada"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password want 401 got %d", w.Code)
	}
	w = doJSON(router, http.MethodPost, "/admin/login", `{"username":"gerente","password":"Senha123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Data.Token == "" {
		t.Fatalf("token missing: %s", w.Body.String())
	}
}

func TestUpdateOrderStatusTransitions(t *testing.T) {
	h, db := setupAdminTest(t)
	product := &models.Product{Name: "Vaso", Price: models.MustMoney("40.00"), Stock: 1, IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	order := &models.Order{
		OrderNo:        "PD20261014000001",
		UserID:         1,
		Status:         constants.OrderStatusConfirmed,
		SubtotalAmount: models.MustMoney("80.00"),
		TotalAmount:    models.MustMoney("80.00"),
		PaymentMethod:  constants.PaymentMethodPix,
		Items: []models.OrderItem{
			{ProductID: product.ID, ProductName: product.Name, Quantity: 2, UnitPrice: models.MustMoney("40.00"), Subtotal: models.MustMoney("80.00")},
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}

	router := gin.New()
	router.PATCH("/admin/orders/:id/status", asAdmin(1, false), h.UpdateOrderStatus)
	path := fmt.Sprintf("/admin/orders/%d/status", order.ID)

	w := doJSON(router, http.MethodPatch, path, `{"status":"entregue"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("skip transition want 422 got %d", w.Code)
	}
	w = doJSON(router, http.MethodPatch, path, `{"status":"voando"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status want 400 got %d", w.Code)
	}
	w = doJSON(router, http.MethodPatch, path, `{"status":"cancelado"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel want 200 got %d: %s", w.Code, w.Body.String())
	}
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("stock should be restored to 3, got %d", reloaded.Stock)
	}
	w = doJSON(router, http.MethodPatch, "/admin/orders/99999/status", `{"status":"cancelado"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing order want 404 got %d", w.Code)
	}
}

func TestCreateSpecialDayValidation(t *testing.T) {
	h, _ := setupAdminTest(t)
	router := gin.New()
	router.POST("/admin/special-days", asAdmin(1, false), h.CreateSpecialDay)

	w := doJSON(router, http.MethodPost, "/admin/special-days", `{"name":"Natal","start_at":"2026-12-26T00:00:00Z","end_at":"2026-12-24T00:00:00Z"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted window want 400 got %d", w.Code)
	}
	w = doJSON(router, http.MethodPost, "/admin/special-days", `{"name":"Natal","start_at":"2026-12-24T00:00:00-03:00","end_at":"2026-12-26T00:00:00-03:00"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("want 201 got %d: %s", w.Code, w.Body.String())
	}
}

func TestSetAdminRolesRequiresSuper(t *testing.T) {
	h, db := setupAdminTest(t)
	target := &models.Admin{Username: "suporte", PasswordHash: "x"}
	if err := db.Create(target).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}
	path := fmt.Sprintf("/admin/authz/admins/%d/roles", target.ID)

	plain := gin.New()
	plain.PUT("/admin/authz/admins/:id/roles", asAdmin(2, false), h.SetAdminRoles)
	if w := doJSON(plain, http.MethodPut, path, `{"roles":["support"]}`); w.Code != http.StatusForbidden {
		t.Fatalf("non-super want 403 got %d", w.Code)
	}

	super := gin.New()
	super.PUT("/admin/authz/admins/:id/roles", asAdmin(1, true), h.SetAdminRoles)
	if w := doJSON(super, http.MethodPut, path, `{"roles":["inexistente"]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown role want 400 got %d", w.Code)
	}
	if w := doJSON(super, http.MethodPut, path, `{"roles":["support"]}`); w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d: %s", w.Code, w.Body.String())
	}
	roles, err := h.AuthzService.GetAdminRoles(target.ID)
	if err != nil {
		t.Fatalf("get roles: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:support" {
		t.Fatalf("unexpected roles: %v", roles)
	}
	allowed, err := h.AuthzService.EnforceAdmin(target.ID, "/admin/orders/:id/status", "PATCH")
	if err != nil || !allowed {
		t.Fatalf("support should update order status: %v %v", allowed, err)
	}
}
