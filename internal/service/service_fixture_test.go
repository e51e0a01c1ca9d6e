package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/payment"
	"github.com/cupom-store/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return db
}

type fakeGateway struct {
	mu           sync.Mutex
	charges      []payment.ChargeInput
	preferences  []payment.PreferenceInput
	payments     map[string]*payment.Status
	chargeStatus string
	chargeErr    error
	prefErr      error
	getErr       error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: map[string]*payment.Status{}, chargeStatus: constants.GatewayStatusPending}
}

func (g *fakeGateway) CreateCharge(_ context.Context, input payment.ChargeInput) (*payment.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	g.charges = append(g.charges, input)
	id := fmt.Sprintf("pay-%d", len(g.charges))
	g.payments[id] = &payment.Status{
		ID:                id,
		Status:            g.chargeStatus,
		ExternalReference: input.ExternalReference,
		Amount:            input.Amount,
	}
	return &payment.ChargeResult{ID: id, Status: g.chargeStatus, QRCode: "000201pix"}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID string) (*payment.Status, error) {
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

func (g *fakeGateway) CreateCheckoutPreference(_ context.Context, input payment.PreferenceInput) (*payment.PreferenceResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.prefErr != nil {
		return nil, g.prefErr
	}
	g.preferences = append(g.preferences, input)
	id := fmt.Sprintf("pref-%d", len(g.preferences))
	return &payment.PreferenceResult{ID: id, InitPoint: "https://checkout.test/" + id}, nil
}

func (g *fakeGateway) setPayment(status payment.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[status.ID] = &status
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []uint
}

func (n *fakeNotifier) SendCouponIssued(_ context.Context, _ *models.User, coupon *models.Coupon) NotifyResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, coupon.ID)
	return NotifyResult{Queued: true}
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type serviceFixture struct {
	db          *gorm.DB
	gateway     *fakeGateway
	notifier    *fakeNotifier
	productRepo *repository.GormProductRepository
	couponRepo  *repository.GormCouponRepository
	orderRepo   *repository.GormOrderRepository
	specialDays *SpecialDayService
	ledger      *CouponLedger
	orders      *OrderService
	payments    *PaymentService
	purchases   *CouponPurchaseService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupServiceTestDB(t)
	cfg := &config.Config{}
	cfg.Order.NumberMaxAttempts = 5
	cfg.Coupon.CodeMaxAttempts = 20

	f := &serviceFixture{
		db:          db,
		gateway:     newFakeGateway(),
		notifier:    &fakeNotifier{},
		productRepo: repository.NewProductRepository(db),
		couponRepo:  repository.NewCouponRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
	}
	userRepo := repository.NewUserRepository(db)
	f.specialDays = NewSpecialDayService(repository.NewSpecialDayRepository(db), cfg.SpecialDay)
	f.ledger = NewCouponLedger(f.couponRepo, cfg.Coupon)
	f.orders = NewOrderService(f.orderRepo, f.productRepo, f.couponRepo, userRepo, f.specialDays, f.ledger, f.gateway, nil, cfg)
	f.payments = NewPaymentService(f.orderRepo, f.productRepo, f.couponRepo, userRepo, f.ledger, f.gateway, f.notifier)
	f.purchases = NewCouponPurchaseService(repository.NewCouponTypeRepository(db), f.couponRepo, userRepo, f.ledger, f.gateway, f.payments, nil, 0)
	return f
}

func (f *serviceFixture) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", Name: "Cliente", Status: constants.UserStatusActive, Locale: constants.LocalePtBR}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *serviceFixture) createProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: models.MustMoney(price), Stock: stock, IsActive: true}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func (f *serviceFixture) openSpecialDay(t *testing.T) *models.SpecialDay {
	t.Helper()
	now := time.Now().UTC()
	day := &models.SpecialDay{Name: "Dia das Mães", StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour), IsActive: true}
	if err := f.db.Create(day).Error; err != nil {
		t.Fatalf("create special day: %v", err)
	}
	return day
}

func (f *serviceFixture) createActiveCoupon(t *testing.T, userID uint, code string, percent int) *models.Coupon {
	t.Helper()
	now := time.Now().UTC()
	paidAt := now
	coupon := &models.Coupon{
		Code:            code,
		UserID:          userID,
		DiscountPercent: percent,
		AmountPaid:      models.MustMoney("10.00"),
		PurchasedAt:     now,
		ExpiresAt:       now.Add(24 * time.Hour),
		IsActive:        true,
		PaymentStatus:   constants.CouponPaymentApproved,
		PaidAt:          &paidAt,
	}
	if err := f.db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	return coupon
}

func (f *serviceFixture) reloadProduct(t *testing.T, id uint) *models.Product {
	t.Helper()
	var product models.Product
	if err := f.db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return &product
}

func (f *serviceFixture) reloadCoupon(t *testing.T, id uint) *models.Coupon {
	t.Helper()
	var coupon models.Coupon
	if err := f.db.First(&coupon, id).Error; err != nil {
		t.Fatalf("reload coupon: %v", err)
	}
	return &coupon
}

func (f *serviceFixture) reloadOrder(t *testing.T, id uint) *models.Order {
	t.Helper()
	var order models.Order
	if err := f.db.First(&order, id).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return &order
}

func validAddress() models.DeliveryAddress {
	return models.DeliveryAddress{
		RecipientName: "Maria Souza",
		Phone:         "11999990000",
		ZipCode:       "01310-100",
		Street:        "Av. Paulista",
		Number:        "1000",
		District:      "Bela Vista",
		City:          "São Paulo",
		State:         "sp",
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var errGatewayDown = errors.New("gateway down")
