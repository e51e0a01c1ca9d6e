package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestDecrementStockNeverGoesNegative(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewProductRepository(db)
	product := &models.Product{Name: "Caneca", Price: models.MustMoney("30.00"), Stock: 2, IsActive: true}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product: %v", err)
	}

	affected, err := repo.DecrementStock(product.ID, 3)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if affected != 0 {
		t.Fatalf("want 0 affected when stock insufficient got %d", affected)
	}
	affected, err = repo.DecrementStock(product.ID, 2)
	if err != nil || affected != 1 {
		t.Fatalf("want 1 affected got %d err %v", affected, err)
	}
	reloaded, _ := repo.GetByID(product.ID)
	if reloaded.Stock != 0 {
		t.Fatalf("want stock 0 got %d", reloaded.Stock)
	}
	if err := repo.RestoreStock(product.ID, 1); err != nil {
		t.Fatalf("restore: %v", err)
	}
	reloaded, _ = repo.GetByID(product.ID)
	if reloaded.Stock != 1 {
		t.Fatalf("want stock 1 got %d", reloaded.Stock)
	}
}

func TestCouponMarkUsedOnlyOnce(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCouponRepository(db)
	now := time.Now().UTC()
	coupon := &models.Coupon{
		Code:            "CUPAAAA1111",
		UserID:          1,
		DiscountPercent: 10,
		PurchasedAt:     now,
		ExpiresAt:       now.Add(24 * time.Hour),
		IsActive:        true,
		PaymentStatus:   constants.CouponPaymentApproved,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	first, err := repo.MarkUsed(coupon.ID, 10, now)
	if err != nil || first != 1 {
		t.Fatalf("first mark: affected=%d err=%v", first, err)
	}
	second, err := repo.MarkUsed(coupon.ID, 11, now)
	if err != nil || second != 0 {
		t.Fatalf("second mark: affected=%d err=%v", second, err)
	}
	reloaded, _ := repo.GetByID(coupon.ID)
	if !reloaded.Used || reloaded.OrderID == nil || *reloaded.OrderID != 10 {
		t.Fatalf("unexpected coupon state: %+v", reloaded)
	}
}

func TestCouponListOnlyUsable(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCouponRepository(db)
	now := time.Now().UTC()
	coupons := []models.Coupon{
		{Code: "CUPUSAB0001", UserID: 1, DiscountPercent: 10, PurchasedAt: now, ExpiresAt: now.Add(time.Hour), IsActive: true, PaymentStatus: constants.CouponPaymentApproved},
		{Code: "CUPUSAB0002", UserID: 1, DiscountPercent: 10, PurchasedAt: now, ExpiresAt: now.Add(-time.Hour), IsActive: true, PaymentStatus: constants.CouponPaymentApproved},
		{Code: "CUPUSAB0003", UserID: 1, DiscountPercent: 10, PurchasedAt: now, ExpiresAt: now.Add(time.Hour), IsActive: false, PaymentStatus: constants.CouponPaymentPending},
		{Code: "CUPUSAB0004", UserID: 2, DiscountPercent: 10, PurchasedAt: now, ExpiresAt: now.Add(time.Hour), IsActive: true, PaymentStatus: constants.CouponPaymentApproved},
	}
	for i := range coupons {
		if err := repo.Create(&coupons[i]); err != nil {
			t.Fatalf("create coupon: %v", err)
		}
	}

	usable, total, err := repo.ListByUser(CouponListFilter{UserID: 1, OnlyUsable: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(usable) != 1 || usable[0].Code != "CUPUSAB0001" {
		t.Fatalf("want only CUPUSAB0001 got total=%d %+v", total, usable)
	}

	// 非 UTC 时区传入的判定时间按同一时刻比较
	sp := time.FixedZone("BRT", -3*3600)
	earlier, total, err := repo.ListByUser(CouponListFilter{UserID: 1, OnlyUsable: true, UsableAt: now.Add(-2 * time.Hour).In(sp)})
	if err != nil {
		t.Fatalf("list at earlier time: %v", err)
	}
	if total != 2 || len(earlier) != 2 {
		t.Fatalf("two hours ago both active coupons were valid, got total=%d", total)
	}
	later, total, err := repo.ListByUser(CouponListFilter{UserID: 1, OnlyUsable: true, UsableAt: now.Add(2 * time.Hour)})
	if err != nil || total != 0 || len(later) != 0 {
		t.Fatalf("want no usable coupons later got total=%d err=%v", total, err)
	}
}

func TestCouponActivateIsCompareAndSet(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCouponRepository(db)
	now := time.Now().UTC()
	coupon := &models.Coupon{
		Code:            "CUPBBBB2222",
		UserID:          1,
		DiscountPercent: 15,
		PurchasedAt:     now,
		ExpiresAt:       now.Add(24 * time.Hour),
		PaymentStatus:   constants.CouponPaymentPending,
	}
	if err := repo.Create(coupon); err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	if n, _ := repo.Activate(coupon.ID, "pay-1", now); n != 1 {
		t.Fatalf("want first activation to update 1 row got %d", n)
	}
	if n, _ := repo.Activate(coupon.ID, "pay-1", now); n != 0 {
		t.Fatalf("want repeated activation to be a no-op got %d", n)
	}
	if n, _ := repo.Reject(coupon.ID, "pay-1"); n != 0 {
		t.Fatalf("want reject after approval to be a no-op got %d", n)
	}
}

func TestCouponCodeUniqueIndex(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewCouponRepository(db)
	now := time.Now().UTC()
	base := models.Coupon{Code: "CUPDUPL0001", UserID: 1, DiscountPercent: 5, PurchasedAt: now, ExpiresAt: now}
	first := base
	if err := repo.Create(&first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := base
	err := repo.Create(&second)
	if !IsUniqueViolation(err) {
		t.Fatalf("want unique violation got %v", err)
	}
	exists, err := repo.ExistsByCode("CUPDUPL0001")
	if err != nil || !exists {
		t.Fatalf("want exists got %v %v", exists, err)
	}
}

func TestSpecialDayFindActiveAt(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewSpecialDayRepository(db)
	now := time.Now().UTC()
	days := []models.SpecialDay{
		{Name: "inativo", StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour), IsActive: false},
		{Name: "passado", StartAt: now.Add(-48 * time.Hour), EndAt: now.Add(-24 * time.Hour), IsActive: true},
		{Name: "atual", StartAt: now.Add(-2 * time.Hour), EndAt: now.Add(2 * time.Hour), IsActive: true},
	}
	for i := range days {
		if err := repo.Create(&days[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.FindActiveAt(now)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.Name != "atual" {
		t.Fatalf("want atual got %+v", got)
	}
	none, err := repo.FindActiveAt(now.Add(72 * time.Hour))
	if err != nil || none != nil {
		t.Fatalf("want none got %+v %v", none, err)
	}
}

func TestSpecialDayFindNextStartAfter(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewSpecialDayRepository(db)
	now := time.Date(2026, 11, 20, 12, 0, 0, 0, time.UTC)
	days := []models.SpecialDay{
		{Name: "atual", StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour), IsActive: true},
		{Name: "inativo", StartAt: now.Add(time.Hour), EndAt: now.Add(2 * time.Hour), IsActive: false},
		{Name: "depois", StartAt: now.Add(48 * time.Hour), EndAt: now.Add(72 * time.Hour), IsActive: true},
		{Name: "proximo", StartAt: now.Add(24 * time.Hour), EndAt: now.Add(30 * time.Hour), IsActive: true},
	}
	for i := range days {
		if err := repo.Create(&days[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	next, err := repo.FindNextStartAfter(now)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if next == nil || next.Name != "proximo" {
		t.Fatalf("want proximo got %+v", next)
	}
	none, err := repo.FindNextStartAfter(now.Add(96 * time.Hour))
	if err != nil || none != nil {
		t.Fatalf("want none got %+v %v", none, err)
	}
}

func TestOrderTransitionStatus(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOrderRepository(db)
	order := &models.Order{
		OrderNo:       "PD20260101000000000001",
		UserID:        1,
		Status:        constants.OrderStatusPending,
		PaymentMethod: constants.PaymentMethodCheckout,
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create: %v", err)
	}
	n, err := repo.TransitionStatus(order.ID, []string{constants.OrderStatusPending}, constants.OrderStatusConfirmed, map[string]interface{}{"payment_id": "p1"})
	if err != nil || n != 1 {
		t.Fatalf("first transition affected=%d err=%v", n, err)
	}
	n, _ = repo.TransitionStatus(order.ID, []string{constants.OrderStatusPending}, constants.OrderStatusCanceled, nil)
	if n != 0 {
		t.Fatalf("want no-op transition got %d", n)
	}
	reloaded, _ := repo.GetByID(order.ID)
	if reloaded.Status != constants.OrderStatusConfirmed || reloaded.PaymentID != "p1" {
		t.Fatalf("unexpected order: %+v", reloaded)
	}
}
