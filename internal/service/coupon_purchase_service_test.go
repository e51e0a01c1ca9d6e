package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/payment"
	"github.com/cupom-store/internal/queue"
)

func createCouponType(t *testing.T, f *serviceFixture, active bool) *models.CouponType {
	t.Helper()
	couponType := &models.CouponType{Name: "Cupom 20%", DiscountPercent: 20, Price: models.MustMoney("14.90"), ValidityDays: 30, IsActive: active}
	if err := f.db.Create(couponType).Error; err != nil {
		t.Fatalf("create coupon type: %v", err)
	}
	return couponType
}

func TestPurchaseCouponValidation(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t, "buyer@example.com")
	active := createCouponType(t, f, true)
	inactive := createCouponType(t, f, false)
	ctx := context.Background()

	if _, err := f.purchases.PurchaseCoupon(ctx, PurchaseCouponInput{UserID: user.ID, CouponTypeID: active.ID, PaymentMethod: "pix", BuyerTaxID: "11111111111"}); !errors.Is(err, ErrInvalidCPF) {
		t.Fatalf("want ErrInvalidCPF got %v", err)
	}
	if _, err := f.purchases.PurchaseCoupon(ctx, PurchaseCouponInput{UserID: user.ID, CouponTypeID: active.ID, PaymentMethod: "card"}); !errors.Is(err, ErrInvalidCardToken) {
		t.Fatalf("want ErrInvalidCardToken got %v", err)
	}
	if _, err := f.purchases.PurchaseCoupon(ctx, PurchaseCouponInput{UserID: user.ID, CouponTypeID: active.ID, PaymentMethod: "boleto"}); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("want ErrInvalidPaymentMethod got %v", err)
	}
	if _, err := f.purchases.PurchaseCoupon(ctx, PurchaseCouponInput{UserID: user.ID, CouponTypeID: inactive.ID, PaymentMethod: "pix", BuyerTaxID: "529.982.247-25"}); !errors.Is(err, ErrCouponTypeInactive) {
		t.Fatalf("want ErrCouponTypeInactive got %v", err)
	}
	if _, err := f.purchases.PurchaseCoupon(ctx, PurchaseCouponInput{UserID: user.ID, CouponTypeID: 999, PaymentMethod: "pix", BuyerTaxID: "52998224725"}); !errors.Is(err, ErrCouponTypeNotFound) {
		t.Fatalf("want ErrCouponTypeNotFound got %v", err)
	}
	var count int64
	f.db.Model(&models.Coupon{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected purchases must not create coupons, got %d", count)
	}
}

func TestPurchaseCouponPixCreatesPendingCoupon(t *testing.T) {
	f := newServiceFixture(t)
	user := f.createUser(t, "buyer@example.com")
	couponType := createCouponType(t, f, true)

	result, err := f.purchases.PurchaseCoupon(context.Background(), PurchaseCouponInput{
		UserID:        user.ID,
		CouponTypeID:  couponType.ID,
		PaymentMethod: "pix",
		BuyerTaxID:    "529.982.247-25",
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	coupon := result.Coupon
	if !regexp.MustCompile(`^CUP[A-Z0-9]{8}$`).MatchString(coupon.Code) {
		t.Fatalf("unexpected code %s", coupon.Code)
	}
	if coupon.IsActive || coupon.Used || coupon.PaymentStatus != constants.CouponPaymentPending {
		t.Fatalf("new coupon must be pending and inactive: %+v", coupon)
	}
	if coupon.DiscountPercent != 20 || coupon.AmountPaid.String() != "14.90" {
		t.Fatalf("coupon must copy the type terms: %+v", coupon)
	}
	if result.Payment.PaymentID != "pay-1" || result.Payment.QRCode == "" {
		t.Fatalf("unexpected instructions %+v", result.Payment)
	}
	charge := f.gateway.charges[0]
	if charge.Payer.CPF != "52998224725" || charge.Payer.Email != user.Email || charge.ExternalReference != fmt.Sprintf("coupon:%d", coupon.ID) {
		t.Fatalf("unexpected charge %+v", charge)
	}
	if saved := f.reloadCoupon(t, coupon.ID); saved.PaymentID != "pay-1" {
		t.Fatalf("payment id not stored: %q", saved.PaymentID)
	}
	if f.notifier.count() != 0 {
		t.Fatalf("pending coupon must not notify")
	}
}

func TestPurchaseCouponCardApprovedSynchronously(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.chargeStatus = constants.GatewayStatusApproved
	user := f.createUser(t, "buyer@example.com")
	couponType := createCouponType(t, f, true)

	result, err := f.purchases.PurchaseCoupon(context.Background(), PurchaseCouponInput{
		UserID:        user.ID,
		CouponTypeID:  couponType.ID,
		PaymentMethod: "card",
		CardToken:     "tok_123",
		Installments:  1,
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if !result.Coupon.IsActive || result.Coupon.PaymentStatus != constants.CouponPaymentApproved {
		t.Fatalf("approved card payment must activate immediately: %+v", result.Coupon)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("want one notification got %d", f.notifier.count())
	}

	// 随后到达的 webhook 不得重复通知
	if _, err := f.payments.HandleNotification(context.Background(), Notification{Type: "payment", PaymentID: result.Payment.PaymentID}); err != nil {
		t.Fatalf("webhook replay: %v", err)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("replayed approval must not notify again, got %d", f.notifier.count())
	}
}

func TestPurchaseCouponGatewayFailureLeavesPending(t *testing.T) {
	f := newServiceFixture(t)
	f.gateway.chargeErr = errGatewayDown
	user := f.createUser(t, "buyer@example.com")
	couponType := createCouponType(t, f, true)

	_, err := f.purchases.PurchaseCoupon(context.Background(), PurchaseCouponInput{
		UserID:        user.ID,
		CouponTypeID:  couponType.ID,
		PaymentMethod: "pix",
		BuyerTaxID:    "52998224725",
	})
	if !errors.Is(err, ErrPaymentGatewayUnavailable) {
		t.Fatalf("want ErrPaymentGatewayUnavailable got %v", err)
	}
	var coupons []models.Coupon
	if err := f.db.Find(&coupons).Error; err != nil {
		t.Fatalf("list coupons: %v", err)
	}
	if len(coupons) != 1 || coupons[0].IsActive || coupons[0].PaymentStatus != constants.CouponPaymentPending {
		t.Fatalf("coupon must remain pending: %+v", coupons)
	}
}

type stubScheduler struct {
	mu       sync.Mutex
	payloads []queue.PaymentReconcilePayload
	delays   []time.Duration
}

func (s *stubScheduler) EnqueuePaymentReconcile(payload queue.PaymentReconcilePayload, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	s.delays = append(s.delays, delay)
	return nil
}

func TestPurchaseCouponPendingSchedulesReconcile(t *testing.T) {
	f := newServiceFixture(t)
	scheduler := &stubScheduler{}
	f.purchases.scheduler = scheduler
	f.purchases.pollDelay = 10 * time.Minute
	user := f.createUser(t, "buyer@example.com")
	couponType := createCouponType(t, f, true)

	result, err := f.purchases.PurchaseCoupon(context.Background(), PurchaseCouponInput{
		UserID:        user.ID,
		CouponTypeID:  couponType.ID,
		PaymentMethod: "pix",
		BuyerTaxID:    "52998224725",
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if len(scheduler.payloads) != 1 {
		t.Fatalf("want one scheduled reconcile got %d", len(scheduler.payloads))
	}
	want := queue.PaymentReconcilePayload{Reference: fmt.Sprintf("coupon:%d", result.Coupon.ID), PaymentID: result.Payment.PaymentID}
	if scheduler.payloads[0] != want || scheduler.delays[0] != 10*time.Minute {
		t.Fatalf("unexpected schedule %+v after %s", scheduler.payloads[0], scheduler.delays[0])
	}

	// 回查任务按支付 ID 对账
	f.gateway.setPayment(payment.Status{ID: want.PaymentID, Status: constants.GatewayStatusApproved, ExternalReference: want.Reference, Amount: mustDecimal("14.90")})
	res, err := f.payments.PollReference(context.Background(), want.Reference, want.PaymentID)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if res.Action != ReconcileActionApplied || !f.reloadCoupon(t, result.Coupon.ID).IsActive {
		t.Fatalf("poll must activate the coupon, got %+v", res)
	}
}

func TestPurchaseCouponTerminalChargeReconcilesWithoutSchedule(t *testing.T) {
	cases := []struct {
		name       string
		status     string
		wantStatus string
		wantActive bool
	}{
		{name: "approved", status: constants.GatewayStatusApproved, wantStatus: constants.CouponPaymentApproved, wantActive: true},
		{name: "rejected", status: constants.GatewayStatusRejected, wantStatus: constants.CouponPaymentRejected},
		{name: "cancelled", status: constants.GatewayStatusCancelled, wantStatus: constants.CouponPaymentRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newServiceFixture(t)
			scheduler := &stubScheduler{}
			f.purchases.scheduler = scheduler
			f.purchases.pollDelay = time.Minute
			f.gateway.chargeStatus = tc.status
			user := f.createUser(t, "buyer@example.com")
			couponType := createCouponType(t, f, true)

			result, err := f.purchases.PurchaseCoupon(context.Background(), PurchaseCouponInput{
				UserID:        user.ID,
				CouponTypeID:  couponType.ID,
				PaymentMethod: "card",
				CardToken:     "tok_123",
			})
			if err != nil {
				t.Fatalf("purchase: %v", err)
			}
			if result.Coupon.PaymentStatus != tc.wantStatus || result.Coupon.IsActive != tc.wantActive {
				t.Fatalf("unexpected coupon state %+v", result.Coupon)
			}
			if len(scheduler.payloads) != 0 {
				t.Fatalf("settled charge must not schedule a reconcile")
			}
		})
	}
}
