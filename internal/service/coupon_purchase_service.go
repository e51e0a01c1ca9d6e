package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/payment"
	"github.com/cupom-store/internal/queue"
	"github.com/cupom-store/internal/repository"

	"gorm.io/gorm"
)

// CouponPurchaseService 购券服务：券先以待支付状态落库，支付确认后由对账激活
type CouponPurchaseService struct {
	couponTypeRepo repository.CouponTypeRepository
	couponRepo     repository.CouponRepository
	userRepo       repository.UserRepository
	ledger         *CouponLedger
	gateway        PaymentGateway
	payments       *PaymentService
	scheduler      ReconcileScheduler
	pollDelay      time.Duration
}

// NewCouponPurchaseService 创建购券服务；pollDelay 为 0 时不安排延迟对账
func NewCouponPurchaseService(couponTypeRepo repository.CouponTypeRepository, couponRepo repository.CouponRepository, userRepo repository.UserRepository, ledger *CouponLedger, gateway PaymentGateway, payments *PaymentService, queueClient *queue.Client, pollDelay time.Duration) *CouponPurchaseService {
	s := &CouponPurchaseService{
		couponTypeRepo: couponTypeRepo,
		couponRepo:     couponRepo,
		userRepo:       userRepo,
		ledger:         ledger,
		gateway:        gateway,
		payments:       payments,
		pollDelay:      pollDelay,
	}
	if queueClient.Enabled() {
		s.scheduler = queueClient
	}
	return s
}

// PurchaseCouponInput 购券参数
type PurchaseCouponInput struct {
	UserID        uint
	CouponTypeID  uint
	PaymentMethod string
	PayerEmail    string
	BuyerTaxID    string
	CardToken     string
	CardMethodID  string
	Installments  int
}

// PaymentInstructions 付款指引
type PaymentInstructions struct {
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

// PurchaseCouponResult 购券结果
type PurchaseCouponResult struct {
	Coupon  *models.Coupon
	Payment PaymentInstructions
}

// PurchaseCoupon 购买优惠券
func (s *CouponPurchaseService) PurchaseCoupon(ctx context.Context, input PurchaseCouponInput) (*PurchaseCouponResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidCredentials
	}
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	cpf := NormalizeCPF(input.BuyerTaxID)
	switch method {
	case constants.CouponPayPix:
		if !IsValidCPF(cpf) {
			return nil, ErrInvalidCPF
		}
	case constants.CouponPayCard:
		if strings.TrimSpace(input.CardToken) == "" {
			return nil, ErrInvalidCardToken
		}
		if cpf != "" && !IsValidCPF(cpf) {
			return nil, ErrInvalidCPF
		}
	default:
		return nil, ErrInvalidPaymentMethod
	}

	couponType, err := s.couponTypeRepo.GetByID(input.CouponTypeID)
	if err != nil {
		return nil, err
	}
	if couponType == nil {
		return nil, ErrCouponTypeNotFound
	}
	if !couponType.IsActive {
		return nil, ErrCouponTypeInactive
	}
	if s.gateway == nil {
		return nil, ErrPaymentGatewayNotConfigured
	}

	payerEmail := strings.TrimSpace(input.PayerEmail)
	payerName := ""
	if user, err := s.userRepo.GetByID(input.UserID); err != nil {
		return nil, err
	} else if user != nil {
		if payerEmail == "" {
			payerEmail = user.Email
		}
		payerName = user.Name
	}

	now := utcNow()
	typeID := couponType.ID
	coupon := &models.Coupon{
		UserID:          input.UserID,
		CouponTypeID:    &typeID,
		DiscountPercent: couponType.DiscountPercent,
		AmountPaid:      couponType.Price,
		PurchasedAt:     now,
		ExpiresAt:       now.Add(time.Duration(couponType.ValidityDays) * 24 * time.Hour),
		PaymentStatus:   constants.CouponPaymentPending,
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		code, err := s.ledger.GenerateUniqueCode(tx)
		if err != nil {
			return err
		}
		coupon.Code = code
		return s.couponRepo.WithTx(tx).Create(coupon)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("coupon_purchase_created", "coupon_id", coupon.ID, "user_id", coupon.UserID, "coupon_type_id", typeID, "method", method)

	charge, err := s.gateway.CreateCharge(ctx, payment.ChargeInput{
		Amount:       couponType.Price.Decimal,
		Description:  couponType.Name,
		Method:       method,
		CardToken:    strings.TrimSpace(input.CardToken),
		CardMethodID: strings.TrimSpace(input.CardMethodID),
		Installments: input.Installments,
		Payer: payment.Payer{
			Email:     payerEmail,
			FirstName: payerName,
			CPF:       cpf,
		},
		ExternalReference: externalReference(constants.ExternalRefCoupon, coupon.ID),
		IdempotencyKey:    fmt.Sprintf("coupon-%d", coupon.ID),
	})
	if err != nil {
		logger.Errorw("coupon_charge_failed", "coupon_id", coupon.ID, "error", err)
		return nil, ErrPaymentGatewayUnavailable
	}
	if err := s.couponRepo.SetPaymentID(coupon.ID, charge.ID); err != nil {
		logger.Errorw("coupon_payment_id_save_failed", "coupon_id", coupon.ID, "payment_id", charge.ID, "error", err)
	}
	coupon.PaymentID = charge.ID

	reference := externalReference(constants.ExternalRefCoupon, coupon.ID)
	if isTerminalChargeStatus(charge.Status) {
		if s.payments != nil {
			if _, err := s.payments.Reconcile(ctx, payment.Status{
				ID:                charge.ID,
				Status:            charge.Status,
				StatusDetail:      charge.StatusDetail,
				ExternalReference: reference,
				Amount:            couponType.Price.Decimal,
			}); err != nil {
				logger.Errorw("coupon_sync_reconcile_failed", "coupon_id", coupon.ID, "payment_id", charge.ID, "error", err)
			}
			if reloaded, err := s.couponRepo.GetByID(coupon.ID); err == nil && reloaded != nil {
				coupon = reloaded
			}
		}
	} else {
		s.scheduleReconcile(coupon.ID, reference, charge.ID)
	}

	return &PurchaseCouponResult{
		Coupon: coupon,
		Payment: PaymentInstructions{
			PaymentID:    charge.ID,
			Status:       charge.Status,
			QRCode:       charge.QRCode,
			QRCodeBase64: charge.QRCodeBase64,
			TicketURL:    charge.TicketURL,
		},
	}, nil
}

// isTerminalChargeStatus 网关已给出最终结果，可立即对账
func isTerminalChargeStatus(status string) bool {
	switch status {
	case constants.GatewayStatusApproved, constants.GatewayStatusRejected, constants.GatewayStatusCancelled:
		return true
	}
	return false
}

// scheduleReconcile 支付未定时安排延迟回查，防止 webhook 丢失后券一直待支付
func (s *CouponPurchaseService) scheduleReconcile(couponID uint, reference, paymentID string) {
	if s.scheduler == nil || s.pollDelay <= 0 {
		return
	}
	payload := queue.PaymentReconcilePayload{Reference: reference, PaymentID: paymentID}
	if err := s.scheduler.EnqueuePaymentReconcile(payload, s.pollDelay); err != nil {
		logger.Warnw("coupon_reconcile_enqueue_failed", "coupon_id", couponID, "payment_id", paymentID, "error", err)
	}
}

// ListCoupons 用户优惠券列表
func (s *CouponPurchaseService) ListCoupons(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.ListByUser(filter)
}

// ListCouponTypes 在售券类型
func (s *CouponPurchaseService) ListCouponTypes(onlyActive bool) ([]models.CouponType, error) {
	return s.couponTypeRepo.List(onlyActive)
}

// CouponTypeInput 管理端券类型参数
type CouponTypeInput struct {
	Name            string
	Description     string
	DiscountPercent int
	Price           models.Money
	ValidityDays    int
	IsActive        bool
}

func (in CouponTypeInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.DiscountPercent < 1 || in.DiscountPercent > 100 {
		return ErrInvalidCouponType
	}
	if !in.Price.IsPositive() || in.ValidityDays < 1 {
		return ErrInvalidCouponType
	}
	return nil
}

// CreateCouponType 创建券类型
func (s *CouponPurchaseService) CreateCouponType(input CouponTypeInput) (*models.CouponType, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	couponType := &models.CouponType{
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		DiscountPercent: input.DiscountPercent,
		Price:           input.Price,
		ValidityDays:    input.ValidityDays,
		IsActive:        input.IsActive,
	}
	if err := s.couponTypeRepo.Create(couponType); err != nil {
		return nil, err
	}
	return couponType, nil
}

// UpdateCouponType 更新券类型，已售出的券不受影响
func (s *CouponPurchaseService) UpdateCouponType(id uint, input CouponTypeInput) (*models.CouponType, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	couponType, err := s.couponTypeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if couponType == nil {
		return nil, ErrCouponTypeNotFound
	}
	couponType.Name = strings.TrimSpace(input.Name)
	couponType.Description = strings.TrimSpace(input.Description)
	couponType.DiscountPercent = input.DiscountPercent
	couponType.Price = input.Price
	couponType.ValidityDays = input.ValidityDays
	couponType.IsActive = input.IsActive
	if err := s.couponTypeRepo.Update(couponType); err != nil {
		return nil, err
	}
	return couponType, nil
}
