package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/repository"

	"gorm.io/gorm"
)

const couponCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const defaultCouponCodeMaxAttempts = 20

// GenerateCode 生成 CUP + 8 位大写字母数字券码
func GenerateCode() (string, error) {
	var b strings.Builder
	b.Grow(len(constants.CouponCodePrefix) + constants.CouponCodeSuffixLen)
	b.WriteString(constants.CouponCodePrefix)
	limit := big.NewInt(int64(len(couponCodeAlphabet)))
	for i := 0; i < constants.CouponCodeSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(couponCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// CouponValidation 优惠券可用性判定
type CouponValidation struct {
	Valid  bool
	Reason string
}

// Validate 按 已使用 / 未激活 / 已过期 的顺序判定
func Validate(coupon *models.Coupon, now time.Time) CouponValidation {
	switch {
	case coupon.Used:
		return CouponValidation{Reason: constants.CouponReasonAlreadyUsed}
	case !coupon.IsActive:
		return CouponValidation{Reason: constants.CouponReasonInactive}
	case now.After(coupon.ExpiresAt):
		return CouponValidation{Reason: constants.CouponReasonExpired}
	}
	return CouponValidation{Valid: true}
}

// validationError 将判定原因映射为业务错误
func validationError(v CouponValidation) error {
	switch v.Reason {
	case "":
		return nil
	case constants.CouponReasonAlreadyUsed:
		return ErrCouponAlreadyUsed
	case constants.CouponReasonInactive:
		return ErrCouponInactive
	case constants.CouponReasonExpired:
		return ErrCouponExpired
	}
	return ErrCouponInactive
}

// CouponLedger 优惠券台账：生成、核销与支付激活
type CouponLedger struct {
	couponRepo  repository.CouponRepository
	maxAttempts int
	generate    func() (string, error)
}

// NewCouponLedger 创建优惠券台账
func NewCouponLedger(couponRepo repository.CouponRepository, cfg config.CouponConfig) *CouponLedger {
	attempts := cfg.CodeMaxAttempts
	if attempts <= 0 {
		attempts = defaultCouponCodeMaxAttempts
	}
	return &CouponLedger{couponRepo: couponRepo, maxAttempts: attempts, generate: GenerateCode}
}

// GenerateUniqueCode 生成未被占用的券码，唯一索引仍是最终保证
func (l *CouponLedger) GenerateUniqueCode(tx *gorm.DB) (string, error) {
	repo := l.couponRepo.WithTx(tx)
	for attempt := 0; attempt < l.maxAttempts; attempt++ {
		code, err := l.generate()
		if err != nil {
			return "", err
		}
		exists, err := repo.ExistsByCode(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCouponCodeExhausted
}

// Consume 在结算事务内核销优惠券，条件更新落空表示并发中已被使用
func (l *CouponLedger) Consume(tx *gorm.DB, coupon *models.Coupon, orderID uint, now time.Time) error {
	affected, err := l.couponRepo.WithTx(tx).MarkUsed(coupon.ID, orderID, now)
	if err != nil {
		return err
	}
	if affected == 0 {
		return conflict(ErrCouponAlreadyUsed)
	}
	coupon.Used = true
	coupon.UsedAt = &now
	coupon.OrderID = &orderID
	return nil
}

// ActivateOnPayment 支付确认后激活，重复确认为空操作
func (l *CouponLedger) ActivateOnPayment(tx *gorm.DB, coupon *models.Coupon, paymentID string, approvedAt time.Time) (bool, error) {
	affected, err := l.couponRepo.WithTx(tx).Activate(coupon.ID, paymentID, approvedAt)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	coupon.IsActive = true
	coupon.PaymentStatus = constants.CouponPaymentApproved
	coupon.PaymentID = paymentID
	coupon.PaidAt = &approvedAt
	return true, nil
}

// RejectOnPayment 支付失败，券保持未激活
func (l *CouponLedger) RejectOnPayment(tx *gorm.DB, coupon *models.Coupon, paymentID string) (bool, error) {
	affected, err := l.couponRepo.WithTx(tx).Reject(coupon.ID, paymentID)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	coupon.PaymentStatus = constants.CouponPaymentRejected
	coupon.PaymentID = paymentID
	return true, nil
}
