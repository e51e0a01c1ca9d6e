package repository

import (
	"errors"
	"time"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByID(id uint) (*models.Coupon, error)
	GetByIDForUpdate(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	GetByPaymentID(paymentID string) (*models.Coupon, error)
	ExistsByCode(code string) (bool, error)
	Create(coupon *models.Coupon) error
	ListByUser(filter CouponListFilter) ([]models.Coupon, int64, error)
	SetPaymentID(id uint, paymentID string) error
	MarkUsed(id uint, orderID uint, usedAt time.Time) (int64, error)
	Activate(id uint, paymentID string, paidAt time.Time) (int64, error)
	Reject(id uint, paymentID string) (int64, error)
	WithTx(tx *gorm.DB) CouponRepository
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) CouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByID 根据 ID 获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetByIDForUpdate 加行锁读取
func (r *GormCouponRepository) GetByIDForUpdate(id uint) (*models.Coupon, error) {
	return r.first(forUpdate(r.db).Where("id = ?", id))
}

// GetByCode 根据券码获取
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	return r.first(r.db.Where("code = ?", code))
}

// GetByPaymentID 根据网关支付 ID 获取
func (r *GormCouponRepository) GetByPaymentID(paymentID string) (*models.Coupon, error) {
	if paymentID == "" {
		return nil, nil
	}
	return r.first(r.db.Where("payment_id = ?", paymentID))
}

func (r *GormCouponRepository) first(query *gorm.DB) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := query.First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// ExistsByCode 券码是否已存在
func (r *GormCouponRepository) ExistsByCode(code string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Coupon{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// ListByUser 用户优惠券列表
func (r *GormCouponRepository) ListByUser(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := r.db.Model(&models.Coupon{}).Where("user_id = ?", filter.UserID)
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.OnlyUsable {
		at := filter.UsableAt
		if at.IsZero() {
			at = time.Now().UTC()
		}
		query = query.Where("used = ? AND is_active = ? AND expires_at >= ?", false, true, at.UTC())
	}
	return findPage[models.Coupon](query, filter.Page, filter.PageSize, "id DESC", "CouponType")
}

// SetPaymentID 记录网关支付 ID
func (r *GormCouponRepository) SetPaymentID(id uint, paymentID string) error {
	return r.db.Model(&models.Coupon{}).Where("id = ?", id).Update("payment_id", paymentID).Error
}

// MarkUsed 条件核销：仅未使用、已激活且未过期的券会被更新
func (r *GormCouponRepository) MarkUsed(id uint, orderID uint, usedAt time.Time) (int64, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND used = ? AND is_active = ? AND expires_at >= ?", id, false, true, usedAt).
		Updates(map[string]interface{}{
			"used":     true,
			"used_at":  usedAt,
			"order_id": orderID,
		})
	return result.RowsAffected, result.Error
}

// Activate 支付确认后激活（pendente -> aprovado）
func (r *GormCouponRepository) Activate(id uint, paymentID string, paidAt time.Time) (int64, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND is_active = ? AND payment_status = ?", id, false, constants.CouponPaymentPending).
		Updates(map[string]interface{}{
			"is_active":      true,
			"payment_status": constants.CouponPaymentApproved,
			"payment_id":     paymentID,
			"paid_at":        paidAt,
		})
	return result.RowsAffected, result.Error
}

// Reject 支付失败（pendente -> rejeitado），券保持未激活
func (r *GormCouponRepository) Reject(id uint, paymentID string) (int64, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND is_active = ? AND payment_status = ?", id, false, constants.CouponPaymentPending).
		Updates(map[string]interface{}{
			"payment_status": constants.CouponPaymentRejected,
			"payment_id":     paymentID,
		})
	return result.RowsAffected, result.Error
}
