package models

import "time"

// Coupon 用户购买的单次折扣券
// 仅当 !Used && IsActive && now <= ExpiresAt 时可用
type Coupon struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                             // 主键
	Code            string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`                // 券码（CUP + 8 位字母数字）
	UserID          uint       `gorm:"not null;index" json:"user_id"`                                    // 持有人
	CouponTypeID    *uint      `gorm:"index" json:"coupon_type_id,omitempty"`                            // 来源券类型
	DiscountPercent int        `gorm:"not null" json:"discount_percent"`                                 // 折扣百分比
	AmountPaid      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount_paid"`         // 实付金额
	PurchasedAt     time.Time  `gorm:"not null" json:"purchased_at"`                                     // 购买时间
	ExpiresAt       time.Time  `gorm:"not null;index" json:"expires_at"`                                 // 过期时间
	Used            bool       `gorm:"not null;default:false;index" json:"used"`                         // 是否已使用
	UsedAt          *time.Time `json:"used_at,omitempty"`                                                // 使用时间
	OrderID         *uint      `gorm:"index" json:"order_id,omitempty"`                                  // 使用的订单
	IsActive        bool       `gorm:"not null;default:false;index" json:"is_active"`                    // 是否激活
	PaymentStatus   string     `gorm:"type:varchar(20);not null;default:'pendente';index" json:"payment_status"` // 支付状态
	PaymentID       string     `gorm:"type:varchar(64);index" json:"payment_id,omitempty"`               // 网关支付ID
	PaidAt          *time.Time `json:"paid_at,omitempty"`                                                // 支付确认时间
	CreatedAt       time.Time  `json:"created_at"`                                                       // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                                       // 更新时间

	CouponType *CouponType `gorm:"foreignKey:CouponTypeID" json:"coupon_type,omitempty"` // 券类型
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
