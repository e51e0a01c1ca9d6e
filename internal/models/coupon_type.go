package models

import "time"

// CouponType 可购买的优惠券类型
type CouponType struct {
	ID              uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name            string    `gorm:"type:varchar(120);not null" json:"name"`             // 名称
	Description     string    `gorm:"type:text" json:"description"`                       // 描述
	DiscountPercent int       `gorm:"not null" json:"discount_percent"`                   // 折扣百分比（1-100）
	Price           Money     `gorm:"type:decimal(20,2);not null" json:"price"`           // 售价
	ValidityDays    int       `gorm:"not null;default:30" json:"validity_days"`           // 有效天数
	IsActive        bool      `gorm:"not null;index" json:"is_active"`                    // 是否可售
	CreatedAt       time.Time `json:"created_at"`                                         // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (CouponType) TableName() string {
	return "coupon_types"
}
