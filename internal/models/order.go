package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// DeliveryAddress 收货地址（以 JSON 存储）
type DeliveryAddress struct {
	RecipientName string `json:"recipient_name"` // 收件人
	Phone         string `json:"phone"`          // 联系电话
	ZipCode       string `json:"zip_code"`       // CEP
	Street        string `json:"street"`         // 街道
	Number        string `json:"number"`         // 门牌号
	Complement    string `json:"complement"`     // 补充信息
	District      string `json:"district"`       // 街区
	City          string `json:"city"`           // 城市
	State         string `json:"state"`          // 州（两位缩写）
}

// Value 实现 driver.Valuer
func (a DeliveryAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan 实现 sql.Scanner
func (a *DeliveryAddress) Scan(value interface{}) error {
	if value == nil {
		*a = DeliveryAddress{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("delivery address: unsupported scan type")
	}
	return json.Unmarshal(raw, a)
}

// Order 订单
// 进入终态（entregue/cancelado）后金额与状态不再变化
type Order struct {
	ID              uint            `gorm:"primarykey" json:"id"`                                            // 主键
	OrderNo         string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`           // 订单号
	UserID          uint            `gorm:"not null;index" json:"user_id"`                                   // 用户ID
	CouponID        *uint           `gorm:"index" json:"coupon_id,omitempty"`                                // 使用的优惠券
	Status          string          `gorm:"type:varchar(20);not null;index" json:"status"`                   // 订单状态
	SubtotalAmount  Money           `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"`    // 商品小计
	DiscountAmount  Money           `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`    // 优惠券折扣
	ShippingAmount  Money           `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"`    // 运费
	TotalAmount     Money           `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`       // 应付总额
	PaymentMethod   string          `gorm:"type:varchar(20);not null" json:"payment_method"`                 // 支付方式
	Address         DeliveryAddress `gorm:"type:json" json:"address"`                                        // 收货地址
	PreferenceID    string          `gorm:"type:varchar(80);index" json:"preference_id,omitempty"`           // 网关结账偏好ID
	PaymentID       string          `gorm:"type:varchar(64);index" json:"payment_id,omitempty"`              // 网关支付ID
	PaymentStatus   string          `gorm:"type:varchar(20)" json:"payment_status,omitempty"`                // 最近一次网关状态
	PaidAt          *time.Time      `json:"paid_at,omitempty"`                                               // 支付确认时间
	CanceledAt      *time.Time      `json:"canceled_at,omitempty"`                                           // 取消时间
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt       time.Time       `json:"updated_at"`                                                      // 更新时间

	Items  []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"` // 订单项
	Coupon *Coupon     `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`                          // 优惠券
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
