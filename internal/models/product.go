package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品
// Stock 只会被管理端编辑与结算事务中的条件扣减修改
type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                       // 主键
	CategoryID     *uint          `gorm:"index" json:"category_id,omitempty"`                          // 分类ID
	Name           string         `gorm:"type:varchar(200);not null" json:"name"`                     // 名称
	Description    string         `gorm:"type:text" json:"description"`                               // 描述
	ImageURL       string         `gorm:"type:varchar(500)" json:"image_url"`                         // 主图
	Price          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`         // 基础价格
	SpecialPrice   *Money         `gorm:"type:decimal(20,2)" json:"special_price,omitempty"`          // 特殊日价格（可选）
	Stock          int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`           // 库存数量
	SpecialDayOnly bool           `gorm:"not null;default:false;index" json:"special_day_only"`       // 仅特殊日可售
	IsActive       bool           `gorm:"not null;index" json:"is_active"`                            // 是否上架
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                                 // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
