package models

import "time"

// SpecialDay 特殊日活动窗口
// 当 IsActive 且 StartAt <= now <= EndAt 时视为生效
type SpecialDay struct {
	ID                   uint      `gorm:"primarykey" json:"id"`                                           // 主键
	Name                 string    `gorm:"type:varchar(120);not null" json:"name"`                         // 名称
	Description          string    `gorm:"type:text" json:"description"`                                   // 描述
	StartAt              time.Time `gorm:"not null;index:idx_special_day_window,priority:2" json:"start_at"` // 开始时间
	EndAt                time.Time `gorm:"not null;index:idx_special_day_window,priority:3" json:"end_at"`   // 结束时间
	ExtraDiscountPercent *int      `json:"extra_discount_percent,omitempty"`                               // 全店额外折扣百分比（可选）
	IsActive             bool      `gorm:"not null;index:idx_special_day_window,priority:1" json:"is_active"` // 是否启用
	CreatedBy            uint      `gorm:"index" json:"created_by"`                                        // 创建管理员
	CreatedAt            time.Time `json:"created_at"`                                                     // 创建时间
	UpdatedAt            time.Time `json:"updated_at"`                                                     // 更新时间
}

// TableName 指定表名
func (SpecialDay) TableName() string {
	return "special_days"
}

// CoversTime 判断窗口是否覆盖指定时间
func (s *SpecialDay) CoversTime(t time.Time) bool {
	if s == nil || !s.IsActive {
		return false
	}
	return !t.Before(s.StartAt) && !t.After(s.EndAt)
}
