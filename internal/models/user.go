package models

import "time"

// User 用户
type User struct {
	ID           uint         `gorm:"primarykey" json:"id"`                               // 主键
	Email        string       `gorm:"type:varchar(200);uniqueIndex;not null" json:"email"` // 邮箱
	PasswordHash PasswordHash `gorm:"type:varchar(100);not null" json:"-"`                // 密码哈希
	Name         string       `gorm:"type:varchar(120)" json:"name"`                      // 姓名
	CPF          string       `gorm:"type:varchar(11)" json:"-"`                          // 税号（仅用于 PIX 付款）
	Locale       string       `gorm:"type:varchar(10);default:'pt-BR'" json:"locale"`     // 语言偏好
	Status       string       `gorm:"type:varchar(20);default:'active'" json:"status"`    // 账号状态
	TokenVersion uint64       `gorm:"not null;default:0" json:"-"`                        // Token 版本
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`                            // 最后登录时间
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt    time.Time    `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
