package models

import "time"

// Admin 管理员
type Admin struct {
	ID           uint         `gorm:"primarykey" json:"id"`                                  // 主键
	Username     string       `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"` // 登录名
	PasswordHash PasswordHash `gorm:"type:varchar(100);not null" json:"-"`                   // 密码哈希
	IsSuper      bool         `gorm:"not null;default:false;index" json:"is_super"`          // 超级管理员（跳过 RBAC）
	TokenVersion uint64       `gorm:"not null;default:0" json:"-"`                           // Token 版本
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`                               // 最后登录时间
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`                               // 创建时间
}

// TableName 指定表名
func (Admin) TableName() string {
	return "admins"
}
