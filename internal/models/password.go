package models

import (
	"database/sql/driver"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordEmpty 空密码
var ErrPasswordEmpty = errors.New("password is empty")

// PasswordHash bcrypt 哈希值
// 只能通过 NewPasswordHash 生成，写库时不会再做任何隐式处理
type PasswordHash string

// NewPasswordHash 对明文密码做 bcrypt 哈希
func NewPasswordHash(plain string) (PasswordHash, error) {
	if plain == "" {
		return "", ErrPasswordEmpty
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return PasswordHash(hash), nil
}

// Matches 校验明文是否匹配
func (h PasswordHash) Matches(plain string) bool {
	if h == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h), []byte(plain)) == nil
}

// Value 实现 driver.Valuer
func (h PasswordHash) Value() (driver.Value, error) {
	return string(h), nil
}

// Scan 实现 sql.Scanner
func (h *PasswordHash) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*h = ""
	case []byte:
		*h = PasswordHash(v)
	case string:
		*h = PasswordHash(v)
	default:
		return errors.New("password hash: unsupported scan type")
	}
	return nil
}
