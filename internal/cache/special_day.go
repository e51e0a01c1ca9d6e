package cache

import (
	"context"
	"time"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/models"
)

// SpecialDaySnapshot 当前特殊日查询结果快照，Day 为 nil 表示没有生效窗口
type SpecialDaySnapshot struct {
	Day      *models.SpecialDay `json:"day"`
	CachedAt int64              `json:"cached_at"`
}

// GetSpecialDay 读取特殊日快照
func GetSpecialDay(ctx context.Context) (*SpecialDaySnapshot, bool, error) {
	var snapshot SpecialDaySnapshot
	hit, err := GetJSON(ctx, constants.CacheKeySpecialDay, &snapshot)
	if err != nil || !hit {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// SetSpecialDay 写入特殊日快照
func SetSpecialDay(ctx context.Context, day *models.SpecialDay, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, constants.CacheKeySpecialDay, SpecialDaySnapshot{Day: day, CachedAt: time.Now().Unix()}, ttl)
}

// InvalidateSpecialDay 管理端变更特殊日后清除快照
func InvalidateSpecialDay(ctx context.Context) error {
	return Del(ctx, constants.CacheKeySpecialDay)
}
