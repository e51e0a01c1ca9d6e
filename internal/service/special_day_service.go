package service

import (
	"context"
	"strings"
	"time"

	"github.com/cupom-store/internal/cache"
	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/repository"
)

// SpecialDayService 特殊日服务
type SpecialDayService struct {
	repo     repository.SpecialDayRepository
	cacheTTL time.Duration
	now      func() time.Time
}

// NewSpecialDayService 创建特殊日服务
func NewSpecialDayService(repo repository.SpecialDayRepository, cfg config.SpecialDayConfig) *SpecialDayService {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl < 0 {
		ttl = 0
	}
	return &SpecialDayService{repo: repo, cacheTTL: ttl, now: utcNow}
}

// CurrentSpecialDay 返回当前生效的特殊日，查询失败时按非特殊日处理
func (s *SpecialDayService) CurrentSpecialDay(ctx context.Context) *models.SpecialDay {
	if s == nil || s.repo == nil {
		return nil
	}
	now := s.now()
	if snapshot, hit, err := cache.GetSpecialDay(ctx); err != nil {
		logger.Warnw("special_day_cache_read_failed", "error", err)
	} else if hit {
		if snapshot.Day == nil {
			return nil
		}
		if snapshot.Day.CoversTime(now) {
			return snapshot.Day
		}
	}

	day, err := s.repo.FindActiveAt(now)
	if err != nil {
		logger.Errorw("special_day_lookup_failed", "error", err)
		return nil
	}
	if err := cache.SetSpecialDay(ctx, day, s.cacheTTLFor(day, now)); err != nil {
		logger.Warnw("special_day_cache_write_failed", "error", err)
	}
	return day
}

// cacheTTLFor 命中窗口时缓存不超过窗口结束，未命中时不超过下一个窗口开始
func (s *SpecialDayService) cacheTTLFor(day *models.SpecialDay, now time.Time) time.Duration {
	ttl := s.cacheTTL
	if ttl <= 0 {
		return 0
	}
	if day != nil {
		if remaining := day.EndAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
		return ttl
	}
	next, err := s.repo.FindNextStartAfter(now)
	if err != nil {
		// 无法确认下一个窗口时不缓存空结果
		logger.Warnw("special_day_next_lookup_failed", "error", err)
		return 0
	}
	if next != nil {
		if until := next.StartAt.Sub(now); until < ttl {
			ttl = until
		}
	}
	return ttl
}

// SpecialDayInput 管理端特殊日参数
type SpecialDayInput struct {
	Name                 string
	Description          string
	StartAt              time.Time
	EndAt                time.Time
	ExtraDiscountPercent *int
	IsActive             bool
}

func (in SpecialDayInput) normalize() (SpecialDayInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.StartAt.IsZero() || in.EndAt.IsZero() {
		return in, ErrInvalidSpecialDay
	}
	in.StartAt = in.StartAt.UTC()
	in.EndAt = in.EndAt.UTC()
	if !in.EndAt.After(in.StartAt) {
		return in, ErrInvalidSpecialDay
	}
	if in.ExtraDiscountPercent != nil && (*in.ExtraDiscountPercent < 0 || *in.ExtraDiscountPercent > 100) {
		return in, ErrInvalidSpecialDay
	}
	return in, nil
}

// ListSpecialDays 管理端列表
func (s *SpecialDayService) ListSpecialDays(filter repository.SpecialDayListFilter) ([]models.SpecialDay, int64, error) {
	return s.repo.List(filter)
}

// CreateSpecialDay 创建特殊日
func (s *SpecialDayService) CreateSpecialDay(ctx context.Context, input SpecialDayInput, adminID uint) (*models.SpecialDay, error) {
	in, err := input.normalize()
	if err != nil {
		return nil, err
	}
	day := &models.SpecialDay{
		Name:                 in.Name,
		Description:          in.Description,
		StartAt:              in.StartAt,
		EndAt:                in.EndAt,
		ExtraDiscountPercent: in.ExtraDiscountPercent,
		IsActive:             in.IsActive,
		CreatedBy:            adminID,
	}
	if err := s.repo.Create(day); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	logger.Infow("special_day_created", "special_day_id", day.ID, "admin_id", adminID, "start_at", day.StartAt, "end_at", day.EndAt)
	return day, nil
}

// UpdateSpecialDay 更新特殊日
func (s *SpecialDayService) UpdateSpecialDay(ctx context.Context, id uint, input SpecialDayInput) (*models.SpecialDay, error) {
	in, err := input.normalize()
	if err != nil {
		return nil, err
	}
	day, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if day == nil {
		return nil, ErrSpecialDayNotFound
	}
	day.Name = in.Name
	day.Description = in.Description
	day.StartAt = in.StartAt
	day.EndAt = in.EndAt
	day.ExtraDiscountPercent = in.ExtraDiscountPercent
	day.IsActive = in.IsActive
	if err := s.repo.Update(day); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	logger.Infow("special_day_updated", "special_day_id", day.ID, "is_active", day.IsActive)
	return day, nil
}

// DeleteSpecialDay 删除特殊日
func (s *SpecialDayService) DeleteSpecialDay(ctx context.Context, id uint) error {
	day, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if day == nil {
		return ErrSpecialDayNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.invalidate(ctx)
	logger.Infow("special_day_deleted", "special_day_id", id)
	return nil
}

func (s *SpecialDayService) invalidate(ctx context.Context) {
	if err := cache.InvalidateSpecialDay(ctx); err != nil {
		logger.Warnw("special_day_cache_invalidate_failed", "error", err)
	}
}
