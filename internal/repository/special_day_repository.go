package repository

import (
	"errors"
	"time"

	"github.com/cupom-store/internal/models"

	"gorm.io/gorm"
)

// SpecialDayRepository 特殊日数据访问接口
type SpecialDayRepository interface {
	FindActiveAt(at time.Time) (*models.SpecialDay, error)
	FindNextStartAfter(at time.Time) (*models.SpecialDay, error)
	GetByID(id uint) (*models.SpecialDay, error)
	List(filter SpecialDayListFilter) ([]models.SpecialDay, int64, error)
	Create(day *models.SpecialDay) error
	Update(day *models.SpecialDay) error
	Delete(id uint) error
}

// GormSpecialDayRepository GORM 实现
type GormSpecialDayRepository struct {
	db *gorm.DB
}

// NewSpecialDayRepository 创建特殊日仓库
func NewSpecialDayRepository(db *gorm.DB) *GormSpecialDayRepository {
	return &GormSpecialDayRepository{db: db}
}

// FindActiveAt 返回覆盖指定时间的第一个启用窗口，按开始时间升序
func (r *GormSpecialDayRepository) FindActiveAt(at time.Time) (*models.SpecialDay, error) {
	var day models.SpecialDay
	err := r.db.Where("is_active = ? AND start_at <= ? AND end_at >= ?", true, at, at).
		Order("start_at ASC, id ASC").
		First(&day).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &day, nil
}

// FindNextStartAfter 返回指定时间之后最早开始的启用窗口
func (r *GormSpecialDayRepository) FindNextStartAfter(at time.Time) (*models.SpecialDay, error) {
	var day models.SpecialDay
	err := r.db.Where("is_active = ? AND start_at > ?", true, at).
		Order("start_at ASC, id ASC").
		First(&day).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &day, nil
}

// GetByID 根据 ID 获取
func (r *GormSpecialDayRepository) GetByID(id uint) (*models.SpecialDay, error) {
	var day models.SpecialDay
	if err := r.db.First(&day, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &day, nil
}

// List 特殊日列表
func (r *GormSpecialDayRepository) List(filter SpecialDayListFilter) ([]models.SpecialDay, int64, error) {
	query := r.db.Model(&models.SpecialDay{})
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return findPage[models.SpecialDay](query, filter.Page, filter.PageSize, "start_at DESC")
}

// Create 创建
func (r *GormSpecialDayRepository) Create(day *models.SpecialDay) error {
	return r.db.Create(day).Error
}

// Update 更新
func (r *GormSpecialDayRepository) Update(day *models.SpecialDay) error {
	return r.db.Save(day).Error
}

// Delete 删除
func (r *GormSpecialDayRepository) Delete(id uint) error {
	return r.db.Delete(&models.SpecialDay{}, id).Error
}
