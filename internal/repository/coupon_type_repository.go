package repository

import (
	"errors"

	"github.com/cupom-store/internal/models"

	"gorm.io/gorm"
)

// CouponTypeRepository 券类型数据访问接口
type CouponTypeRepository interface {
	GetByID(id uint) (*models.CouponType, error)
	List(onlyActive bool) ([]models.CouponType, error)
	Create(couponType *models.CouponType) error
	Update(couponType *models.CouponType) error
}

// GormCouponTypeRepository GORM 实现
type GormCouponTypeRepository struct {
	db *gorm.DB
}

// NewCouponTypeRepository 创建券类型仓库
func NewCouponTypeRepository(db *gorm.DB) *GormCouponTypeRepository {
	return &GormCouponTypeRepository{db: db}
}

// GetByID 根据 ID 获取
func (r *GormCouponTypeRepository) GetByID(id uint) (*models.CouponType, error) {
	var couponType models.CouponType
	if err := r.db.First(&couponType, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &couponType, nil
}

// List 券类型列表
func (r *GormCouponTypeRepository) List(onlyActive bool) ([]models.CouponType, error) {
	query := r.db.Model(&models.CouponType{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var items []models.CouponType
	if err := query.Order("price ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create 创建
func (r *GormCouponTypeRepository) Create(couponType *models.CouponType) error {
	return r.db.Create(couponType).Error
}

// Update 更新
func (r *GormCouponTypeRepository) Update(couponType *models.CouponType) error {
	return r.db.Save(couponType).Error
}
