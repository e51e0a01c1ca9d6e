package service

import (
	"context"
	"strings"

	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/repository"
)

// PriceFor 返回商品在当前是否特殊日下的成交单价
func PriceFor(product *models.Product, isSpecialDay bool) models.Money {
	if product == nil {
		return models.Money{}
	}
	if isSpecialDay && product.SpecialPrice != nil && product.SpecialPrice.IsPositive() {
		return *product.SpecialPrice
	}
	return product.Price
}

// IsAvailable 仅特殊日商品在非特殊日不可售，与库存无关
func IsAvailable(product *models.Product, isSpecialDay bool) bool {
	if product == nil || !product.IsActive {
		return false
	}
	if product.SpecialDayOnly && !isSpecialDay {
		return false
	}
	return true
}

// CatalogService 商品目录服务
type CatalogService struct {
	productRepo repository.ProductRepository
	specialDays *SpecialDayService
}

// NewCatalogService 创建商品目录服务
func NewCatalogService(productRepo repository.ProductRepository, specialDays *SpecialDayService) *CatalogService {
	return &CatalogService{productRepo: productRepo, specialDays: specialDays}
}

// ProductView 前台商品视图
type ProductView struct {
	models.Product
	EffectivePrice models.Money `json:"effective_price"`
	Available      bool         `json:"available"`
	InStock        bool         `json:"in_stock"`
}

// ProductListInput 前台商品列表参数
type ProductListInput struct {
	Page       int
	PageSize   int
	CategoryID uint
	Search     string
}

// ProductListResult 前台商品列表结果
type ProductListResult struct {
	Items      []ProductView
	Total      int64
	SpecialDay *models.SpecialDay
}

// ListProducts 前台商品列表：非特殊日隐藏仅特殊日商品，价格按当前窗口计算
func (s *CatalogService) ListProducts(ctx context.Context, input ProductListInput) (*ProductListResult, error) {
	day := s.specialDays.CurrentSpecialDay(ctx)
	isSpecialDay := day != nil
	products, total, err := s.productRepo.List(repository.ProductListFilter{
		Page:              input.Page,
		PageSize:          input.PageSize,
		CategoryID:        input.CategoryID,
		Search:            input.Search,
		OnlyActive:        true,
		ExcludeSpecialDay: !isSpecialDay,
	})
	if err != nil {
		return nil, err
	}
	items := make([]ProductView, 0, len(products))
	for i := range products {
		items = append(items, toProductView(&products[i], isSpecialDay))
	}
	return &ProductListResult{Items: items, Total: total, SpecialDay: day}, nil
}

// GetProduct 前台商品详情，非特殊日访问仅特殊日商品视为不存在
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*ProductView, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	isSpecialDay := s.specialDays.CurrentSpecialDay(ctx) != nil
	if !IsAvailable(product, isSpecialDay) {
		return nil, ErrProductNotFound
	}
	view := toProductView(product, isSpecialDay)
	return &view, nil
}

func toProductView(product *models.Product, isSpecialDay bool) ProductView {
	return ProductView{
		Product:        *product,
		EffectivePrice: PriceFor(product, isSpecialDay),
		Available:      IsAvailable(product, isSpecialDay),
		InStock:        product.Stock > 0,
	}
}

// ProductInput 管理端商品参数
type ProductInput struct {
	CategoryID     *uint
	Name           string
	Description    string
	ImageURL       string
	Price          models.Money
	SpecialPrice   *models.Money
	Stock          int
	SpecialDayOnly bool
	IsActive       bool
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || !in.Price.IsPositive() || in.Stock < 0 {
		return ErrInvalidProduct
	}
	if in.SpecialPrice != nil && !in.SpecialPrice.IsPositive() {
		return ErrInvalidProduct
	}
	return nil
}

func (in ProductInput) apply(product *models.Product) {
	product.CategoryID = in.CategoryID
	product.Name = strings.TrimSpace(in.Name)
	product.Description = strings.TrimSpace(in.Description)
	product.ImageURL = strings.TrimSpace(in.ImageURL)
	product.Price = in.Price
	product.SpecialPrice = in.SpecialPrice
	product.Stock = in.Stock
	product.SpecialDayOnly = in.SpecialDayOnly
	product.IsActive = in.IsActive
}

// ListAdminProducts 管理端商品列表，包含下架与仅特殊日商品
func (s *CatalogService) ListAdminProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = false
	filter.ExcludeSpecialDay = false
	return s.productRepo.List(filter)
}

// CreateProduct 创建商品
func (s *CatalogService) CreateProduct(input ProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product := &models.Product{}
	input.apply(product)
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct 更新商品，库存直接覆盖为管理端录入值
func (s *CatalogService) UpdateProduct(id uint, input ProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	input.apply(product)
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}
