package service

import (
	"context"
	"strings"

	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CreateOrderItem 下单商品行
type CreateOrderItem struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// PriceCartInput 购物车计价参数
type PriceCartInput struct {
	UserID         uint
	Items          []CreateOrderItem
	CouponCode     string
	ShippingAmount models.Money
}

// PricedLine 计价后的商品行，单价在下单时冻结
type PricedLine struct {
	Product   *models.Product
	Quantity  int
	UnitPrice models.Money
	Subtotal  models.Money
}

// PricedCart 购物车计价结果
type PricedCart struct {
	Lines      []PricedLine
	Subtotal   models.Money
	Discount   models.Money
	Shipping   models.Money
	Total      models.Money
	Coupon     *models.Coupon
	SpecialDay *models.SpecialDay
}

// cartSource 计价读取来源；结算事务内绑定事务仓库并加行锁
type cartSource struct {
	products repository.ProductRepository
	coupons  repository.CouponRepository
	lock     bool
}

func (src cartSource) product(id uint) (*models.Product, error) {
	if src.lock {
		return src.products.GetByIDForUpdate(id)
	}
	return src.products.GetByID(id)
}

func (src cartSource) coupon(code string) (*models.Coupon, error) {
	coupon, err := src.coupons.GetByCode(code)
	if err != nil || coupon == nil || !src.lock {
		return coupon, err
	}
	return src.coupons.GetByIDForUpdate(coupon.ID)
}

// PriceCart 计算购物车金额并校验库存与优惠券，不写入任何数据
func (s *OrderService) PriceCart(ctx context.Context, input PriceCartInput) (*PricedCart, error) {
	if input.ShippingAmount.IsNegative() {
		return nil, ErrInvalidShipping
	}
	day := s.specialDays.CurrentSpecialDay(ctx)
	return priceCart(cartSource{products: s.productRepo, coupons: s.couponRepo}, day, input)
}

func priceCart(src cartSource, day *models.SpecialDay, input PriceCartInput) (*PricedCart, error) {
	items, err := mergeOrderItems(input.Items)
	if err != nil {
		return nil, err
	}
	isSpecialDay := day != nil
	cart := &PricedCart{
		Lines:      make([]PricedLine, 0, len(items)),
		Shipping:   input.ShippingAmount,
		SpecialDay: day,
	}
	subtotal := decimal.Zero
	for _, item := range items {
		product, err := src.product(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, ErrProductNotFound
		}
		if !IsAvailable(product, isSpecialDay) {
			return nil, ErrProductUnavailable
		}
		if item.Quantity > product.Stock {
			return nil, ErrInsufficientStock
		}
		unit := PriceFor(product, isSpecialDay)
		lineTotal := models.NewMoneyFromDecimal(unit.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
		cart.Lines = append(cart.Lines, PricedLine{
			Product:   product,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			Subtotal:  lineTotal,
		})
		subtotal = subtotal.Add(lineTotal.Decimal)
	}
	cart.Subtotal = models.NewMoneyFromDecimal(subtotal)

	discount := decimal.Zero
	if code := normalizeCouponCode(input.CouponCode); code != "" {
		if !isSpecialDay {
			return nil, ErrCouponRequiresSpecialDay
		}
		coupon, err := src.coupon(code)
		if err != nil {
			return nil, err
		}
		if coupon == nil {
			return nil, ErrCouponNotFound
		}
		if coupon.UserID != input.UserID {
			return nil, ErrCouponNotOwned
		}
		if err := validationError(Validate(coupon, utcNow())); err != nil {
			return nil, err
		}
		discount = couponDiscount(cart.Subtotal.Decimal, coupon.DiscountPercent)
		cart.Coupon = coupon
	}
	cart.Discount = models.NewMoneyFromDecimal(discount)
	cart.Total = models.NewMoneyFromDecimal(subtotal.Sub(discount).Add(input.ShippingAmount.Decimal))
	return cart, nil
}

// couponDiscount 折扣 = 小计 × 百分比 / 100，保留两位且不超过小计
func couponDiscount(subtotal decimal.Decimal, percent int) decimal.Decimal {
	if percent <= 0 || !subtotal.IsPositive() {
		return decimal.Zero
	}
	discount := subtotal.Mul(decimal.NewFromInt(int64(percent))).Div(hundred).Round(2)
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

// mergeOrderItems 合并相同商品，保持首次出现的顺序
func mergeOrderItems(items []CreateOrderItem) ([]CreateOrderItem, error) {
	if len(items) == 0 {
		return nil, ErrInvalidOrderItem
	}
	merged := make([]CreateOrderItem, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity < 1 {
			return nil, ErrInvalidOrderItem
		}
		if pos, ok := index[item.ProductID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
