package public

import (
	"strings"

	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/repository"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// AddressRequest 收货地址
type AddressRequest struct {
	RecipientName string `json:"recipient_name" binding:"required"`
	Phone         string `json:"phone"`
	ZipCode       string `json:"zip_code" binding:"required"`
	Street        string `json:"street" binding:"required"`
	Number        string `json:"number" binding:"required"`
	Complement    string `json:"complement"`
	District      string `json:"district"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state" binding:"required"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Items          []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	CouponCode     string             `json:"coupon_code"`
	Address        AddressRequest     `json:"address" binding:"required"`
	PaymentMethod  string             `json:"payment_method"`
	ShippingAmount *models.Money      `json:"shipping_amount"`
}

// PreviewOrderRequest 订单金额预览请求
type PreviewOrderRequest struct {
	Items          []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	CouponCode     string             `json:"coupon_code"`
	ShippingAmount *models.Money      `json:"shipping_amount"`
}

// PricingView 金额明细
type PricingView struct {
	Subtotal     models.Money `json:"subtotal"`
	Discount     models.Money `json:"discount"`
	Shipping     models.Money `json:"shipping"`
	Total        models.Money `json:"total"`
	CouponCode   string       `json:"coupon_code,omitempty"`
	IsSpecialDay bool         `json:"is_special_day"`
}

func toPricingView(cart *service.PricedCart) PricingView {
	view := PricingView{
		Subtotal:     cart.Subtotal,
		Discount:     cart.Discount,
		Shipping:     cart.Shipping,
		Total:        cart.Total,
		IsSpecialDay: cart.SpecialDay != nil,
	}
	if cart.Coupon != nil {
		view.CouponCode = cart.Coupon.Code
	}
	return view
}

func toOrderItems(items []OrderItemRequest) []service.CreateOrderItem {
	result := make([]service.CreateOrderItem, 0, len(items))
	for _, item := range items {
		result = append(result, service.CreateOrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return result
}

func shippingOrZero(amount *models.Money) models.Money {
	if amount == nil {
		return models.Money{}
	}
	return *amount
}

// PreviewOrder 订单金额预览，不锁定库存与优惠券
func (h *Handler) PreviewOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req PreviewOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	cart, err := h.OrderService.PriceCart(c.Request.Context(), service.PriceCartInput{
		UserID:         uid,
		Items:          toOrderItems(req.Items),
		CouponCode:     req.CouponCode,
		ShippingAmount: shippingOrZero(req.ShippingAmount),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, toPricingView(cart))
}

// CreateOrder 创建订单并返回付款入口
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.OrderService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		UserID:     uid,
		Items:      toOrderItems(req.Items),
		CouponCode: req.CouponCode,
		Address: models.DeliveryAddress{
			RecipientName: req.Address.RecipientName,
			Phone:         req.Address.Phone,
			ZipCode:       req.Address.ZipCode,
			Street:        req.Address.Street,
			Number:        req.Address.Number,
			Complement:    req.Address.Complement,
			District:      req.Address.District,
			City:          req.Address.City,
			State:         req.Address.State,
		},
		PaymentMethod:  req.PaymentMethod,
		ShippingAmount: shippingOrZero(req.ShippingAmount),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	data := gin.H{
		"order":    result.Order,
		"pricing":  toPricingView(result.Cart),
		"checkout": result.Checkout,
	}
	if result.PaymentError != "" {
		data["payment_error"] = result.PaymentError
	}
	response.Created(c, data)
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, handlershared.BuildPagination(page, pageSize, total))
}

// GetOrderByOrderNo 当前用户订单详情
func (h *Handler) GetOrderByOrderNo(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderByOrderNo(uid, c.Param("order_no"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
