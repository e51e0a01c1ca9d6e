package admin

import (
	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponTypeRequest 券种请求
type CouponTypeRequest struct {
	Name            string       `json:"name" binding:"required"`
	Description     string       `json:"description"`
	DiscountPercent int          `json:"discount_percent" binding:"required"`
	Price           models.Money `json:"price"`
	ValidityDays    int          `json:"validity_days" binding:"required"`
	IsActive        *bool        `json:"is_active"`
}

func (req CouponTypeRequest) toInput() service.CouponTypeInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.CouponTypeInput{
		Name:            req.Name,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		Price:           req.Price,
		ValidityDays:    req.ValidityDays,
		IsActive:        active,
	}
}

// ListCouponTypes 全部券种（含已下架）
func (h *Handler) ListCouponTypes(c *gin.Context) {
	types, err := h.CouponPurchaseService.ListCouponTypes(false)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, types)
}

// CreateCouponType 新建券种
func (h *Handler) CreateCouponType(c *gin.Context) {
	var req CouponTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	couponType, err := h.CouponPurchaseService.CreateCouponType(req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Created(c, couponType)
}

// UpdateCouponType 更新券种，已售出的券不受影响
func (h *Handler) UpdateCouponType(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req CouponTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	couponType, err := h.CouponPurchaseService.UpdateCouponType(id, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, couponType)
}
