package public

import (
	"strconv"
	"strings"

	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// GetProducts 商品列表，价格按当前特殊日计算
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)
	result, err := h.CatalogService.ListProducts(c.Request.Context(), service.ProductListInput{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: uint(categoryID),
		Search:     strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, gin.H{
		"items":          result.Items,
		"is_special_day": result.SpecialDay != nil,
		"special_day":    result.SpecialDay,
	}, handlershared.BuildPagination(page, pageSize, result.Total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	view, err := h.CatalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, view)
}

// GetCurrentSpecialDay 当前特殊日
func (h *Handler) GetCurrentSpecialDay(c *gin.Context) {
	day := h.SpecialDayService.CurrentSpecialDay(c.Request.Context())
	response.Success(c, gin.H{
		"is_special_day": day != nil,
		"special_day":    day,
	})
}

// GetCouponTypes 在售券类型
func (h *Handler) GetCouponTypes(c *gin.Context) {
	types, err := h.CouponPurchaseService.ListCouponTypes(true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, types)
}
