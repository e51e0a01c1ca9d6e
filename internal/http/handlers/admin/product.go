package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/repository"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductRequest 商品请求
type ProductRequest struct {
	CategoryID     *uint         `json:"category_id"`
	Name           string        `json:"name" binding:"required"`
	Description    string        `json:"description"`
	ImageURL       string        `json:"image_url"`
	Price          models.Money  `json:"price"`
	SpecialPrice   *models.Money `json:"special_price"`
	Stock          int           `json:"stock"`
	SpecialDayOnly bool          `json:"special_day_only"`
	IsActive       *bool         `json:"is_active"`
}

func (req ProductRequest) toInput() service.ProductInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.ProductInput{
		CategoryID:     req.CategoryID,
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Price:          req.Price,
		SpecialPrice:   req.SpecialPrice,
		Stock:          req.Stock,
		SpecialDayOnly: req.SpecialDayOnly,
		IsActive:       active,
	}
}

// ListProducts 商品列表 (Admin)，包含下架与仅特殊日商品
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	filter := repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("category_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.CategoryID = uint(id)
		}
	}
	products, total, err := h.CatalogService.ListAdminProducts(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, products, handlershared.BuildPagination(page, pageSize, total))
}

// CreateProduct 新建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.CatalogService.CreateProduct(req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Created(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.CatalogService.UpdateProduct(id, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}
