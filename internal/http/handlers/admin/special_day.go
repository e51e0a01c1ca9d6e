package admin

import (
	"strconv"
	"time"

	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/repository"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// SpecialDayRequest 特殊日创建/更新请求，时间为 RFC3339
type SpecialDayRequest struct {
	Name                 string    `json:"name" binding:"required"`
	Description          string    `json:"description"`
	StartAt              time.Time `json:"start_at" binding:"required"`
	EndAt                time.Time `json:"end_at" binding:"required"`
	ExtraDiscountPercent *int      `json:"extra_discount_percent"`
	IsActive             *bool     `json:"is_active"`
}

func (req SpecialDayRequest) toInput() service.SpecialDayInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.SpecialDayInput{
		Name:                 req.Name,
		Description:          req.Description,
		StartAt:              req.StartAt,
		EndAt:                req.EndAt,
		ExtraDiscountPercent: req.ExtraDiscountPercent,
		IsActive:             active,
	}
}

// ListSpecialDays 特殊日列表
func (h *Handler) ListSpecialDays(c *gin.Context) {
	page, pageSize := handlershared.PageQuery(c)
	filter := repository.SpecialDayListFilter{Page: page, PageSize: pageSize}
	if raw := c.Query("is_active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	days, total, err := h.SpecialDayService.ListSpecialDays(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, days, handlershared.BuildPagination(page, pageSize, total))
}

// CreateSpecialDay 新建特殊日
func (h *Handler) CreateSpecialDay(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req SpecialDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	day, err := h.SpecialDayService.CreateSpecialDay(c.Request.Context(), req.toInput(), adminID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Created(c, day)
}

// UpdateSpecialDay 更新特殊日
func (h *Handler) UpdateSpecialDay(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req SpecialDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	day, err := h.SpecialDayService.UpdateSpecialDay(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, day)
}

// DeleteSpecialDay 删除特殊日
func (h *Handler) DeleteSpecialDay(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.SpecialDayService.DeleteSpecialDay(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}
