package public

import (
	"strings"

	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/repository"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// PurchaseCouponRequest 购券请求
type PurchaseCouponRequest struct {
	CouponTypeID  uint   `json:"coupon_type_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	PayerEmail    string `json:"payer_email"`
	BuyerTaxID    string `json:"buyer_tax_id"`
	CardToken     string `json:"card_token"`
	CardMethodID  string `json:"card_method_id"`
	Installments  int    `json:"installments"`
}

// PurchaseCoupon 购买优惠券
func (h *Handler) PurchaseCoupon(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req PurchaseCouponRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.CouponPurchaseService.PurchaseCoupon(c.Request.Context(), service.PurchaseCouponInput{
		UserID:        uid,
		CouponTypeID:  req.CouponTypeID,
		PaymentMethod: req.PaymentMethod,
		PayerEmail:    req.PayerEmail,
		BuyerTaxID:    req.BuyerTaxID,
		CardToken:     req.CardToken,
		CardMethodID:  req.CardMethodID,
		Installments:  req.Installments,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Created(c, gin.H{
		"coupon":  result.Coupon,
		"payment": result.Payment,
	})
}

// ListMyCoupons 当前用户优惠券
func (h *Handler) ListMyCoupons(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.PageQuery(c)
	coupons, total, err := h.CouponPurchaseService.ListCoupons(repository.CouponListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        uid,
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OnlyUsable:    c.Query("usable") == "true",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, coupons, handlershared.BuildPagination(page, pageSize, total))
}
