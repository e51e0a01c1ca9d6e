package public

import (
	"strings"

	"github.com/cupom-store/internal/http/response"

	"github.com/gin-gonic/gin"
)

type paymentStatusView struct {
	PaymentID         string `json:"payment_id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail,omitempty"`
	ExternalReference string `json:"external_reference"`
	Amount            string `json:"amount"`
}

// GetPaymentStatus 查询本人订单或优惠券的支付状态，同时触发一次对账
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	paymentID := strings.TrimSpace(c.Param("id"))
	if paymentID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	status, err := h.PaymentService.GetPaymentStatus(c.Request.Context(), uid, paymentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, paymentStatusView{
		PaymentID:         status.ID,
		Status:            status.Status,
		StatusDetail:      status.StatusDetail,
		ExternalReference: status.ExternalReference,
		Amount:            status.Amount.StringFixed(2),
	})
}
