package public

import (
	"strings"

	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/payment/mercadopago"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// mercadoPagoNotification Webhook 请求体；旧版 IPN 通过查询参数 topic / id 传递
type mercadoPagoNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook 支付网关通知入口
// 未知引用与非支付通知返回 200，避免网关无限重投；网关查询失败返回 500 以便重投
func (h *Handler) MercadoPagoWebhook(c *gin.Context) {
	var body mercadoPagoNotification
	_ = c.ShouldBindJSON(&body)

	kind := strings.TrimSpace(body.Type)
	if kind == "" {
		kind = strings.TrimSpace(c.Query("type"))
	}
	if kind == "" {
		kind = strings.TrimSpace(c.Query("topic"))
	}
	paymentID := strings.TrimSpace(body.Data.ID)
	if paymentID == "" {
		paymentID = strings.TrimSpace(c.Query("data.id"))
	}
	if paymentID == "" {
		paymentID = strings.TrimSpace(c.Query("id"))
	}

	if err := mercadopago.VerifyWebhookSignature(h.WebhookSecret, c.GetHeader("x-signature"), c.GetHeader("x-request-id"), paymentID); err != nil {
		respondError(c, response.CodeUnauthorized, "error.webhook_signature_invalid", nil)
		return
	}

	result, err := h.PaymentService.HandleNotification(c.Request.Context(), service.Notification{
		Type:      kind,
		PaymentID: paymentID,
	})
	if err != nil {
		respondWithMappedError(c, err, webhookErrorRules)
		return
	}
	response.Success(c, result)
}
