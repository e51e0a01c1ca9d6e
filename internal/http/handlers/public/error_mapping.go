package public

import (
	"errors"

	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 覆盖默认分类映射的特殊规则
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, err)
			return
		}
	}
	handlershared.RespondServiceError(c, err)
}

// 网关需要非 2xx 才会重投通知；上游故障按 500 返回
var webhookErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentGatewayUnavailable, code: response.CodeInternal, key: "error.payment_gateway_unavailable"},
	{target: service.ErrPaymentGatewayNotConfigured, code: response.CodeInternal, key: "error.payment_gateway_not_configured"},
}

// 登录失败不区分账号不存在与密码错误
var userLoginErrorRules = []mappedHandlerError{
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, key: "error.invalid_credentials"},
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}
