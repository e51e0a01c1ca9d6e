package shared

import (
	"errors"

	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/i18n"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	locale := i18n.ResolveLocale(c)
	appErr := response.WrapError(code, i18n.T(locale, key), err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// keyedError 携带 i18n 键与参数的错误（如密码策略）
type keyedError interface {
	Key() string
	Args() []interface{}
}

// StatusForKind 业务错误分类对应的状态码
func StatusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation:
		return response.CodeBadRequest
	case service.KindBusinessRule:
		return response.CodeUnprocessableEntity
	case service.KindConflict:
		return response.CodeConflict
	case service.KindNotFound:
		return response.CodeNotFound
	case service.KindUnauthorized:
		return response.CodeUnauthorized
	case service.KindUpstream:
		return response.CodeBadGateway
	default:
		return response.CodeInternal
	}
}

// RespondServiceError 按错误分类输出状态码、原因码与本地化文案，未知错误不透出细节
func RespondServiceError(c *gin.Context, err error) {
	kind := service.ErrorKindOf(err)
	code := StatusForKind(kind)
	if code == response.CodeInternal {
		RespondError(c, code, "error.internal_error", err)
		return
	}
	reason := service.ReasonOf(err)
	if errors.Is(err, service.ErrConcurrencyConflict) {
		reason = service.ErrConcurrencyConflict.Reason
	}
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, "error."+reason)
	var keyed keyedError
	if errors.As(err, &keyed) {
		msg = i18n.Sprintf(locale, keyed.Key(), keyed.Args()...)
	}
	log := RequestLog(c)
	if code >= response.CodeInternal {
		log.Errorw("handler_service_error", "kind", kind, "reason", reason, "error", err)
	} else {
		log.Infow("handler_service_rejected", "kind", kind, "reason", reason, "error", err)
	}
	response.WrapError(code, msg, err).WithReason(reason, service.ReasonOf(err)).Write(c)
}
