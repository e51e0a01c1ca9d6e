package public

import (
	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 前台接口处理器：商品、下单、购券与支付回调
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, handlershared.ContextUserID)
}

// bindJSON 解析请求体，失败时直接写入 400
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		handlershared.RequestLog(c).Debugw("request_bind_failed", "path", c.FullPath(), "error", err)
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return false
	}
	return true
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
