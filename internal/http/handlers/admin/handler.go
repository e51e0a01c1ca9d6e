package admin

import (
	handlershared "github.com/cupom-store/internal/http/handlers/shared"
	"github.com/cupom-store/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 后台管理接口：特殊日、券种、商品、订单状态与权限
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, handlershared.ContextAdminID)
}

func isSuperAdmin(c *gin.Context) bool {
	flag, ok := c.Get(handlershared.ContextIsSuper)
	if !ok {
		return false
	}
	super, _ := flag.(bool)
	return super
}

// requestLog 请求日志，已登录时附带操作管理员
func requestLog(c *gin.Context) *zap.SugaredLogger {
	log := handlershared.RequestLog(c)
	if adminID, ok := c.Get(handlershared.ContextAdminID); ok {
		log = log.With("admin_id", adminID)
	}
	return log
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	requestLog(c).Debugw("admin_service_error", "error", err)
	handlershared.RespondServiceError(c, err)
}
