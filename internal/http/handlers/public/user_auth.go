package public

import (
	"time"

	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/i18n"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserView 对外暴露的用户信息
type UserView struct {
	ID     uint   `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

func toUserView(user *models.User) UserView {
	return UserView{ID: user.ID, Email: user.Email, Name: user.Name, Locale: user.Locale}
}

type tokenResponse struct {
	User      UserView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, token, expiresAt, err := h.UserAuthService.Register(service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		CPF:      req.CPF,
		Locale:   i18n.ResolveLocale(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Created(c, tokenResponse{User: toUserView(user), Token: token, ExpiresAt: expiresAt})
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, token, expiresAt, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, err, userLoginErrorRules)
		return
	}
	response.Success(c, tokenResponse{User: toUserView(user), Token: token, ExpiresAt: expiresAt})
}

// GetCurrentUser 当前登录用户
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal_error", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return
	}
	response.Success(c, toUserView(user))
}
