package response

import "github.com/gin-gonic/gin"

// AppError 接口层错误：状态码、稳定原因码与本地化文案
type AppError struct {
	Code    int
	Reason  string
	Detail  string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithReason 附带原因码；detail 为空或与 reason 相同时省略
func (e *AppError) WithReason(reason, detail string) *AppError {
	e.Reason = reason
	if detail != reason {
		e.Detail = detail
	}
	return e
}

// Write 输出错误响应，原始错误不会写入响应体
func (e *AppError) Write(c *gin.Context) {
	if e.Reason == "" {
		Error(c, e.Code, e.Message)
		return
	}
	data := gin.H{"reason": e.Reason}
	if e.Detail != "" {
		data["detail"] = e.Detail
	}
	ErrorWithData(c, e.Code, e.Message, data)
}
