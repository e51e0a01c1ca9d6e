package response

// 业务状态码与 HTTP 状态码保持一致
const (
	CodeOK                  = 0
	CodeBadRequest          = 400
	CodeUnauthorized        = 401
	CodeForbidden           = 403
	CodeNotFound            = 404
	CodeConflict            = 409
	CodeUnprocessableEntity = 422
	CodeTooManyRequests     = 429
	CodeInternal            = 500
	CodeBadGateway          = 502
)

// HTTPStatus 业务状态码对应的 HTTP 状态码，未知状态码按 500 处理
func HTTPStatus(code int) int {
	if code >= 400 && code <= 599 {
		return code
	}
	if code == CodeOK {
		return 200
	}
	return CodeInternal
}
