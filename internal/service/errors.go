package service

import (
	"errors"
	"fmt"

	"github.com/cupom-store/internal/constants"
)

// ErrorKind 业务错误分类，HTTP 层据此选择状态码
type ErrorKind string

const (
	KindValidation             ErrorKind = "validation"
	KindBusinessRule           ErrorKind = "business_rule"
	KindConflict               ErrorKind = "conflict"
	KindNotFound               ErrorKind = "not_found"
	KindUnauthorized           ErrorKind = "unauthorized"
	KindUpstream               ErrorKind = "upstream"
	KindReconciliationMismatch ErrorKind = "reconciliation_mismatch"
	KindInternal               ErrorKind = "internal"
)

// Error 带分类与原因码的业务错误
type Error struct {
	Kind   ErrorKind
	Reason string
	msg    string
}

func (e *Error) Error() string { return e.msg }

func newError(kind ErrorKind, reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, msg: msg}
}

// 校验错误
var (
	ErrInvalidOrderItem     = newError(KindValidation, "invalid_order_item", "invalid order item")
	ErrInvalidAddress       = newError(KindValidation, "invalid_address", "delivery address is incomplete")
	ErrInvalidPaymentMethod = newError(KindValidation, "invalid_payment_method", "payment method not supported")
	ErrInvalidShipping      = newError(KindValidation, "invalid_shipping", "shipping amount must not be negative")
	ErrInvalidCPF           = newError(KindValidation, "invalid_cpf", "invalid cpf")
	ErrInvalidCardToken     = newError(KindValidation, "invalid_card_token", "card token is required")
	ErrInvalidEmail         = newError(KindValidation, "invalid_email", "invalid email")
	ErrWeakPassword         = newError(KindValidation, "weak_password", "password does not satisfy policy")
	ErrInvalidSpecialDay    = newError(KindValidation, "invalid_special_day", "special day window is invalid")
	ErrInvalidCouponType    = newError(KindValidation, "invalid_coupon_type", "coupon type is invalid")
	ErrInvalidOrderStatus   = newError(KindValidation, "invalid_order_status", "order status is invalid")
	ErrInvalidProduct       = newError(KindValidation, "invalid_product", "product is invalid")
)

// 业务规则错误
var (
	ErrProductUnavailable       = newError(KindBusinessRule, "product_unavailable", "product unavailable outside special day")
	ErrInsufficientStock        = newError(KindBusinessRule, "insufficient_stock", "insufficient stock")
	ErrCouponRequiresSpecialDay = newError(KindBusinessRule, constants.CouponReasonRequiresSpecialDay, "coupon requires an active special day")
	ErrCouponAlreadyUsed        = newError(KindBusinessRule, constants.CouponReasonAlreadyUsed, "coupon already used")
	ErrCouponInactive           = newError(KindBusinessRule, constants.CouponReasonInactive, "coupon is not active")
	ErrCouponExpired            = newError(KindBusinessRule, constants.CouponReasonExpired, "coupon expired")
	ErrCouponNotOwned           = newError(KindBusinessRule, "coupon_not_owned", "coupon belongs to another user")
	ErrCouponTypeInactive       = newError(KindBusinessRule, "coupon_type_inactive", "coupon type not for sale")
	ErrOrderStatusInvalid       = newError(KindBusinessRule, "order_status_transition_invalid", "order status transition not allowed")
	ErrEmailExists              = newError(KindBusinessRule, "email_exists", "email already registered")
	ErrUserDisabled             = newError(KindBusinessRule, "user_disabled", "user disabled")
)

// 不存在
var (
	ErrProductNotFound    = newError(KindNotFound, "product_not_found", "product not found")
	ErrCouponNotFound     = newError(KindNotFound, "coupon_not_found", "coupon not found")
	ErrCouponTypeNotFound = newError(KindNotFound, "coupon_type_not_found", "coupon type not found")
	ErrOrderNotFound      = newError(KindNotFound, "order_not_found", "order not found")
	ErrSpecialDayNotFound = newError(KindNotFound, "special_day_not_found", "special day not found")
	ErrPaymentNotFound    = newError(KindNotFound, "payment_not_found", "payment not found")
)

// 认证
var (
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid_credentials", "invalid credentials")
)

// 并发冲突与上游失败
var (
	ErrConcurrencyConflict         = newError(KindConflict, "concurrency_conflict", "request lost a concurrent race, retry")
	ErrCouponCodeExhausted         = newError(KindInternal, "coupon_code_exhausted", "coupon code generation exhausted")
	ErrOrderNumberExhausted        = newError(KindInternal, "order_number_exhausted", "order number generation exhausted")
	ErrPaymentGatewayUnavailable   = newError(KindUpstream, "payment_gateway_unavailable", "payment gateway unavailable")
	ErrPaymentGatewayNotConfigured = newError(KindUpstream, "payment_gateway_not_configured", "payment gateway not configured")
	ErrReferenceUnknown            = newError(KindReconciliationMismatch, "reference_unknown", "payment references unknown order or coupon")
)

// conflictError 事务内竞争失败：保留具体原因，同时归类为并发冲突
type conflictError struct {
	cause *Error
}

func (e conflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConcurrencyConflict.msg, e.cause.msg)
}

func (e conflictError) Unwrap() []error {
	return []error{e.cause, ErrConcurrencyConflict}
}

func conflict(cause *Error) error {
	return conflictError{cause: cause}
}

// ErrorKindOf 返回错误分类，未知错误视为内部错误
func ErrorKindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrConcurrencyConflict) {
		return KindConflict
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// ReasonOf 返回错误原因码
func ReasonOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Reason
	}
	return ""
}
