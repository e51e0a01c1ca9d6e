package queue

import (
	"encoding/json"

	"github.com/cupom-store/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCouponIssued 优惠券支付确认后的发券通知
	TaskCouponIssued = constants.TaskCouponIssued
	// TaskPaymentReconcile 延迟轮询网关状态，兜底丢失的 webhook
	TaskPaymentReconcile = constants.TaskPaymentReconcile
)

// CouponIssuedPayload 发券通知载荷
type CouponIssuedPayload struct {
	CouponID uint   `json:"coupon_id"`
	UserID   uint   `json:"user_id"`
	Locale   string `json:"locale,omitempty"`
}

// PaymentReconcilePayload 对账轮询载荷，Reference 形如 order:12 / coupon:7
type PaymentReconcilePayload struct {
	Reference string `json:"reference"`
	PaymentID string `json:"payment_id,omitempty"`
}

// NewCouponIssuedTask 创建发券通知任务
func NewCouponIssuedTask(payload CouponIssuedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponIssued, body), nil
}

// NewPaymentReconcileTask 创建对账轮询任务
func NewPaymentReconcileTask(payload PaymentReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentReconcile, body), nil
}

// ParseCouponIssuedPayload 解析发券通知载荷
func ParseCouponIssuedPayload(task *asynq.Task) (CouponIssuedPayload, error) {
	var payload CouponIssuedPayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}

// ParsePaymentReconcilePayload 解析对账轮询载荷
func ParsePaymentReconcilePayload(task *asynq.Task) (PaymentReconcilePayload, error) {
	var payload PaymentReconcilePayload
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
