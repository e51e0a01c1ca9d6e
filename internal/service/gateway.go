package service

import (
	"context"
	"time"

	"github.com/cupom-store/internal/payment"
	"github.com/cupom-store/internal/queue"
)

// PaymentGateway 支付网关能力，调用方保证不在数据库事务内调用
type PaymentGateway interface {
	CreateCharge(ctx context.Context, input payment.ChargeInput) (*payment.ChargeResult, error)
	GetPayment(ctx context.Context, paymentID string) (*payment.Status, error)
	CreateCheckoutPreference(ctx context.Context, input payment.PreferenceInput) (*payment.PreferenceResult, error)
}

// PaymentSearcher 可选能力：按外部引用查询最近一笔支付，延迟对账使用
type PaymentSearcher interface {
	SearchPaymentByReference(ctx context.Context, externalReference string) (*payment.Status, error)
}

// ReconcileScheduler 延迟对账任务投递，由 queue.Client 实现
type ReconcileScheduler interface {
	EnqueuePaymentReconcile(payload queue.PaymentReconcilePayload, delay time.Duration) error
}

// utcNow 业务时间统一使用 UTC，避免 sqlite 文本时间比较出现时区偏差
func utcNow() time.Time {
	return time.Now().UTC()
}
