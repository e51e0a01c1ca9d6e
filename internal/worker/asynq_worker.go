package worker

import (
	"context"
	"errors"
	"strings"

	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/provider"
	"github.com/cupom-store/internal/queue"
	"github.com/cupom-store/internal/service"

	"github.com/hibiken/asynq"
)

// CouponIssuedDeliverer 发券邮件投递
type CouponIssuedDeliverer interface {
	DeliverCouponIssued(ctx context.Context, couponID uint) error
}

// PaymentPoller 延迟对账
type PaymentPoller interface {
	PollReference(ctx context.Context, reference, paymentID string) (*service.ReconcileResult, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	notifications CouponIssuedDeliverer
	payments      PaymentPoller
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return &Consumer{}
	}
	consumer := &Consumer{}
	if c.NotificationService != nil {
		consumer.notifications = c.NotificationService
	}
	if c.PaymentService != nil {
		consumer.payments = c.PaymentService
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCouponIssued, c.handleCouponIssued)
	mux.HandleFunc(queue.TaskPaymentReconcile, c.handlePaymentReconcile)
}

func (c *Consumer) handleCouponIssued(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_coupon_issued_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCouponIssuedPayload(task)
	if err != nil {
		logger.Warnw("worker_coupon_issued_unmarshal_failed", "error", err)
		return err
	}
	if payload.CouponID == 0 {
		logger.Debugw("worker_coupon_issued_skip_invalid_payload", "coupon_id", payload.CouponID)
		return nil
	}
	if c.notifications == nil {
		logger.Warnw("worker_coupon_issued_skip_service_nil", "coupon_id", payload.CouponID)
		return nil
	}
	if err := c.notifications.DeliverCouponIssued(ctx, payload.CouponID); err != nil {
		logger.Warnw("worker_coupon_issued_send_failed", "coupon_id", payload.CouponID, "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handlePaymentReconcile(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParsePaymentReconcilePayload(task)
	if err != nil {
		logger.Warnw("worker_payment_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.Reference) == "" && strings.TrimSpace(payload.PaymentID) == "" {
		logger.Debugw("worker_payment_reconcile_skip_invalid_payload")
		return nil
	}
	if c.payments == nil {
		logger.Warnw("worker_payment_reconcile_skip_service_nil", "reference", payload.Reference)
		return nil
	}
	result, err := c.payments.PollReference(ctx, payload.Reference, payload.PaymentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentGatewayNotConfigured):
			logger.Warnw("worker_payment_reconcile_skip_gateway_not_configured", "reference", payload.Reference)
			return nil
		case errors.Is(err, service.ErrPaymentGatewayUnavailable):
			logger.Warnw("worker_payment_reconcile_gateway_unavailable", "reference", payload.Reference, "error", err)
			return err
		default:
			logger.Warnw("worker_payment_reconcile_failed", "reference", payload.Reference, "error", err)
			return err
		}
	}
	logger.Infow("worker_payment_reconciled", "reference", payload.Reference, "action", result.Action, "status", result.Status)
	return nil
}
