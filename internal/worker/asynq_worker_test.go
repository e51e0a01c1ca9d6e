package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cupom-store/internal/queue"
	"github.com/cupom-store/internal/service"

	"github.com/hibiken/asynq"
)

type stubDeliverer struct {
	ids []uint
	err error
}

func (s *stubDeliverer) DeliverCouponIssued(_ context.Context, couponID uint) error {
	s.ids = append(s.ids, couponID)
	return s.err
}

type stubPoller struct {
	refs []string
	err  error
}

func (s *stubPoller) PollReference(_ context.Context, reference, _ string) (*service.ReconcileResult, error) {
	s.refs = append(s.refs, reference)
	if s.err != nil {
		return nil, s.err
	}
	return &service.ReconcileResult{Action: service.ReconcileActionNoop}, nil
}

func TestHandleCouponIssued(t *testing.T) {
	deliverer := &stubDeliverer{}
	consumer := &Consumer{notifications: deliverer}

	task, err := queue.NewCouponIssuedTask(queue.CouponIssuedPayload{CouponID: 7, UserID: 3})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := consumer.handleCouponIssued(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(deliverer.ids) != 1 || deliverer.ids[0] != 7 {
		t.Fatalf("unexpected deliveries %v", deliverer.ids)
	}

	empty, _ := queue.NewCouponIssuedTask(queue.CouponIssuedPayload{})
	if err := consumer.handleCouponIssued(context.Background(), empty); err != nil {
		t.Fatalf("empty payload must be skipped: %v", err)
	}
	if len(deliverer.ids) != 1 {
		t.Fatalf("empty payload must not deliver")
	}

	deliverer.err = errors.New("smtp down")
	if err := consumer.handleCouponIssued(context.Background(), task); err == nil {
		t.Fatalf("delivery failure must be retried")
	}

	broken := asynq.NewTask(queue.TaskCouponIssued, []byte("{"))
	if err := consumer.handleCouponIssued(context.Background(), broken); err == nil {
		t.Fatalf("malformed payload must fail")
	}
}

func TestHandlePaymentReconcile(t *testing.T) {
	poller := &stubPoller{}
	consumer := &Consumer{payments: poller}
	task, err := queue.NewPaymentReconcileTask(queue.PaymentReconcilePayload{Reference: "order:12"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := consumer.handlePaymentReconcile(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(poller.refs) != 1 || poller.refs[0] != "order:12" {
		t.Fatalf("unexpected polls %v", poller.refs)
	}

	poller.err = fmt.Errorf("%w: timeout", service.ErrPaymentGatewayUnavailable)
	if err := consumer.handlePaymentReconcile(context.Background(), task); err == nil {
		t.Fatalf("gateway outage must be retried")
	}

	poller.err = service.ErrPaymentGatewayNotConfigured
	if err := consumer.handlePaymentReconcile(context.Background(), task); err != nil {
		t.Fatalf("unconfigured gateway must not retry: %v", err)
	}
}

func TestRegisterNilSafe(t *testing.T) {
	var consumer *Consumer
	consumer.Register(asynq.NewServeMux())
	(&Consumer{}).Register(nil)
}
