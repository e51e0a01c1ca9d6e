package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/payment"
	"github.com/cupom-store/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 对账动作
const (
	ReconcileActionApplied = "applied"
	ReconcileActionNoop    = "noop"
	ReconcileActionDropped = "dropped"
	ReconcileActionIgnored = "ignored"
)

// PaymentService 支付对账服务，webhook、轮询与购券同步确认共用同一入口
type PaymentService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	userRepo    repository.UserRepository
	ledger      *CouponLedger
	gateway     PaymentGateway
	notifier    CouponNotifier
}

// NewPaymentService 创建支付对账服务
func NewPaymentService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, couponRepo repository.CouponRepository, userRepo repository.UserRepository, ledger *CouponLedger, gateway PaymentGateway, notifier CouponNotifier) *PaymentService {
	return &PaymentService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		gateway:     gateway,
		notifier:    notifier,
	}
}

// Notification 网关通知
type Notification struct {
	Type      string
	PaymentID string
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	Action   string `json:"action"`
	Target   string `json:"target,omitempty"`
	TargetID uint   `json:"target_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// HandleNotification 处理网关通知：只处理 payment 类型，按支付 ID 回查后对账
func (s *PaymentService) HandleNotification(ctx context.Context, n Notification) (*ReconcileResult, error) {
	kind := strings.ToLower(strings.TrimSpace(n.Type))
	paymentID := strings.TrimSpace(n.PaymentID)
	if kind != "payment" || paymentID == "" {
		logger.Infow("payment_notification_ignored", "type", n.Type, "payment_id", paymentID)
		return &ReconcileResult{Action: ReconcileActionIgnored}, nil
	}
	status, err := s.fetchPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			logger.Warnw("payment_notification_unknown_payment", "payment_id", paymentID)
			return &ReconcileResult{Action: ReconcileActionDropped}, nil
		}
		return nil, err
	}
	return s.Reconcile(ctx, *status)
}

// GetPaymentStatus 主动查询支付状态并按同一规则对账
// 支付对应的订单或优惠券不属于 userID 时按不存在处理
func (s *PaymentService) GetPaymentStatus(ctx context.Context, userID uint, paymentID string) (*payment.Status, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" || userID == 0 {
		return nil, ErrPaymentNotFound
	}
	status, err := s.fetchPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	owned, err := s.ownsReference(userID, status.ExternalReference)
	if err != nil {
		return nil, err
	}
	if !owned {
		logger.Warnw("payment_status_not_owned", "payment_id", paymentID, "user_id", userID)
		return nil, ErrPaymentNotFound
	}
	if _, err := s.Reconcile(ctx, *status); err != nil {
		return nil, err
	}
	return status, nil
}

func (s *PaymentService) ownsReference(userID uint, reference string) (bool, error) {
	kind, id, ok := parseExternalReference(reference)
	if !ok {
		return false, nil
	}
	if kind == constants.ExternalRefCoupon {
		coupon, err := s.couponRepo.GetByID(id)
		if err != nil {
			return false, err
		}
		return coupon != nil && coupon.UserID == userID, nil
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return false, err
	}
	return order != nil && order.UserID == userID, nil
}

// PollReference 延迟对账：优先按支付 ID 查询，否则按外部引用搜索
func (s *PaymentService) PollReference(ctx context.Context, reference, paymentID string) (*ReconcileResult, error) {
	if strings.TrimSpace(paymentID) != "" {
		status, err := s.fetchPayment(ctx, paymentID)
		if err != nil {
			if errors.Is(err, ErrPaymentNotFound) {
				return &ReconcileResult{Action: ReconcileActionDropped}, nil
			}
			return nil, err
		}
		return s.Reconcile(ctx, *status)
	}
	if s.gateway == nil {
		return nil, ErrPaymentGatewayNotConfigured
	}
	searcher, ok := s.gateway.(PaymentSearcher)
	if !ok {
		return &ReconcileResult{Action: ReconcileActionIgnored}, nil
	}
	status, err := searcher.SearchPaymentByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}
	if status == nil {
		logger.Infow("payment_poll_no_payment", "reference", reference)
		return &ReconcileResult{Action: ReconcileActionNoop}, nil
	}
	return s.Reconcile(ctx, *status)
}

func (s *PaymentService) fetchPayment(ctx context.Context, paymentID string) (*payment.Status, error) {
	if s.gateway == nil {
		return nil, ErrPaymentGatewayNotConfigured
	}
	status, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		logger.Errorw("payment_fetch_failed", "payment_id", paymentID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGatewayUnavailable, err)
	}
	return status, nil
}

// Reconcile 将网关状态应用到订单或优惠券，重复调用结果一致
func (s *PaymentService) Reconcile(ctx context.Context, status payment.Status) (*ReconcileResult, error) {
	kind, id, ok := parseExternalReference(status.ExternalReference)
	if !ok {
		logger.Warnw("payment_reconcile_reference_unknown", "payment_id", status.ID, "reference", status.ExternalReference)
		return &ReconcileResult{Action: ReconcileActionDropped, Status: status.Status}, nil
	}
	switch kind {
	case constants.ExternalRefCoupon:
		return s.reconcileCoupon(ctx, id, status)
	default:
		return s.reconcileOrder(id, status)
	}
}

func (s *PaymentService) reconcileOrder(orderID uint, status payment.Status) (*ReconcileResult, error) {
	result := &ReconcileResult{Action: ReconcileActionNoop, Target: constants.ExternalRefOrder, TargetID: orderID, Status: status.Status}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			result.Action = ReconcileActionDropped
			return nil
		}
		warnAmountMismatch(constants.ExternalRefOrder, orderID, status, order.TotalAmount.Decimal)

		switch status.Status {
		case constants.GatewayStatusApproved:
			if order.Status != constants.OrderStatusPending {
				if order.Status == constants.OrderStatusCanceled {
					logger.Warnw("payment_approved_for_canceled_order", "order_id", orderID, "payment_id", status.ID)
				}
				return nil
			}
			affected, err := orderRepo.TransitionStatus(orderID, []string{constants.OrderStatusPending}, constants.OrderStatusConfirmed, map[string]interface{}{
				"payment_id":     status.ID,
				"payment_status": status.Status,
				"paid_at":        approvedAt(status),
			})
			if err != nil {
				return err
			}
			if affected > 0 {
				result.Action = ReconcileActionApplied
			}
		case constants.GatewayStatusRejected, constants.GatewayStatusCancelled:
			if order.Status != constants.OrderStatusPending {
				return nil
			}
			affected, err := orderRepo.TransitionStatus(orderID, []string{constants.OrderStatusPending}, constants.OrderStatusCanceled, map[string]interface{}{
				"payment_id":     status.ID,
				"payment_status": status.Status,
				"canceled_at":    utcNow(),
			})
			if err != nil {
				return err
			}
			if affected == 0 {
				return nil
			}
			if err := restoreOrderStock(orderRepo, s.productRepo.WithTx(tx), orderID); err != nil {
				return err
			}
			result.Action = ReconcileActionApplied
		}
		return nil
	})
	if err != nil {
		logger.Errorw("payment_reconcile_failed", "order_id", orderID, "payment_id", status.ID, "error", err)
		return nil, err
	}
	if result.Action == ReconcileActionDropped {
		logger.Warnw("payment_reconcile_reference_unknown", "payment_id", status.ID, "reference", status.ExternalReference)
	} else {
		logger.Infow("payment_reconciled", "target", result.Target, "target_id", orderID, "payment_id", status.ID, "status", status.Status, "action", result.Action)
	}
	return result, nil
}

func (s *PaymentService) reconcileCoupon(ctx context.Context, couponID uint, status payment.Status) (*ReconcileResult, error) {
	result := &ReconcileResult{Action: ReconcileActionNoop, Target: constants.ExternalRefCoupon, TargetID: couponID, Status: status.Status}
	var (
		coupon    *models.Coupon
		activated bool
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		coupon, err = s.couponRepo.WithTx(tx).GetByIDForUpdate(couponID)
		if err != nil {
			return err
		}
		if coupon == nil {
			result.Action = ReconcileActionDropped
			return nil
		}
		warnAmountMismatch(constants.ExternalRefCoupon, couponID, status, coupon.AmountPaid.Decimal)

		switch status.Status {
		case constants.GatewayStatusApproved:
			activated, err = s.ledger.ActivateOnPayment(tx, coupon, status.ID, approvedAt(status))
			if err != nil {
				return err
			}
			if activated {
				result.Action = ReconcileActionApplied
			}
		case constants.GatewayStatusRejected, constants.GatewayStatusCancelled:
			rejected, err := s.ledger.RejectOnPayment(tx, coupon, status.ID)
			if err != nil {
				return err
			}
			if rejected {
				result.Action = ReconcileActionApplied
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorw("payment_reconcile_failed", "coupon_id", couponID, "payment_id", status.ID, "error", err)
		return nil, err
	}
	if result.Action == ReconcileActionDropped {
		logger.Warnw("payment_reconcile_reference_unknown", "payment_id", status.ID, "reference", status.ExternalReference)
		return result, nil
	}
	logger.Infow("payment_reconciled", "target", result.Target, "target_id", couponID, "payment_id", status.ID, "status", status.Status, "action", result.Action)
	if activated {
		s.notifyCouponIssued(ctx, coupon)
	}
	return result, nil
}

// notifyCouponIssued 仅在本次调用完成激活时触发，通知失败不回滚激活
func (s *PaymentService) notifyCouponIssued(ctx context.Context, coupon *models.Coupon) {
	if s.notifier == nil {
		return
	}
	var user *models.User
	if s.userRepo != nil {
		loaded, err := s.userRepo.GetByID(coupon.UserID)
		if err != nil {
			logger.Warnw("coupon_issued_user_lookup_failed", "coupon_id", coupon.ID, "error", err)
		}
		user = loaded
	}
	res := s.notifier.SendCouponIssued(ctx, user, coupon)
	if res.Err != nil {
		logger.Errorw("coupon_issued_notify_failed", "coupon_id", coupon.ID, "error", res.Err)
		return
	}
	logger.Infow("coupon_issued_notified", "coupon_id", coupon.ID, "queued", res.Queued, "delivered", res.Delivered)
}

// parseExternalReference 解析 order:<id> / coupon:<id>，纯数字按订单处理
func parseExternalReference(ref string) (string, uint, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", 0, false
	}
	kind := constants.ExternalRefOrder
	raw := ref
	if prefix, rest, found := strings.Cut(ref, ":"); found {
		kind = strings.ToLower(strings.TrimSpace(prefix))
		raw = strings.TrimSpace(rest)
		if kind != constants.ExternalRefOrder && kind != constants.ExternalRefCoupon {
			return "", 0, false
		}
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return "", 0, false
	}
	return kind, uint(id), true
}

func approvedAt(status payment.Status) time.Time {
	if status.ApprovedAt != nil && !status.ApprovedAt.IsZero() {
		return status.ApprovedAt.UTC()
	}
	return utcNow()
}

// warnAmountMismatch 网关金额与本地金额不一致时只记录，不阻断状态更新
func warnAmountMismatch(target string, id uint, status payment.Status, local decimal.Decimal) {
	if status.Amount.IsZero() || status.Amount.Round(2).Equal(local.Round(2)) {
		return
	}
	logger.Warnw("payment_amount_mismatch",
		"kind", KindReconciliationMismatch,
		"target", target,
		"target_id", id,
		"payment_id", status.ID,
		"gateway_amount", status.Amount.StringFixed(2),
		"local_amount", local.StringFixed(2),
	)
}
