package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/i18n"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/queue"
	"github.com/cupom-store/internal/repository"
)

// NotifyResult 通知投递结果
type NotifyResult struct {
	Queued    bool
	Delivered bool
	Err       error
}

// CouponNotifier 发券通知
type CouponNotifier interface {
	SendCouponIssued(ctx context.Context, user *models.User, coupon *models.Coupon) NotifyResult
}

// CouponIssuedMessage 发券邮件内容
type CouponIssuedMessage struct {
	To              string
	Name            string
	Locale          string
	Subject         string
	Code            string
	DiscountPercent int
	ExpiresAt       string
}

// CouponMailer 邮件发送通道
type CouponMailer interface {
	SendCouponIssued(ctx context.Context, message CouponIssuedMessage) error
}

// LogCouponMailer 仅记录日志的邮件通道
type LogCouponMailer struct{}

// SendCouponIssued 记录发券邮件
func (LogCouponMailer) SendCouponIssued(_ context.Context, message CouponIssuedMessage) error {
	logger.Infow("coupon_issued_mail",
		"to", message.To,
		"subject", message.Subject,
		"code", message.Code,
		"discount_percent", message.DiscountPercent,
		"expires_at", message.ExpiresAt,
	)
	return nil
}

// NotificationService 通知服务
type NotificationService struct {
	couponRepo repository.CouponRepository
	userRepo   repository.UserRepository
	mailer     CouponMailer
}

// NewNotificationService 创建通知服务
func NewNotificationService(couponRepo repository.CouponRepository, userRepo repository.UserRepository, mailer CouponMailer) *NotificationService {
	if mailer == nil {
		mailer = LogCouponMailer{}
	}
	return &NotificationService{couponRepo: couponRepo, userRepo: userRepo, mailer: mailer}
}

// DeliverCouponIssued 发送发券邮件，仅已激活的券会发送
func (s *NotificationService) DeliverCouponIssued(ctx context.Context, couponID uint) error {
	coupon, err := s.couponRepo.GetByID(couponID)
	if err != nil {
		return err
	}
	if coupon == nil || !coupon.IsActive {
		logger.Warnw("coupon_issued_mail_skipped", "coupon_id", couponID)
		return nil
	}
	user, err := s.userRepo.GetByID(coupon.UserID)
	if err != nil {
		return err
	}
	if user == nil || strings.TrimSpace(user.Email) == "" {
		logger.Warnw("coupon_issued_mail_skipped", "coupon_id", couponID, "reason", "user_missing")
		return nil
	}
	return s.mailer.SendCouponIssued(ctx, buildCouponIssuedMessage(user, coupon))
}

func buildCouponIssuedMessage(user *models.User, coupon *models.Coupon) CouponIssuedMessage {
	locale := i18n.NormalizeLocale(user.Locale)
	return CouponIssuedMessage{
		To:              user.Email,
		Name:            user.Name,
		Locale:          locale,
		Subject:         i18n.Sprintf(locale, "mail.coupon_issued.subject", coupon.DiscountPercent),
		Code:            coupon.Code,
		DiscountPercent: coupon.DiscountPercent,
		ExpiresAt:       coupon.ExpiresAt.Format("2006-01-02"),
	}
}

// QueueCouponNotifier 通过队列异步发送；队列未启用时同步投递
type QueueCouponNotifier struct {
	client *queue.Client
	inline *NotificationService
}

// NewQueueCouponNotifier 创建队列通知器
func NewQueueCouponNotifier(client *queue.Client, inline *NotificationService) *QueueCouponNotifier {
	return &QueueCouponNotifier{client: client, inline: inline}
}

// SendCouponIssued 投递发券通知
func (n *QueueCouponNotifier) SendCouponIssued(ctx context.Context, user *models.User, coupon *models.Coupon) NotifyResult {
	if coupon == nil {
		return NotifyResult{Err: errors.New("coupon is nil")}
	}
	locale := constants.LocalePtBR
	if user != nil {
		locale = i18n.NormalizeLocale(user.Locale)
	}
	if n.client.Enabled() {
		err := n.client.EnqueueCouponIssued(queue.CouponIssuedPayload{
			CouponID: coupon.ID,
			UserID:   coupon.UserID,
			Locale:   locale,
		})
		return NotifyResult{Queued: err == nil, Err: err}
	}
	if n.inline == nil {
		return NotifyResult{}
	}
	err := n.inline.DeliverCouponIssued(ctx, coupon.ID)
	return NotifyResult{Delivered: err == nil, Err: err}
}
