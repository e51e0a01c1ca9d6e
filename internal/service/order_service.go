package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/payment"
	"github.com/cupom-store/internal/queue"
	"github.com/cupom-store/internal/repository"

	"gorm.io/gorm"
)

const defaultOrderNoMaxAttempts = 5

var (
	zipCodePattern = regexp.MustCompile(`^\d{8}$`)
	statePattern   = regexp.MustCompile(`^[A-Z]{2}$`)
)

// OrderService 订单服务
type OrderService struct {
	orderRepo       repository.OrderRepository
	productRepo     repository.ProductRepository
	couponRepo      repository.CouponRepository
	userRepo        repository.UserRepository
	specialDays     *SpecialDayService
	ledger          *CouponLedger
	gateway         PaymentGateway
	queueClient     *queue.Client
	backURLs        payment.BackURLs
	orderNoAttempts int
	pollDelay       time.Duration
	generateOrderNo func() (string, error)
	// beforeSettle 预检通过、进入结算事务之前调用，测试用于对齐并发时序
	beforeSettle func()
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, couponRepo repository.CouponRepository, userRepo repository.UserRepository, specialDays *SpecialDayService, ledger *CouponLedger, gateway PaymentGateway, queueClient *queue.Client, cfg *config.Config) *OrderService {
	s := &OrderService{
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		couponRepo:      couponRepo,
		userRepo:        userRepo,
		specialDays:     specialDays,
		ledger:          ledger,
		gateway:         gateway,
		queueClient:     queueClient,
		orderNoAttempts: defaultOrderNoMaxAttempts,
		generateOrderNo: generateOrderNo,
	}
	if cfg != nil {
		if cfg.Order.NumberMaxAttempts > 0 {
			s.orderNoAttempts = cfg.Order.NumberMaxAttempts
		}
		s.pollDelay = time.Duration(cfg.Order.ReconcilePollDelaySeconds) * time.Second
		urls := cfg.Payment.MercadoPago.BackURLs
		s.backURLs = payment.BackURLs{Success: urls.Success, Failure: urls.Failure, Pending: urls.Pending}
	}
	return s
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID         uint
	Items          []CreateOrderItem
	CouponCode     string
	Address        models.DeliveryAddress
	PaymentMethod  string
	ShippingAmount models.Money
}

// CheckoutInfo 托管结账信息
type CheckoutInfo struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

// CreateOrderResult 创建订单结果
// PaymentError 非空表示订单已创建但结账偏好生成失败，可稍后重试支付
type CreateOrderResult struct {
	Order        *models.Order
	Cart         *PricedCart
	Checkout     *CheckoutInfo
	PaymentError string
}

// CreateOrder 下单结算：锁定商品、写入订单、扣减库存、核销优惠券在同一事务内完成
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidOrderItem
	}
	address, err := normalizeAddress(input.Address)
	if err != nil {
		return nil, err
	}
	method, err := normalizeOrderPaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if input.ShippingAmount.IsNegative() {
		return nil, ErrInvalidShipping
	}
	day := s.specialDays.CurrentSpecialDay(ctx)
	cartInput := PriceCartInput{
		UserID:         input.UserID,
		Items:          input.Items,
		CouponCode:     input.CouponCode,
		ShippingAmount: input.ShippingAmount,
	}
	// 预检：不加锁，提前拒绝明显不满足条件的请求
	if _, err := priceCart(cartSource{products: s.productRepo, coupons: s.couponRepo}, day, cartInput); err != nil {
		return nil, err
	}
	if s.beforeSettle != nil {
		s.beforeSettle()
	}

	var (
		order *models.Order
		cart  *PricedCart
	)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		priced, err := priceCart(cartSource{products: productRepo, coupons: s.couponRepo.WithTx(tx), lock: true}, day, cartInput)
		if err != nil {
			return settleConflict(err)
		}
		cart = priced

		now := utcNow()
		order = &models.Order{
			UserID:         input.UserID,
			Status:         constants.OrderStatusPending,
			SubtotalAmount: priced.Subtotal,
			DiscountAmount: priced.Discount,
			ShippingAmount: priced.Shipping,
			TotalAmount:    priced.Total,
			PaymentMethod:  method,
			Address:        address,
		}
		if priced.Coupon != nil {
			couponID := priced.Coupon.ID
			order.CouponID = &couponID
		}
		if !priced.Total.IsPositive() {
			order.Status = constants.OrderStatusConfirmed
			order.PaidAt = &now
		}
		if err := s.insertOrder(tx, orderRepo, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(priced.Lines))
		for _, line := range priced.Lines {
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Subtotal:    line.Subtotal,
			})
		}
		if err := orderRepo.CreateItems(items); err != nil {
			return err
		}

		for _, line := range priced.Lines {
			affected, err := productRepo.DecrementStock(line.Product.ID, line.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return conflict(ErrInsufficientStock)
			}
		}

		if priced.Coupon != nil {
			if err := s.ledger.Consume(tx, priced.Coupon, order.ID, now); err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		logger.Warnw("order_create_rejected", "user_id", input.UserID, "error", err)
		return nil, err
	}
	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"total", order.TotalAmount.String(),
		"coupon_id", order.CouponID,
		"special_day", day != nil,
	)

	result := &CreateOrderResult{Order: order, Cart: cart}
	if order.Status == constants.OrderStatusPending {
		s.attachCheckout(ctx, order, cart, result)
		s.enqueueReconcilePoll(order)
	}
	return result, nil
}

// insertOrder 写入订单行，订单号冲突时在保存点内回滚并重新生成
func (s *OrderService) insertOrder(tx *gorm.DB, orderRepo repository.OrderRepository, order *models.Order) error {
	for attempt := 1; attempt <= s.orderNoAttempts; attempt++ {
		orderNo, err := s.generateOrderNo()
		if err != nil {
			return err
		}
		order.ID = 0
		order.OrderNo = orderNo
		err = tx.Transaction(func(inner *gorm.DB) error {
			return orderRepo.WithTx(inner).Create(order)
		})
		if err == nil {
			return nil
		}
		if !repository.IsUniqueViolation(err) {
			return err
		}
		logger.Warnw("order_no_collision", "order_no", orderNo, "attempt", attempt)
	}
	return ErrOrderNumberExhausted
}

// attachCheckout 事务提交后生成托管结账偏好，失败不影响已创建的订单
func (s *OrderService) attachCheckout(ctx context.Context, order *models.Order, cart *PricedCart, result *CreateOrderResult) {
	if s.gateway == nil {
		result.PaymentError = ErrPaymentGatewayNotConfigured.Error()
		logger.Warnw("order_payment_preference_skipped", "order_id", order.ID, "reason", "gateway_not_configured")
		return
	}
	input := payment.PreferenceInput{
		Items:             buildPreferenceItems(order, cart),
		BackURLs:          s.backURLs,
		ExternalReference: externalReference(constants.ExternalRefOrder, order.ID),
	}
	if s.userRepo != nil {
		if user, err := s.userRepo.GetByID(order.UserID); err == nil && user != nil {
			input.PayerEmail = user.Email
		}
	}
	pref, err := s.gateway.CreateCheckoutPreference(ctx, input)
	if err != nil {
		result.PaymentError = ErrPaymentGatewayUnavailable.Error()
		logger.Errorw("order_payment_preference_failed", "order_id", order.ID, "order_no", order.OrderNo, "error", err)
		return
	}
	if err := s.orderRepo.SetPreferenceID(order.ID, pref.ID); err != nil {
		logger.Errorw("order_preference_save_failed", "order_id", order.ID, "preference_id", pref.ID, "error", err)
	}
	order.PreferenceID = pref.ID
	result.Checkout = &CheckoutInfo{PreferenceID: pref.ID, InitPoint: pref.InitPoint}
}

// buildPreferenceItems 有折扣时合并为一行应付总额，否则逐行列出并附加运费
func buildPreferenceItems(order *models.Order, cart *PricedCart) []payment.PreferenceItem {
	if order.DiscountAmount.IsPositive() || cart == nil {
		return []payment.PreferenceItem{{
			ID:        order.OrderNo,
			Title:     "Pedido " + order.OrderNo,
			Quantity:  1,
			UnitPrice: order.TotalAmount.Decimal,
		}}
	}
	items := make([]payment.PreferenceItem, 0, len(cart.Lines)+1)
	for _, line := range cart.Lines {
		items = append(items, payment.PreferenceItem{
			ID:        fmt.Sprintf("%d", line.Product.ID),
			Title:     line.Product.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.Decimal,
		})
	}
	if cart.Shipping.IsPositive() {
		items = append(items, payment.PreferenceItem{
			ID:        "frete",
			Title:     "Frete",
			Quantity:  1,
			UnitPrice: cart.Shipping.Decimal,
		})
	}
	return items
}

func (s *OrderService) enqueueReconcilePoll(order *models.Order) {
	if s.pollDelay <= 0 || !s.queueClient.Enabled() {
		return
	}
	payload := queue.PaymentReconcilePayload{Reference: externalReference(constants.ExternalRefOrder, order.ID)}
	if err := s.queueClient.EnqueuePaymentReconcile(payload, s.pollDelay); err != nil {
		logger.Warnw("order_reconcile_enqueue_failed", "order_id", order.ID, "error", err)
	}
}

// ListOrders 用户订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrOrderNotFound
	}
	return s.orderRepo.ListByUser(filter)
}

// GetOrderByOrderNo 用户订单详情
func (s *OrderService) GetOrderByOrderNo(userID uint, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndUser(strings.TrimSpace(orderNo), userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAdminOrders 管理端订单列表
func (s *OrderService) ListAdminOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

func normalizeAddress(address models.DeliveryAddress) (models.DeliveryAddress, error) {
	address.RecipientName = strings.TrimSpace(address.RecipientName)
	address.Phone = strings.TrimSpace(address.Phone)
	address.ZipCode = strings.NewReplacer("-", "", ".", "", " ", "").Replace(address.ZipCode)
	address.Street = strings.TrimSpace(address.Street)
	address.Number = strings.TrimSpace(address.Number)
	address.Complement = strings.TrimSpace(address.Complement)
	address.District = strings.TrimSpace(address.District)
	address.City = strings.TrimSpace(address.City)
	address.State = strings.ToUpper(strings.TrimSpace(address.State))
	if address.RecipientName == "" || address.Street == "" || address.Number == "" || address.City == "" {
		return address, ErrInvalidAddress
	}
	if !zipCodePattern.MatchString(address.ZipCode) || !statePattern.MatchString(address.State) {
		return address, ErrInvalidAddress
	}
	return address, nil
}

// settleConflict 预检通过而加锁复核失败，说明库存或优惠券在并发中被占用
func settleConflict(err error) error {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return conflict(ErrInsufficientStock)
	case errors.Is(err, ErrCouponAlreadyUsed):
		return conflict(ErrCouponAlreadyUsed)
	}
	return err
}

func normalizeOrderPaymentMethod(method string) (string, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return constants.PaymentMethodCheckout, nil
	}
	switch method {
	case constants.PaymentMethodPix, constants.PaymentMethodCard, constants.PaymentMethodCheckout, constants.PaymentMethodBoleto:
		return method, nil
	}
	return "", ErrInvalidPaymentMethod
}

func externalReference(kind string, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}
