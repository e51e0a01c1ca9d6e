package provider

import (
	"time"

	"github.com/cupom-store/internal/authz"
	"github.com/cupom-store/internal/cache"
	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/models"
	"github.com/cupom-store/internal/payment/mercadopago"
	"github.com/cupom-store/internal/queue"
	"github.com/cupom-store/internal/repository"
	"github.com/cupom-store/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config        *config.Config
	QueueClient   *queue.Client
	Gateway       *mercadopago.Client
	WebhookSecret string

	// Repositories
	AdminRepo      repository.AdminRepository
	UserRepo       repository.UserRepository
	ProductRepo    repository.ProductRepository
	SpecialDayRepo repository.SpecialDayRepository
	CouponTypeRepo repository.CouponTypeRepository
	CouponRepo     repository.CouponRepository
	OrderRepo      repository.OrderRepository

	// Services
	AuthzService          *authz.Service
	AuthService           *service.AuthService
	UserAuthService       *service.UserAuthService
	SpecialDayService     *service.SpecialDayService
	CatalogService        *service.CatalogService
	CouponLedger          *service.CouponLedger
	NotificationService   *service.NotificationService
	PaymentService        *service.PaymentService
	OrderService          *service.OrderService
	CouponPurchaseService *service.CouponPurchaseService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:        cfg,
		QueueClient:   queueClient,
		WebhookSecret: cfg.Payment.MercadoPago.WebhookSecret,
	}
	c.initGateway()

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

// initGateway 未配置 access_token 时不创建网关，支付相关接口返回网关未配置
func (c *Container) initGateway() {
	mpCfg := c.Config.Payment.MercadoPago
	if mpCfg.AccessToken == "" {
		logger.Warnw("provider_payment_gateway_not_configured")
		return
	}
	client, err := mercadopago.NewClient(mercadopago.Config{
		AccessToken:     mpCfg.AccessToken,
		BaseURL:         mpCfg.BaseURL,
		WebhookSecret:   mpCfg.WebhookSecret,
		NotificationURL: mpCfg.NotificationURL,
		Timeout:         mpCfg.Timeout(),
	})
	if err != nil {
		logger.Errorw("provider_init_payment_gateway_failed", "error", err)
		return
	}
	c.Gateway = client
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.SpecialDayRepo = repository.NewSpecialDayRepository(db)
	c.CouponTypeRepo = repository.NewCouponTypeRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	// 接口值为 nil 时服务才能识别网关未配置
	var gateway service.PaymentGateway
	if c.Gateway != nil {
		gateway = c.Gateway
	}

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.SpecialDayService = service.NewSpecialDayService(c.SpecialDayRepo, c.Config.SpecialDay)
	c.CatalogService = service.NewCatalogService(c.ProductRepo, c.SpecialDayService)
	c.CouponLedger = service.NewCouponLedger(c.CouponRepo, c.Config.Coupon)
	c.NotificationService = service.NewNotificationService(c.CouponRepo, c.UserRepo, service.LogCouponMailer{})
	notifier := service.NewQueueCouponNotifier(c.QueueClient, c.NotificationService)
	c.PaymentService = service.NewPaymentService(c.OrderRepo, c.ProductRepo, c.CouponRepo, c.UserRepo, c.CouponLedger, gateway, notifier)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.CouponRepo, c.UserRepo, c.SpecialDayService, c.CouponLedger, gateway, c.QueueClient, c.Config)
	pollDelay := time.Duration(c.Config.Order.ReconcilePollDelaySeconds) * time.Second
	c.CouponPurchaseService = service.NewCouponPurchaseService(c.CouponTypeRepo, c.CouponRepo, c.UserRepo, c.CouponLedger, gateway, c.PaymentService, c.QueueClient, pollDelay)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("provider_close_queue_client_failed", "error", err)
		}
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
