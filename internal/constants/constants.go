package constants

// 订单状态常量（沿用门店既有的葡语状态值）
const (
	OrderStatusPending   = "pendente"
	OrderStatusConfirmed = "confirmado"
	OrderStatusPreparing = "preparando"
	OrderStatusShipped   = "enviado"
	OrderStatusDelivered = "entregue"
	OrderStatusCanceled  = "cancelado"
)

// 优惠券支付状态常量
const (
	CouponPaymentPending  = "pendente"
	CouponPaymentApproved = "aprovado"
	CouponPaymentRejected = "rejeitado"
)

// 优惠券不可用原因
const (
	CouponReasonAlreadyUsed        = "already_used"
	CouponReasonInactive           = "inactive"
	CouponReasonExpired            = "expired"
	CouponReasonRequiresSpecialDay = "requires_special_day"
)

// 优惠券码格式
const (
	CouponCodePrefix    = "CUP"
	CouponCodeSuffixLen = 8
)

// 订单号前缀
const OrderNoPrefix = "PD"

// 下单支付方式
const (
	PaymentMethodPix      = "pix"
	PaymentMethodCard     = "cartao"
	PaymentMethodCheckout = "checkout"
	PaymentMethodBoleto   = "boleto"
)

// 购券支付方式
const (
	CouponPayPix  = "pix"
	CouponPayCard = "card"
)

// 网关标准化支付状态
const (
	GatewayStatusApproved  = "approved"
	GatewayStatusPending   = "pending"
	GatewayStatusInProcess = "in_process"
	GatewayStatusRejected  = "rejected"
	GatewayStatusCancelled = "cancelled"
	GatewayStatusRefunded  = "refunded"
	GatewayStatusUnknown   = "unknown"
)

// 外部引用前缀，网关回调据此区分订单与优惠券
const (
	ExternalRefOrder  = "order"
	ExternalRefCoupon = "coupon"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault         = "default"
	QueueCritical        = "critical"
	TaskCouponIssued     = "coupon:issued"
	TaskPaymentReconcile = "payment:reconcile"
)

// 缓存常量
const (
	RedisPrefixDefault   = "loja"
	CacheKeySpecialDay   = "special_day:current"
	CacheKeyRateLimitFmt = "rate_limit:%s:%s"
)

// 站点语言常量
const (
	LocalePtBR = "pt-BR"
	LocaleEnUS = "en-US"
)

// SupportedLocales 支持的语言（首个为默认）
var SupportedLocales = []string{LocalePtBR, LocaleEnUS}
