package router

import (
	"sort"
	"strings"

	"github.com/cupom-store/internal/authz"
	"github.com/cupom-store/internal/cache"
	"github.com/cupom-store/internal/config"
	adminhandlers "github.com/cupom-store/internal/http/handlers/admin"
	publichandlers "github.com/cupom-store/internal/http/handlers/public"
	"github.com/cupom-store/internal/http/response"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisClient := cache.Client()
	limit := cfg.Security.RateLimit
	newRule := func(prefix string) RateLimitRule {
		return RateLimitRule{
			Prefix:        prefix,
			WindowSeconds: limit.WindowSeconds,
			MaxRequests:   limit.MaxRequests,
			BlockSeconds:  limit.BlockSeconds,
			MessageKey:    "error.too_many_requests",
		}
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/products", publicHandler.GetProducts)
		apiV1.GET("/products/:id", publicHandler.GetProduct)
		apiV1.GET("/special-day", publicHandler.GetCurrentSpecialDay)
		apiV1.GET("/coupon-types", publicHandler.GetCouponTypes)

		// 支付网关回调
		apiV1.POST("/payments/webhook", publicHandler.MercadoPagoWebhook)

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, newRule("register"), KeyByIP), publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, newRule("login"), KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.UserAuthService))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.POST("/orders/preview", publicHandler.PreviewOrder)
			user.POST("/orders", RateLimitMiddleware(redisClient, newRule("checkout"), KeyByUserOrIP), publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:order_no", publicHandler.GetOrderByOrderNo)
			user.GET("/coupons", publicHandler.ListMyCoupons)
			user.POST("/coupons/purchase", RateLimitMiddleware(redisClient, newRule("coupon_purchase"), KeyByUserOrIP), publicHandler.PurchaseCoupon)
			user.GET("/payments/:id/status", publicHandler.GetPaymentStatus)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, newRule("admin_login"), KeyByIPAndJSONField("username")), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Group("")
			authorized.Use(AdminJWTAuthMiddleware(c.AuthService), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetAdminMe)

				// 特殊日
				authorized.GET("/special-days", adminHandler.ListSpecialDays)
				authorized.POST("/special-days", adminHandler.CreateSpecialDay)
				authorized.PUT("/special-days/:id", adminHandler.UpdateSpecialDay)
				authorized.DELETE("/special-days/:id", adminHandler.DeleteSpecialDay)

				// 券种
				authorized.GET("/coupon-types", adminHandler.ListCouponTypes)
				authorized.POST("/coupon-types", adminHandler.CreateCouponType)
				authorized.PUT("/coupon-types/:id", adminHandler.UpdateCouponType)

				// 商品管理
				authorized.GET("/products", adminHandler.ListProducts)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)

				// 订单管理
				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)

				// 权限管理
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/roles/:role/policies", adminHandler.GrantAuthzRolePolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAdminRoles)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
