package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loyaltyclub-next/internal/authz"
	"github.com/loyaltyclub-next/internal/cache"
	"github.com/loyaltyclub-next/internal/config"
	adminhandlers "github.com/loyaltyclub-next/internal/http/handlers/admin"
	publichandlers "github.com/loyaltyclub-next/internal/http/handlers/public"
	"github.com/loyaltyclub-next/internal/http/response"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/provider"

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
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "club"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
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
		public := apiV1.Group("/public")
		{
			public.GET("/levels", publicHandler.GetLevels)
			public.GET("/rewards", publicHandler.ListRewards)
			public.GET("/rewards/:id", publicHandler.GetReward)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/telegram/login", RateLimitMiddleware(redisClient, loginRule, KeyByIP), publicHandler.LoginWithTelegram)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetMyProfile)
			user.GET("/club/summary", publicHandler.GetMyClubSummary)
			user.GET("/club/transactions", publicHandler.GetMyTransactions)
			user.GET("/club/bonus", publicHandler.GetMyBonusStatus)
			user.POST("/club/bonus/claim", publicHandler.ClaimDailyBonus)
			user.POST("/club/rewards/:id/redeem", publicHandler.RedeemReward)
			user.GET("/club/vouchers", publicHandler.ListMyVouchers)
			user.GET("/club/vouchers/:id", publicHandler.GetMyVoucher)
			user.POST("/club/vouchers/:id/apply", publicHandler.ApplyMyVoucher)
			user.GET("/club/referral/summary", publicHandler.GetMyReferralSummary)
			user.GET("/club/referral/earnings", publicHandler.ListMyEarnings)
			user.POST("/club/referral/bind", publicHandler.BindReferral)
		}

		// 订单系统回调
		apiV1.POST("/orders/callback", publicHandler.OrderCallback)

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetAdminMe)
				authorized.PUT("/password", adminHandler.ChangeAdminPassword)

				// 会员账户管理
				authorized.GET("/accounts", adminHandler.GetAdminAccounts)
				authorized.GET("/accounts/:id", adminHandler.GetAdminAccount)
				authorized.GET("/accounts/:id/transactions", adminHandler.GetAdminAccountTransactions)
				authorized.POST("/accounts/:id/adjust", adminHandler.AdjustAccountPoints)
				authorized.POST("/accounts/:id/freeze", adminHandler.FreezeAccount)
				authorized.POST("/accounts/:id/unfreeze", adminHandler.UnfreezeAccount)

				// 等级配置
				authorized.GET("/levels", adminHandler.GetAdminLevels)
				authorized.PUT("/levels/:code", adminHandler.UpdateAdminLevel)

				// 奖励与兑换券
				authorized.GET("/rewards", adminHandler.GetAdminRewards)
				authorized.GET("/rewards/:id", adminHandler.GetAdminReward)
				authorized.POST("/rewards", adminHandler.CreateAdminReward)
				authorized.PUT("/rewards/:id", adminHandler.UpdateAdminReward)
				authorized.DELETE("/rewards/:id", adminHandler.DeleteAdminReward)
				authorized.POST("/rewards/:id/withdraw", adminHandler.WithdrawAdminReward)
				authorized.POST("/rewards/:id/activate", adminHandler.ActivateAdminReward)
				authorized.GET("/vouchers", adminHandler.GetAdminVouchers)

				// 代理佣金
				authorized.GET("/earnings", adminHandler.GetAdminEarnings)
				authorized.POST("/earnings/:id/payout", adminHandler.PayoutAdminEarning)
				authorized.POST("/accounts/:id/earnings/payout", adminHandler.PayoutAdminAgentEarnings)

				// 用户管理
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)

				// 权限目录
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
	return segments[1]
}
