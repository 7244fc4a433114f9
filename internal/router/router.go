package router

import (
	"net/http"
	"time"

	"storya/config"
	"storya/internal/handler"
	"storya/internal/middleware"
	"storya/internal/repository"
	"storya/internal/service"
	"storya/internal/ws"
	"storya/pkg/cloudinary"
	"storya/pkg/payment"
	"storya/pkg/verify"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services exposes the long-lived services the scheduler drives outside the
// request path.
type Services struct {
	Refund *service.RefundService
	Trust  *service.TrustService
}

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, provider payment.Provider, verifier verify.Verifier) (*gin.Engine, *Services) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewSlidingWindowLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	trustRepo := repository.NewTrustLevelRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	execRepo := repository.NewExecutionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	hub := ws.NewHub()

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo, hub)
	trustSvc := service.NewTrustService(trustRepo, userRepo)
	orderSvc := service.NewOrderService(db, &cfg.Ledger, orderRepo, trustRepo, userRepo, paymentRepo, settingRepo, notifSvc)
	paymentSvc := service.NewPaymentService(db, &cfg.Payment, userRepo, paymentRepo, payoutRepo, provider, notifSvc)
	execSvc := service.NewExecutionService(db, execRepo, orderRepo, userRepo, trustSvc, orderSvc, paymentSvc, notifSvc)
	refundSvc := service.NewRefundService(db, orderRepo, execRepo, refundRepo, userRepo, paymentRepo, orderSvc, notifSvc)
	verifySvc := service.NewVerificationService(verifier, userRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo)
	orderHandler := handler.NewOrderHandler(orderSvc)
	execHandler := handler.NewExecutionHandler(execSvc)
	moderationHandler := handler.NewModerationHandler(execSvc, auditRepo)
	walletHandler := handler.NewWalletHandler(paymentSvc)
	verificationHandler := handler.NewVerificationHandler(verifySvc)
	uploadHandler := handler.NewUploadHandler(cloud)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	adminHandler := handler.NewAdminHandler(trustRepo, settingRepo, userRepo, auditRepo, paymentSvc, refundSvc, trustSvc)
	paymentWebhookHandler := handler.NewPaymentWebhookHandler(cfg, paymentSvc, auditRepo)
	payoutWebhookHandler := handler.NewPayoutWebhookHandler(cfg, paymentSvc, auditRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	// QR redirects are public; the token is the only credential.
	r.GET("/q/:token", orderHandler.Redirect)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", authHandler.Me)
			me.GET("/wallet", walletHandler.GetBalance)
			me.GET("/wallet/history", walletHandler.History)
			me.POST("/wallet/deposit", walletHandler.Deposit)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.POST("/verification/self-employed", verificationHandler.SelfEmployed)
			me.POST("/verification/wallet", verificationHandler.Wallet)
		}

		orders := api.Group("/orders")
		orders.Use(authMw)
		{
			orders.POST("", middleware.RequireRole("CUSTOMER"), orderHandler.Create)
			orders.GET("", middleware.RequireRole("CUSTOMER"), orderHandler.List)
			orders.GET("/open", middleware.RequireRole("EXECUTOR"), orderHandler.ListOpen)
			orders.GET("/:id", orderHandler.Get)
		}

		executions := api.Group("/executions")
		executions.Use(authMw, middleware.RequireRole("EXECUTOR"))
		{
			executions.POST("", execHandler.Claim)
			executions.GET("", execHandler.ListMine)
			executions.GET("/:id", execHandler.Get)
			executions.POST("/:id/submit", execHandler.Submit)
			executions.POST("/proof", uploadHandler.UploadProof)
		}

		payouts := api.Group("/payouts")
		payouts.Use(authMw, middleware.RequireRole("EXECUTOR"))
		{
			payouts.POST("", walletHandler.RequestPayout)
			payouts.GET("", walletHandler.ListPayouts)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/moderation/queue", moderationHandler.Queue)
			admin.POST("/moderation/:id/decide", moderationHandler.Decide)
			admin.GET("/trust-levels", adminHandler.ListTrustLevels)
			admin.POST("/trust-levels", adminHandler.CreateTrustLevel)
			admin.PATCH("/trust-levels/:id", adminHandler.UpdateTrustLevel)
			admin.GET("/settings", adminHandler.ListSettings)
			admin.PUT("/settings", adminHandler.SetSetting)
			admin.GET("/payouts", adminHandler.ListPayouts)
			admin.POST("/payouts/:id/advance", adminHandler.AdvancePayout)
			admin.POST("/payouts/:id/submit", adminHandler.SubmitPayout)
			admin.POST("/sweeps/refunds", adminHandler.RunRefundSweep)
			admin.POST("/sweeps/tiers", adminHandler.RunTierSweep)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/audit-log", adminHandler.ListAuditLog)
		}

		api.POST("/webhooks/payment", paymentWebhookHandler.Handle)
		api.POST("/webhooks/payout", payoutWebhookHandler.Handle)
	}

	// Public trust tier listing so customers can price orders.
	api.GET("/trust-levels", func(c *gin.Context) {
		tiers, err := trustRepo.ListActive()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"trust_levels": tiers})
	})

	r.GET("/ws/notifications", ws.UpgradeNotifications(&cfg.JWT, hub))

	return r, &Services{Refund: refundSvc, Trust: trustSvc}
}
