package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/xendit/xendit-go/v6"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/config"
	"github.com/raffialdn/karyapay/internal/handlers"
	"github.com/raffialdn/karyapay/internal/logger"
	"github.com/raffialdn/karyapay/internal/middleware"
	"github.com/raffialdn/karyapay/internal/models"
	"github.com/raffialdn/karyapay/internal/providers"
	"github.com/raffialdn/karyapay/internal/scheduler"
)

func Start() error {
	if err := logger.Init(os.Getenv("GIN_MODE")); err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	xenditCfg, err := config.LoadXenditConfig()
	if err != nil {
		return fmt.Errorf("failed to load xendit config: %v", err)
	}
	xenditClient, err := config.InitXenditClient(xenditCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize xendit client: %v", err)
	}

	dokuCfg, err := config.LoadDokuConfig()
	if err != nil {
		return fmt.Errorf("failed to load doku config: %v", err)
	}

	registry := providers.NewRegistry(
		&providers.DokuAdapter{
			Signer: providers.DokuSigner{
				ClientID:  dokuCfg.ClientID,
				SecretKey: dokuCfg.SecretKey,
			},
			NotifyTarget: dokuCfg.NotifyTarget,
		},
		&providers.XenditAdapter{CallbackToken: xenditCfg.CallbackToken},
	)

	settlementManager, err := scheduler.Start(db, config.LoadSettlementConfig())
	if err != nil {
		return fmt.Errorf("failed to start scheduler: %v", err)
	}
	defer settlementManager.Stop()

	r := gin.Default()

	setupRoutes(r, db, xenditClient, registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, xenditClient *xendit.APIClient, registry *providers.Registry) {
	r.Use(middleware.DatabaseMiddleware(db))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)
		public.POST("/webhooks/:provider", handlers.PaymentWebhook(registry))

		productPublic := public.Group("/products")
		{
			productPublic.GET("", handlers.ListProducts)
			productPublic.GET("/:id", handlers.GetProduct)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		protected.POST("/products", middleware.RequireRole(models.RoleCreator), handlers.CreateProduct)

		orders := protected.Group("/orders")
		orders.Use(middleware.XenditMiddleware(xenditClient))
		{
			orders.POST("", handlers.Checkout)
			orders.GET("/:id/qr", handlers.OrderPaymentQR)
			orders.POST("/:id/cancel", handlers.CancelOrder)
		}

		creator := protected.Group("/creator")
		creator.Use(middleware.RequireRole(models.RoleCreator))
		{
			creator.GET("/balance", handlers.GetBalance)
			creator.GET("/revenue-shares", handlers.ListRevenueShares)
			creator.POST("/withdrawals", handlers.CreateWithdrawal)
			creator.GET("/withdrawals", handlers.ListWithdrawals)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/payments/:id/events", handlers.ListPaymentEvents)
		}
	}
}
