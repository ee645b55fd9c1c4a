package router

import (
	"net/http"

	"fintrack/internal/config"
	"fintrack/internal/handler"
	"fintrack/internal/middleware"
	"fintrack/internal/plaid"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Setup builds the full route tree. Everything under /api except the
// auth endpoints requires a bearer token.
func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"*"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handler.NewAuthHandler(db, cfg.JWT.Secret, cfg.JWT.ExpireHours)
	accountHandler := handler.NewAccountHandler(db)
	transactionHandler := handler.NewTransactionHandler(db)
	categoryHandler := handler.NewCategoryHandler(db)
	budgetHandler := handler.NewBudgetHandler(db)
	analyticsHandler := handler.NewAnalyticsHandler(db)
	plaidHandler := handler.NewPlaidHandler(db, plaid.NewClient(cfg.Plaid), cfg.Security.EncryptionKey)
	exportHandler := handler.NewExportHandler(db)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.Auth(cfg.JWT.Secret, db))
	{
		accounts := protected.Group("/accounts")
		{
			accounts.GET("", accountHandler.List)
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.Get)
			accounts.DELETE("/:id", accountHandler.Delete)
		}

		transactions := protected.Group("/transactions")
		{
			transactions.GET("", transactionHandler.List)
			transactions.POST("", transactionHandler.Create)
			transactions.GET("/:id", transactionHandler.Get)
			transactions.PUT("/:id", transactionHandler.Update)
			transactions.DELETE("/:id", transactionHandler.Delete)
		}

		categories := protected.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.POST("", categoryHandler.Create)
			categories.GET("/:id", categoryHandler.Get)
			categories.PUT("/:id", categoryHandler.Update)
			categories.DELETE("/:id", categoryHandler.Delete)
		}

		budgets := protected.Group("/budgets")
		{
			budgets.GET("", budgetHandler.List)
			budgets.POST("", budgetHandler.Create)
			budgets.GET("/:id", budgetHandler.Get)
			budgets.PUT("/:id", budgetHandler.Update)
			budgets.DELETE("/:id", budgetHandler.Delete)
			budgets.GET("/:id/performance", budgetHandler.Performance)
		}

		analytics := protected.Group("/analytics")
		{
			analytics.GET("/net-worth", analyticsHandler.NetWorth)
			analytics.GET("/spending-by-category", analyticsHandler.SpendingByCategory)
			analytics.GET("/income-over-time", analyticsHandler.IncomeOverTime)
			analytics.GET("/spending-over-time", analyticsHandler.SpendingOverTime)
		}

		plaidRoutes := protected.Group("/plaid")
		{
			plaidRoutes.POST("/link-token", plaidHandler.LinkToken)
			plaidRoutes.POST("/exchange", plaidHandler.ExchangeToken)
			plaidRoutes.POST("/sync", plaidHandler.Sync)
		}

		export := protected.Group("/export")
		{
			export.GET("/csv", exportHandler.CSV)
			export.GET("/xlsx", exportHandler.XLSX)
		}
	}

	return r
}
