package router

import (
	"time"

	"quanlychitieu/api"
	"quanlychitieu/config"
	_ "quanlychitieu/docs"
	"quanlychitieu/middleware"
	"quanlychitieu/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter dựng router và toàn bộ đồ thị phụ thuộc của dịch vụ
func SetupRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()
	r.Use(CORSMiddleware())

	// Đồ thị dịch vụ: bus sự kiện -> notifier -> cảnh báo -> dispatcher,
	// chatbot dùng chung dispatcher với bộ dự phòng
	bus := service.NewBus()
	var email *service.EmailService
	if cfg.Email.Enabled {
		email = service.NewEmailService(&cfg.Email)
	}
	notifier := service.NewNotifier(bus, email)
	alerts := service.NewAlertService(notifier, bus)
	dispatcher := service.NewDispatcher(alerts)
	oracle := service.NewOracle(&cfg.Chatbot)
	fallback := service.NewFallback(dispatcher)

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// Xác thực (không cần đăng nhập)
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(5, time.Minute), authHandler.Login)
		}

		// Các route cần JWT
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			// Giao dịch
			txHandler := api.NewTransactionHandler(alerts)
			transactions := authorized.Group("/transactions")
			{
				transactions.POST("", txHandler.Create)
				transactions.GET("", txHandler.List)
				transactions.GET("/:id", txHandler.Get)
				transactions.PUT("/:id", txHandler.Update)
				transactions.DELETE("/:id", txHandler.Delete)
			}

			// Danh mục
			categoryHandler := api.NewCategoryHandler()
			categories := authorized.Group("/categories")
			{
				categories.GET("", categoryHandler.List)
				categories.POST("", categoryHandler.Create)
				categories.PUT("/:id", categoryHandler.Update)
				categories.DELETE("/:id", categoryHandler.Delete)
			}

			// Ngân sách
			budgetHandler := api.NewBudgetHandler(alerts)
			budgets := authorized.Group("/budgets")
			{
				budgets.GET("", budgetHandler.GetBudget)
				budgets.POST("", budgetHandler.SetBudget)
				budgets.PUT("", budgetHandler.UpdateBudget)
				budgets.GET("/categories", budgetHandler.ListCategoryBudgets)
				budgets.PUT("/categories", budgetHandler.SetCategoryBudget)
			}

			// Cảnh báo
			alertHandler := api.NewAlertHandler()
			alertRoutes := authorized.Group("/alerts")
			{
				alertRoutes.GET("", alertHandler.List)
				alertRoutes.DELETE("", alertHandler.DeleteAll)
				alertRoutes.DELETE("/:id", alertHandler.Delete)
			}

			// Thống kê và biểu đồ
			statsHandler := api.NewStatisticsHandler()
			chartHandler := api.NewChartHandler()
			statistics := authorized.Group("/statistics")
			{
				statistics.GET("/summary", statsHandler.Summary)
				statistics.GET("/by-category", statsHandler.ByCategory)
				statistics.GET("/trend", statsHandler.Trend)
				statistics.GET("/chart/pie", chartHandler.CategoryPie)
				statistics.GET("/chart/trend", chartHandler.ExpenseTrend)
			}

			// Xuất dữ liệu
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.CSV)
				export.GET("/excel", exportHandler.Excel)
			}

			// Trợ lý hội thoại
			chatbotHandler := api.NewChatbotHandler(&cfg.Chatbot, oracle, dispatcher, fallback)
			chatbot := authorized.Group("/chatbot")
			{
				chatbot.POST("/message", chatbotHandler.Message)
				chatbot.GET("/history", chatbotHandler.History)
			}

			// Sự kiện thời gian thực
			eventHandler := api.NewEventHandler(bus)
			authorized.GET("/events", eventHandler.Stream)
		}
	}

	// Kiểm tra sức khỏe
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware middleware cho phép gọi chéo nguồn gốc
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
