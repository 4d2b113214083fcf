// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/config"
	"github.com/itemt/agroconnect-backend/internal/handlers"
	"github.com/itemt/agroconnect-backend/internal/middleware"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

func Initialize(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)

	authService := services.NewAuthService(db, cfg, notificationService)
	userService := services.NewUserService(db)
	inventoryService := services.NewInventoryService(db)
	publicationService := services.NewPublicationService(db)
	cartService := services.NewCartService(db)
	orderService := services.NewOrderService(db, notificationService)
	paymentService := services.NewPaymentService(db, cfg, redisClient, notificationService)
	ratingService := services.NewRatingService(db, notificationService)
	chatService := services.NewChatService(db, notificationService)
	adminService := services.NewAdminService(db, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, storageService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, storageService)
	publicationHandler := handlers.NewPublicationHandler(publicationService)
	cartHandler := handlers.NewCartHandler(cartService, orderService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	webhookHandler := handlers.NewWebhookHandler(paymentService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	chatHandler := handlers.NewChatHandler(chatService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id", userHandler.GetPublicProfile)
			users.GET("/:id/ratings", ratingHandler.ListForUser)

			protected := users.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/profile", userHandler.GetProfile)
				protected.PUT("/profile", userHandler.UpdateProfile)
				protected.PUT("/password", userHandler.ChangePassword)
				protected.POST("/avatar", middleware.UploadRateLimit(), userHandler.UploadAvatar)
				protected.DELETE("/account", userHandler.DeleteAccount)
			}
		}

		// Producer inventory: farms and crops
		farms := v1.Group("/farms")
		farms.Use(middleware.AuthRequired(), middleware.ProducerRequired())
		{
			farms.POST("", inventoryHandler.CreateFarm)
			farms.GET("", inventoryHandler.ListFarms)
			farms.GET("/:id", inventoryHandler.GetFarm)
			farms.PUT("/:id", inventoryHandler.UpdateFarm)
			farms.DELETE("/:id", inventoryHandler.DeleteFarm)
		}

		crops := v1.Group("/crops")
		crops.Use(middleware.AuthRequired(), middleware.ProducerRequired())
		{
			crops.POST("", inventoryHandler.CreateCrop)
			crops.GET("", inventoryHandler.ListCrops)
			crops.GET("/:id", inventoryHandler.GetCrop)
			crops.PUT("/:id", inventoryHandler.UpdateCrop)
			crops.DELETE("/:id", inventoryHandler.DeleteCrop)
			crops.POST("/:id/image", middleware.UploadRateLimit(), inventoryHandler.UploadCropImage)
		}

		// Marketplace catalog
		publications := v1.Group("/publications")
		{
			publications.GET("", middleware.OptionalAuth(), publicationHandler.Search)

			protected := publications.Group("")
			protected.Use(middleware.AuthRequired(), middleware.ProducerRequired())
			{
				protected.POST("", publicationHandler.Create)
				protected.GET("/mine", publicationHandler.ListMine)
				protected.PUT("/:id", publicationHandler.Update)
				protected.POST("/:id/pause", publicationHandler.Pause)
				protected.POST("/:id/resume", publicationHandler.Resume)
				protected.DELETE("/:id", publicationHandler.Delete)
			}

			publications.GET("/:id", middleware.OptionalAuth(), publicationHandler.GetByID)
			publications.GET("/:id/quote", middleware.OptionalAuth(), publicationHandler.Quote)
		}

		// Cart
		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired(), middleware.BuyerRequired())
		{
			cart.GET("", cartHandler.GetCart)
			cart.DELETE("", cartHandler.Clear)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:id", cartHandler.UpdateItem)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
			cart.POST("/checkout", cartHandler.Checkout)
		}

		// Orders
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", middleware.BuyerRequired(), orderHandler.Create)
			orders.GET("/purchases", orderHandler.ListPurchases)
			orders.GET("/sales", middleware.ProducerRequired(), orderHandler.ListSales)
			orders.GET("/:id", orderHandler.GetByID)
			orders.GET("/:id/payment", paymentHandler.GetForOrder)
			orders.GET("/:id/ratings", ratingHandler.ListForOrder)
			orders.POST("/:id/confirm", orderHandler.Confirm)
			orders.POST("/:id/prepare", orderHandler.StartPreparation)
			orders.POST("/:id/ship", orderHandler.Ship)
			orders.POST("/:id/transit", orderHandler.MarkInTransit)
			orders.POST("/:id/receive", orderHandler.MarkReceived)
			orders.POST("/:id/complete", orderHandler.Complete)
			orders.POST("/:id/cancel", orderHandler.Cancel)
		}

		// Payments
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/checkout", middleware.PaymentRateLimit(), paymentHandler.Checkout)
			payments.GET("", paymentHandler.List)
			payments.GET("/:id", paymentHandler.GetByID)
			payments.POST("/:id/simulate", paymentHandler.Simulate)
			payments.POST("/:id/cancel", paymentHandler.Cancel)
		}

		// Gateway webhooks (no auth, signature or API lookup instead)
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/epayco", webhookHandler.EpaycoConfirmation)
			webhooks.POST("/mercadopago", webhookHandler.MercadoPagoNotification)
		}

		// Ratings
		ratings := v1.Group("/ratings")
		ratings.Use(middleware.AuthRequired())
		{
			ratings.POST("", ratingHandler.Create)
		}

		// Messaging
		conversations := v1.Group("/conversations")
		conversations.Use(middleware.AuthRequired())
		{
			conversations.POST("", chatHandler.Start)
			conversations.GET("", chatHandler.List)
			conversations.GET("/:id", chatHandler.GetByID)
			conversations.POST("/:id/messages", chatHandler.SendMessage)
			conversations.POST("/:id/read", chatHandler.MarkRead)
		}

		// Notifications
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkAsRead)
			notifications.POST("/read-all", notificationHandler.MarkAllAsRead)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users/:id/suspend", adminHandler.SuspendUser)
			admin.POST("/users/:id/reactivate", adminHandler.ReactivateUser)
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/payments", adminHandler.ListPayments)
		}
	}

	return r
}
