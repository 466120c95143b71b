package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/gateway"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("⚠️ user index warning: %v", err)
	}

	// The gateway client is built once and injected; a missing key pair
	// leaves it nil and order intake answers 503.
	var gw gateway.Client
	if config.AppEnv.GatewayConfigured() {
		gw = gateway.NewRazorpayClient(config.AppEnv.RazorpayKeyID, config.AppEnv.RazorpayKeySecret)
	}

	locks := handlers.NewAccountLocks()

	r := gin.Default()

	r.GET("/health", handlers.Health())

	r.POST("/api/auth/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.POST("/api/auth/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	payment := r.Group("/api/payment")
	{
		payment.POST("/create-order", handlers.CreateOrder(db, gw))
		payment.POST("/verify-payment", handlers.VerifyPayment(db, config.AppEnv.RazorpayKeySecret))
		payment.POST("/webhook", handlers.HandleWebhook(db, config.AppEnv.RazorpayWebhookSecret))
		payment.GET("/order/:orderId", handlers.GetOrder(db))
		payment.GET("/orders", handlers.GetOrders(db))
	}

	profile := r.Group("/api/profile", middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		profile.GET("", handlers.GetProfile(db))
		profile.PUT("", handlers.UpdateProfile(db))
		profile.GET("/addresses", handlers.GetUserAddresses(db))
		profile.POST("/addresses", handlers.CreateUserAddress(db, locks))
		profile.PUT("/addresses/:id", handlers.UpdateUserAddress(db, locks))
		profile.DELETE("/addresses/:id", handlers.DeleteUserAddress(db, locks))
		profile.PUT("/addresses/:id/default", handlers.SetDefaultUserAddress(db, locks))
	}

	log.Println("Server listening on port", config.AppEnv.Port)
	if err := r.Run(":" + config.AppEnv.Port); err != nil {
		log.Fatal(err)
	}
}
