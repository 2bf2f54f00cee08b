package main

import (
	"log"
	"os"

	_ "agrimandi/api/swagger" // swagger docs
	"agrimandi/internal/database"
	"agrimandi/internal/handler"
	"agrimandi/internal/middleware"
	"agrimandi/internal/repository"
	"agrimandi/internal/service"
	"agrimandi/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           AgriMandi Marketplace API
// @version         1.0
// @description     Multi-role agricultural marketplace: listings, transactions, logistics, and billing.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "agrimandi"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Overpayment policy: accept payments beyond the invoice total unless
	// explicitly disabled.
	allowOverpayment := os.Getenv("ALLOW_OVERPAYMENT") != "false"

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	seqRepo := repository.NewSequenceRepository(db)

	authService := service.NewAuthService(userRepo, txManager, middleware.GetJWTSecret())
	listingService := service.NewListingService(listingRepo)
	vehicleService := service.NewVehicleService(vehicleRepo)
	txnService := service.NewTransactionService(txnRepo, listingRepo, vehicleRepo, seqRepo, txManager, wsHub)
	billingService := service.NewBillingService(billingRepo, txnRepo, userRepo, seqRepo, txManager, wsHub, allowOverpayment)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	listingHandler := handler.NewListingHandler(listingService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)
	txnHandler := handler.NewTransactionHandler(txnService)
	billingHandler := handler.NewBillingHandler(billingService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	listingHandler.RegisterRoutes(router.Group(""))
	vehicleHandler.RegisterRoutes(router.Group(""))
	txnHandler.RegisterRoutes(router.Group(""))
	billingHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
