package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"chat-relay/api"
	"chat-relay/config"
	"chat-relay/database"
	"chat-relay/middleware"
	"chat-relay/models"
	"chat-relay/repository"
	"chat-relay/services"
)

func main() {
	// Load .env before anything reads the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: [Main] No .env file found, relying on process environment.")
	}

	// Load application configuration
	config.LoadConfig()

	// Initialize database connection
	db, err := database.Init()
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}

	// Auto-migrate database schema
	runMigrations(db)

	// Shared client for the two outbound collaborators (identity provider,
	// Gemini upstream). The upstream stream can be slow, so the timeout is
	// generous.
	httpClient := &http.Client{Timeout: 120 * time.Second}

	// Initialize repositories
	quotaRepo := repository.NewQuotaRepository(db)
	chatRepo := repository.NewChatRepository(db)
	log.Println("INFO: [Main] Repositories initialized.")

	// Initialize services
	cfg := &config.AppConfig
	authService := services.NewAuthService(cfg.Auth.URL, cfg.Auth.ServiceRoleKey, httpClient)
	quotaService := services.NewQuotaService(quotaRepo, cfg.DailyMessageLimit)
	relayService := services.NewRelayService(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, httpClient)
	chatService := services.NewChatService(chatRepo)
	log.Println("INFO: [Main] Services initialized.")

	// Initialize API handler with all dependencies
	apiHandler := api.NewAPIHandler(authService, quotaService, relayService, chatService, cfg)
	log.Println("INFO: [Main] API Handler initialized.")

	// Create Gin engine
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Register middlewares
	r.Use(middleware.Logger())
	r.Use(middleware.Cors())
	log.Println("INFO: [Main] Middlewares registered.")

	// Register routes
	registerRoutes(r, apiHandler)
	log.Println("INFO: [Main] Routes registered.")

	// Start the server
	serverPort := ":" + config.AppConfig.Server.Port
	if config.AppConfig.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}

func runMigrations(db *gorm.DB) {
	log.Println("INFO: [Main] Running database migrations...")
	err := db.AutoMigrate(
		&models.DailyMessageCount{},
		&models.Conversation{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to auto-migrate database: %v", err)
	}
	log.Println("INFO: [Main] Database migration completed.")
}

func registerRoutes(r *gin.Engine, handler *api.APIHandler) {
	// The relay endpoint keeps the path the original client calls.
	r.POST("/functions/v1/chat", handler.ChatHandler)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/chat", handler.ChatHandler)
		apiGroup.GET("/quota", handler.QuotaHandler)
		apiGroup.GET("/conversations", handler.ListConversationsHandler)
		apiGroup.GET("/conversations/:conversationID/messages", handler.ListMessagesHandler)
	}
}
