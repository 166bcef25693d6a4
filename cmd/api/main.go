package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swiftinvoice/swift-invoice-api/internal/application/service"
	"github.com/swiftinvoice/swift-invoice-api/internal/config"
	"github.com/swiftinvoice/swift-invoice-api/internal/infrastructure/database"
	"github.com/swiftinvoice/swift-invoice-api/internal/infrastructure/repository"
	"github.com/swiftinvoice/swift-invoice-api/internal/presentation/http/handler"
	"github.com/swiftinvoice/swift-invoice-api/internal/presentation/http/routes"
	"github.com/swiftinvoice/swift-invoice-api/pkg/email"
	"github.com/swiftinvoice/swift-invoice-api/pkg/oauth"
	"github.com/swiftinvoice/swift-invoice-api/pkg/pdf"
	"github.com/swiftinvoice/swift-invoice-api/pkg/storage"
	"github.com/swiftinvoice/swift-invoice-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	passwordResetRepo := repository.NewPasswordResetTokenRepository(db)

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.Host,
		SMTPPort:     cfg.Email.Port,
		SMTPUsername: cfg.Email.Username,
		SMTPPassword: cfg.Email.Password,
		FromName:     cfg.Invoice.CompanyName,
		FromEmail:    cfg.Email.From,
		FrontendURL:  cfg.App.FrontendURL,
	})

	// Initialize Google OAuth service
	googleOAuthService := oauth.NewGoogleOAuthService(
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleClientSecret,
		cfg.OAuth.GoogleRedirectURL,
	)

	// Initialize PDF renderer with a bounded HTTP client for remote images
	renderer := pdf.NewRenderer(
		&http.Client{Timeout: 10 * time.Second},
		cfg.Invoice.CompanyName,
		cfg.Invoice.DefaultNotes,
	)

	// Initialize S3 uploader for logo and QR images
	uploader, err := storage.NewS3Uploader(context.Background(), &cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, passwordResetRepo, jwtManager, emailService, googleOAuthService)
	invoiceService := service.NewInvoiceService(invoiceRepo, renderer, emailService)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Invoice: handler.NewInvoiceHandler(invoiceService),
		Upload:  handler.NewUploadHandler(uploader, cfg.Storage.UploadMaxSize),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
	log.Printf("Environment: %s", cfg.App.Env)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
