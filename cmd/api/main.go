package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/priceforge/priceforge_api/internal/cache"
	"github.com/priceforge/priceforge_api/internal/config"
	"github.com/priceforge/priceforge_api/internal/database"
	"github.com/priceforge/priceforge_api/internal/handler"
	"github.com/priceforge/priceforge_api/internal/middleware"
	"github.com/priceforge/priceforge_api/internal/pricing"
	"github.com/priceforge/priceforge_api/internal/repository"
	"github.com/priceforge/priceforge_api/internal/service"
	"github.com/priceforge/priceforge_api/internal/sse"
	"github.com/priceforge/priceforge_api/internal/utils"
	"github.com/priceforge/priceforge_api/internal/worker"
	"github.com/priceforge/priceforge_api/pkg/shopify"
)

// main is the application entrypoint for the PriceForge API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting priceforge api")

	utils.SetJWTSecret(cfg.JWTSecret)
	if host := os.Getenv("ADMIN_DASHBOARD_HOST"); host != "" {
		middleware.AllowAdminHost(host)
	}

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Initialize template cache
	templateCache := cache.NewTemplateCache(redisClient)

	// 4. Initialize Shopify Admin API client
	shopifyClient := shopify.NewClient(shopify.Config{
		APIKey:     cfg.Shopify.APIKey,
		APISecret:  cfg.Shopify.APISecret,
		APIVersion: cfg.Shopify.APIVersion,
	})

	// 5. Initialize repositories
	shopRepo := repository.NewShopRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	logRepo := repository.NewCalculationLogRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 5a. Pricing engine with configured formula limits
	engine := pricing.NewEngine(pricing.Limits{
		MaxFormulaLength: cfg.Pricing.MaxFormulaLength,
		MaxTokens:        cfg.Pricing.MaxFormulaTokens,
		MaxDepth:         cfg.Pricing.MaxFormulaDepth,
	}, cfg.Pricing.CurrencyPrecision)

	// 5b. SSE hub for admin editors
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 6. Initialize services
	authSvc := service.NewAuthService(shopRepo)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)
	templateSvc := service.NewTemplateService(templateRepo, templateCache, engine, notifier)
	calculationSvc := service.NewCalculationService(templateRepo, logRepo, templateCache, engine)
	shopSvc := service.NewShopService(shopRepo, templateCache, redisClient, shopifyClient, cfg)

	uploadSvc, err := service.NewUploadService(&cfg.S3)
	if err != nil {
		log.Warn().Err(err).Msg("Upload service initialization failed - FILE field uploads will be disabled")
	}

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:      handler.NewHealthHandler(db, redisClient),
		Auth:        handler.NewAuthHandler(adminAuthSvc, shopSvc, cfg),
		Template:    handler.NewTemplateHandler(templateSvc),
		Calculation: handler.NewCalculationHandler(calculationSvc),
		Upload:      handler.NewUploadHandler(uploadSvc),
		Webhook:     handler.NewWebhookHandler(shopSvc, cfg),
		SSE:         handler.NewSSEHandler(hub),
	}

	// 8. Initialize middleware
	shopAuthMw := middleware.NewShopAuthMiddleware(authSvc)
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, shopAuthMw, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewLogCleanupWorker(logRepo, cfg.Worker.LogCleanupInterval, cfg.Worker.LogRetention).Start(ctx)
	go worker.NewScriptTagWorker(shopSvc, cfg.Worker.ScriptTagInterval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Template    *handler.TemplateHandler
	Calculation *handler.CalculationHandler
	Upload      *handler.UploadHandler
	Webhook     *handler.WebhookHandler
	SSE         *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, shopAuth *middleware.ShopAuthMiddleware, jwtMiddleware *middleware.JWTMiddleware) {
	// Shopify webhook endpoints (HMAC verified in handler)
	router.POST("/webhook/shopify/uninstalled", handlers.Webhook.Uninstalled)

	router.GET("/v1/health", handlers.Health.GetHealth)

	// OAuth install flow
	router.POST("/v1/auth/install", handlers.Auth.BeginInstall)
	router.GET("/v1/auth/callback", handlers.Auth.OAuthCallback)

	// Storefront routes (protected with shop API token)
	storefront := router.Group("/v1/storefront")
	storefront.Use(shopAuth.Handle())
	{
		storefront.GET("/template", handlers.Calculation.GetTemplate)
		storefront.POST("/active-fields", handlers.Calculation.ActiveFields)
		storefront.POST("/calculate", handlers.Calculation.Calculate)
		storefront.POST("/uploads", handlers.Upload.Upload)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)

	// SSE authenticates via query param inside the handler (EventSource
	// cannot set headers).
	admin.GET("/events", handlers.SSE.Stream)

	admin.Use(jwtMiddleware.Handle())
	{
		// Template Management
		admin.GET("/templates", handlers.Template.ListTemplates)
		admin.POST("/templates", handlers.Template.CreateTemplate)
		admin.POST("/templates/validate", handlers.Template.ValidateTemplate)
		admin.GET("/templates/:id", handlers.Template.GetTemplate)
		admin.PUT("/templates/:id", handlers.Template.UpdateTemplate)
		admin.DELETE("/templates/:id", handlers.Template.DeleteTemplate)
		admin.POST("/templates/:id/duplicate", handlers.Template.DuplicateTemplate)

		// Calculation history
		admin.GET("/calculations", handlers.Calculation.ListCalculations)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
