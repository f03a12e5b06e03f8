package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visaletter-backend/assets"
	"visaletter-backend/config"
	"visaletter-backend/handlers"
	"visaletter-backend/logger"
	"visaletter-backend/middleware"
	"visaletter-backend/repository"
	"visaletter-backend/service"
	"visaletter-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	envErr := godotenv.Load()
	if envErr != nil {
		envErr = godotenv.Load("../../.env")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.Nop()
		if l, lerr := logger.New("development"); lerr == nil {
			bootLog = l
		}
		bootLog.Fatal("Failed to load configuration", "error", err)
	}

	log, err := logger.New(cfg.Server.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if envErr != nil {
		log.Warn("No .env file found, using environment variables")
	}

	ctx := context.Background()

	// Load policy assets once; the bundle is shared read-only by every request
	assetStore, err := storage.NewStorageFromConfig(ctx, cfg.Assets)
	if err != nil {
		log.Fatal("Failed to initialize asset storage", "error", err)
	}
	defer func() {
		if err := storage.Close(assetStore); err != nil {
			log.Warn("Failed to close asset storage", "error", err)
		}
	}()
	assetState := loadAssets(ctx, cfg, assetStore, log)

	classifier, err := service.NewClassifier(cfg.Scenarios)
	if err != nil {
		log.Fatal("Failed to compile scenario rules", "error", err)
	}

	geminiClient, err := initGemini(ctx, cfg.Generation.APIKey, log)
	if err != nil {
		log.Fatal("Failed to initialize Gemini", "error", err)
	}
	defer geminiClient.Close()

	generationClient := service.NewGenerationClient(
		service.NewGeminiCaller(geminiClient, cfg.Generation.Temperature),
		cfg.Generation.PrimaryModel,
		cfg.Generation.FallbackModel,
		service.GenerationWithTimeout(cfg.Generation.Timeout),
		service.GenerationWithLogger(log),
	)

	letterOpts := []service.LetterServiceOption{
		service.LetterWithAssets(assetState),
		service.LetterWithNormalizer(service.NewNormalizer(cfg.Intake.DefaultCompanyName, cfg.Intake.DefaultFunding, classifier.Sponsored)),
		service.LetterWithClassifier(classifier),
		service.LetterWithComposer(service.NewComposer(cfg.Prompt, cfg.Currency)),
		service.LetterWithGenerator(generationClient),
		service.LetterWithLogger(log),
	}

	// The generation log is optional; without a database the service runs stateless
	var logRepo *repository.GenerationLogRepository
	if cfg.Database.URL != "" {
		db, err := initPostgres(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal("Failed to initialize Postgres", "error", err)
		}
		defer db.Close()
		logRepo = repository.NewGenerationLogRepository(db)
		letterOpts = append(letterOpts, service.LetterWithGenerationLog(logRepo))
		log.Info("Postgres connection established; generation log enabled")
	}

	letterService := service.NewLetterService(letterOpts...)

	// Initialize handlers
	letterHandler := handlers.NewLetterHandler(letterService, log)
	assetHandler := handlers.NewAssetHandler(assetState)

	// Setup Gin router
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		api.GET("/assets/status", assetHandler.Status)

		// Letter endpoints
		api.POST("/letters", letterHandler.GenerateLetter)
		api.POST("/letters/preview", letterHandler.PreviewPrompt)

		// Generation log endpoints
		if logRepo != nil {
			logHandler := handlers.NewGenerationLogHandler(logRepo)
			api.GET("/generation-logs/stats", logHandler.Stats)
			api.GET("/generation-logs/:id", logHandler.GetLog)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Generation.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
}

// loadAssets applies the configured fail mode to the asset load result
func loadAssets(ctx context.Context, cfg *config.Config, src storage.Storage, log *logger.Logger) *assets.State {
	bundle, err := assets.Load(ctx, src, assets.Options{
		Strict: cfg.Assets.Strict,
		Digest: assets.DigestLimits{
			MaxFiles:        cfg.Digest.MaxFiles,
			MaxCharsPerFile: cfg.Digest.MaxCharsPerFile,
			MaxTotalChars:   cfg.Digest.MaxTotalChars,
		},
	})
	if err == nil {
		log.Info("Policy assets loaded",
			"location", bundle.Location,
			"fingerprint", bundle.Fingerprint,
			"mini_templates", len(bundle.MiniTemplates),
			"samples", len(bundle.Samples),
			"strict", bundle.Strict,
		)
		return assets.Ready(bundle)
	}

	var configErr *assets.ConfigurationError
	if !errors.As(err, &configErr) {
		log.Fatal("Failed to read policy assets", "location", src.Location(), "error", err)
	}

	if cfg.Assets.FailMode == config.FailModeDegraded {
		log.Error("Policy assets missing; generation disabled until corrected",
			"location", src.Location(),
			"missing", configErr.Missing,
		)
		return assets.Degraded(configErr)
	}

	log.Fatal("Policy assets missing", "location", src.Location(), "missing", configErr.Missing)
	return nil
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func initGemini(ctx context.Context, apiKey string, log *logger.Logger) (*genai.Client, error) {
	if apiKey == "" {
		log.Warn("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Info("Gemini client initialized")
	return client, nil
}
