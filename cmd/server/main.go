package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyslexiaaid/screening-service/internal/auth"
	"github.com/dyslexiaaid/screening-service/internal/cache"
	"github.com/dyslexiaaid/screening-service/internal/classifier"
	"github.com/dyslexiaaid/screening-service/internal/config"
	"github.com/dyslexiaaid/screening-service/internal/handlers"
	"github.com/dyslexiaaid/screening-service/internal/repositories/postgres"
	"github.com/dyslexiaaid/screening-service/internal/services"
	"github.com/dyslexiaaid/screening-service/internal/speech"
	"github.com/dyslexiaaid/screening-service/internal/utils"
	"github.com/dyslexiaaid/screening-service/internal/validator"
	"github.com/dyslexiaaid/screening-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.IsProduction())
	slogger := utils.ToSlogLogger(logger)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Database unavailable")
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.LogError(err, "Migration failed")
		os.Exit(1)
	}

	cacheService := cache.NewMemoryCache()
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, using in-process cache", "error", err)
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, "screening", slogger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	forest, err := classifier.LoadFile(cfg.ClassifierModelPath)
	if err != nil {
		logger.Warn("Subtype suggestions disabled", "model_path", cfg.ClassifierModelPath, "error", err)
	}

	var verifier auth.TokenVerifier
	if cfg.Casdoor.Enabled() {
		verifier = auth.NewCasdoorVerifier(cfg.Casdoor)
	}

	v := validator.New()
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repository: postgres.NewRepository(db),
		Publisher:  publisher,
		Cache:      cacheService,
		Suggester:  classifier.NewForestSuggester(forest),
		Validator:  v,
		Logger:     slogger,
	})

	recognizer := speech.NewHTTPRecognizer(cfg.SpeechAPIURL, cfg.SpeechAPIKey, cfg.SpeechLanguage)
	handlerManager := handlers.NewHandlerManager(serviceManager, recognizer, verifier, v, logger)
	router := handlerManager.NewRouter(cfg.SessionSecret, cfg.IsProduction())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server stopped")
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Graceful shutdown failed")
	}
}
