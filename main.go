package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arogyamandiramAPI/handlers"
	"arogyamandiramAPI/internal/config"
	"arogyamandiramAPI/internal/logger"
	"arogyamandiramAPI/internal/storage"
	"arogyamandiramAPI/internal/userlock"
	"arogyamandiramAPI/internal/workers"
	"arogyamandiramAPI/middleware"
	"arogyamandiramAPI/services"
)

var (
	cfg                *config.Config
	store              storage.Store
	locker             userlock.Locker
	userService        *services.UserService
	achievementService *services.AchievementService
)

func init() {
	// stderr-only until the config says otherwise
	_ = logger.Init(logger.Config{})

	var err error
	cfg, err = config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogDir: cfg.LogDir}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}

	if cfg.ClerkSecretKey == "" {
		logger.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(cfg.ClerkSecretKey)
	logger.Info("Clerk initialized successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err = storage.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Fatal("Failed to open store", "error", err)
	}
	if cfg.DatabaseURL != "" {
		logger.Info("Connected to Postgres")
	} else {
		logger.Warn("DATABASE_URL not set, using SQLite", "path", cfg.SQLitePath)
	}

	if cfg.RedisURL != "" {
		redisLocker, err := userlock.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err)
		}
		locker = redisLocker
		logger.Info("Using Redis for per-user locking")
	} else {
		locker = userlock.NewMemory()
	}

	userService = services.NewUserService(store)
	achievementService = services.NewAchievementService(store, locker, services.OptionsFromConfig(cfg.Gamification, cfg.Location))

	middleware.InitPrometheus()
	services.RegisterMetrics()
}

func main() {
	defer func() {
		logger.Info("Closing store...")
		store.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	achievementHandler := handlers.NewAchievementHandler(userService, achievementService)
	webhookHandler := handlers.NewWebhookHandler(userService, cfg.ClerkWebhookSecret)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	rateLimiter := middleware.NewRateLimiter(5, 30)
	go rateLimiter.Cleanup(ctx)

	if cfg.RecomputeInterval > 0 {
		go workers.StartRecomputeWorker(ctx, userService, workers.RecomputeFunc(func(ctx context.Context, userID string) error {
			_, err := achievementService.ComputeAchievements(ctx, userID)
			return err
		}), cfg.RecomputeInterval)
	}

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(rateLimiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "arogyamandiram-api"}`))
	}).Methods("GET")

	standardRouter.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/achievements/catalog", achievementHandler.GetCatalog).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/targets", userHandler.UpdateTargets).Methods("PUT")
	protected.HandleFunc("/user/daily-records", userHandler.ListDailyRecords).Methods("GET")
	protected.HandleFunc("/user/daily-records/{date}", userHandler.UpsertDailyRecord).Methods("PUT")
	protected.HandleFunc("/user/achievements", achievementHandler.GetAchievements).Methods("GET")
	protected.HandleFunc("/user/achievements/preview", achievementHandler.PreviewAchievements).Methods("GET")
	protected.HandleFunc("/user/stats", achievementHandler.GetStats).Methods("GET")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Error starting server", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Got signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if closer, ok := locker.(interface{ Close() error }); ok {
		closer.Close()
	}

	logger.Info("Server shutdown complete")
}
