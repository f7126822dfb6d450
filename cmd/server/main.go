package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/api"
	"reviewly-backend-go/internal/config"
	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/crypto"
	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/geo"
	"reviewly-backend-go/internal/logger"
	"reviewly-backend-go/internal/middleware"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/notify"
	"reviewly-backend-go/internal/plans"
	"reviewly-backend-go/pkg/cache"
	"reviewly-backend-go/pkg/messagequeue"
)

const sweepInterval = time.Hour

func main() {
	// --- 1. Load configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize logger ---
	zapLogger, err := logger.New(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded", zap.String("storage", appConfig.StorageBackend))

	// --- 3. Plan catalog ---
	catalog := plans.Default()
	if appConfig.PlansFile != "" {
		catalog, err = plans.Load(appConfig.PlansFile)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to load plan catalog", zap.String("path", appConfig.PlansFile), zap.Error(err))
		}
	}
	zapLogger.Info("Plan catalog ready", zap.Int("plans", len(catalog.All())), zap.Int("addons", len(catalog.Addons())))

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	// --- 4. Storage and token verification ---
	var (
		store    *db.Store
		verifier middleware.TokenVerifier
	)
	switch appConfig.StorageBackend {
	case config.StorageFirestore:
		fb, err := db.InitFirebase(initCtx, appConfig, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase", zap.Error(err))
		}
		defer fb.Close()
		store = db.NewFirestoreStore(fb.Firestore)
		verifier = fb.Auth
	case config.StorageMemory:
		store = db.NewMemoryStore()
		if seeder, ok := store.Settings.(db.AdminRoleSeeder); ok && appConfig.AdminUIDs != "" {
			seeder.SetAdminRoles(models.AdminRoles{UIDs: splitList(appConfig.AdminUIDs)})
		}
		zapLogger.Warn("Using in-memory storage. Data is lost on restart.")
	}
	if appConfig.DevAuth {
		verifier = middleware.DevTokenVerifier{}
		zapLogger.Warn("DEV_AUTH enabled: accepting unsigned dev tokens")
	}
	if verifier == nil {
		zapLogger.Fatal("CRITICAL_ERROR: No token verifier. The memory backend requires DEV_AUTH=true.")
	}

	// --- 5. Cache, currency lookups and payment signer ---
	var appCache cache.Cache = cache.Noop{}
	if appConfig.RedisAddress != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
		defer redisCache.Close()
		appCache = redisCache
	} else {
		zapLogger.Warn("REDIS_ADDRESS not set; currency lookups are not cached")
	}
	geoClient := geo.NewClient(appConfig.GeoAPIURL, appConfig.FXAPIURL, appConfig.HTTPClientTimeout, appCache, zapLogger)

	signer, err := crypto.NewSigner(appConfig.PaymentKeySecret)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid payment key secret", zap.Error(err))
	}

	// --- 6. Event publishing ---
	var (
		publisher  events.Publisher
		dispatcher *events.Dispatcher
	)
	if appConfig.RabbitMQURL != "" {
		mq, err := messagequeue.NewRabbitMQService(messagequeue.NewRabbitMQServiceConfig{URL: appConfig.RabbitMQURL}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mq.Close()
		publisher = events.NewQueuePublisher(mq, appConfig.EventsQueue)
		zapLogger.Info("Publishing events to RabbitMQ", zap.String("queue", appConfig.EventsQueue))
	} else {
		m, err := notify.MailerFromConfig(appConfig)
		switch {
		case err == nil:
			notifier := notify.New(m, appConfig.SupportEmail, appConfig.PublicBaseURL, zapLogger)
			dispatcher = events.NewDispatcher(zapLogger, notifier.Handle)
			zapLogger.Info("Dispatching events in process to the mail notifier")
		case errors.Is(err, notify.ErrNoMailer):
			dispatcher = events.NewDispatcher(zapLogger)
			zapLogger.Warn("No broker or mail transport configured; events are dropped")
		default:
			zapLogger.Fatal("CRITICAL_ERROR: Failed to configure mailer", zap.Error(err))
		}
		publisher = dispatcher
	}

	// --- 7. Services ---
	services := core.NewServices(store, catalog, signer, core.Lookups{Locator: geoClient, Rates: geoClient}, publisher, core.Options{
		TrialDays:     appConfig.TrialDays,
		PublicBaseURL: appConfig.PublicBaseURL,
		BaseCurrency:  appConfig.BaseCurrency,
		SupportEmail:  appConfig.SupportEmail,
	}, zapLogger)
	zapLogger.Info("Core services initialized successfully.")

	runCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	go sweepExpired(runCtx, services.Admin, zapLogger)

	// --- 8. Gin engine and global middleware ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.Metrics())
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig.ClientURL))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	// --- 9. Routes ---
	api.SetupRoutes(router, zapLogger, services, middleware.NewAuthMiddleware(verifier, zapLogger))

	// --- 10. HTTP server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	stopBackground()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
	zapLogger.Info("Server exiting gracefully.")
}

// sweepExpired closes elapsed trials and subscriptions until ctx ends.
func sweepExpired(ctx context.Context, admin *core.AdminService, logger *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := admin.SweepExpired(ctx)
			if err != nil {
				logger.Error("Expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Expiry sweep closed plans", zap.Int("expired", n))
			}
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
