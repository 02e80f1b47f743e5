package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicehub/config"
	"servicehub/cron"
	"servicehub/handlers"
	"servicehub/middleware"
	"servicehub/models"
	"servicehub/routes"
	"servicehub/services/api"
	"servicehub/services/catalog"
	"servicehub/services/notification"
	"servicehub/services/payment"
	"servicehub/services/realtime"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET is required to validate sessions")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	remote := api.NewClient(cfg.APIBaseURL, models.RoleUser,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithLogger(logger.Named("api")),
		api.WithPageSize(cfg.PageSize),
	)

	assets, err := utils.NewAssetURLBuilder(cfg.CloudinaryURL, cfg.AssetBaseURL)
	if err != nil {
		logger.Fatal("main: failed to initialize asset URLs", zap.Error(err))
	}

	// Redis is optional; without it the catalog is uncached and pushes are off.
	var catalogCache catalog.Cache
	if err := utils.InitCache(); err != nil {
		logger.Warn("main: Redis unavailable, running without cache and push relay", zap.Error(err))
	} else {
		catalogCache = catalog.NewRedisCache(utils.GetCacheClient())
	}
	utils.StartHealthMonitor(ctx, 30*time.Second, utils.GetCacheClient(), remote.Ping)

	socket := realtime.NewManager(
		&realtime.WSDialer{URL: cfg.SocketURL, Token: cfg.SocketToken},
		realtime.WithLogger(logger.Named("realtime")),
	)
	defer socket.Close()

	var lookup payment.SessionLookup
	if cfg.StripeKey != "" {
		lookup = payment.NewStripeLookup(cfg.StripeKey)
	}

	hb := &handlers.HandlerBundle{
		API:      remote,
		Realtime: socket,
		Payments: payment.NewService(lookup, logger.Named("payment")),
		Catalog:  catalog.NewService(remote, catalogCache, cfg.CatalogCacheTTL, assets, logger.Named("catalog")),
		Assets:   assets,
		Location: cfg.Location(),
		Redis:    utils.GetCacheClient(),
	}

	if relay, worker, queue := startPushRelay(ctx, cfg, socket, logger); relay != nil {
		hb.Devices = relay
		defer queue.Close()
		defer worker.Shutdown()
		defer relay.Close()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	routes.RegisterRoutes(router, hb, routes.Options{
		SessionSecret: []byte(cfg.JWTSecret),
		SessionCookie: cfg.SessionCookie,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	// Open SSE streams end when the socket manager closes their subscriptions.
	socket.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}

// startPushRelay wires device registration, the push queue and its worker.
// It returns nils when Redis or Firebase is not configured.
func startPushRelay(ctx context.Context, cfg config.Config, socket *realtime.Manager, logger *zap.Logger) (*notification.Relay, *asynq.Server, *asynq.Client) {
	if utils.GetCacheClient() == nil || cfg.FirebaseCredentials == "" {
		logger.Info("main: push relay disabled")
		return nil, nil, nil
	}

	fcm, err := utils.NewFCMClient(ctx, cfg.FirebaseCredentials)
	if err != nil {
		logger.Error("main: push relay disabled", zap.Error(err))
		return nil, nil, nil
	}
	pusher, err := notification.NewFCMPusher(fcm)
	if err != nil {
		logger.Error("main: push relay disabled", zap.Error(err))
		return nil, nil, nil
	}

	devices := notification.NewRedisDeviceStore(utils.GetCacheClient())
	queue := asynq.NewClient(cron.QueueRedisOpt())
	worker := cron.InitPushWorker(ctx, pusher, devices, logger.Named("push"))

	relay := notification.NewRelay(socket, devices, queue, logger.Named("relay"))
	if err := relay.Resume(ctx); err != nil {
		logger.Warn("main: failed to resume push relay", zap.Error(err))
	}
	return relay, worker, queue
}
