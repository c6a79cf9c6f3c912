package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hooksink/internal/config"
	"hooksink/internal/handler"
	"hooksink/internal/metrics"
	"hooksink/internal/middleware"
	"hooksink/internal/redis"
	"hooksink/internal/responder"
	"hooksink/internal/tenant"
	"hooksink/internal/websocket"
	"hooksink/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(log)
	defer func() { _ = log.Logger.Sync() }()

	if cfg.Webhook.Secret == "" && !cfg.Webhook.AllowUnsigned {
		log.Errorf("WEBHOOK_SECRET is not set; set WEBHOOK_ALLOW_UNSIGNED=true to run without signature verification")
		os.Exit(1)
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub()
	go hub.Run(ctx)

	registry := tenant.NewRegistry(tenant.RegistryConfig{
		DataDir:       cfg.Storage.DataDir,
		WebhookSecret: cfg.Webhook.Secret,
		AllowUnsigned: cfg.Webhook.AllowUnsigned,
		Responder: responder.Config{
			APIBase:     cfg.Provider.APIBase,
			Token:       cfg.Provider.Token,
			CallTimeout: cfg.Provider.CallTimeout,
		},
	}, hub, log.Logger)

	var limiter *redis.RateLimiter
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = redis.NewRateLimiter(client, redis.RateLimitConfig{
			Limit:  cfg.RateLimit.WebhookLimit,
			Window: cfg.RateLimit.WebhookWindow,
		})
		log.Infof("webhook rate limiting enabled via redis at %s", cfg.Redis.Addr)
	}

	if cfg.Server.Environment == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))

	webhookHandler := handler.NewWebhookHandler(registry, log.Logger)
	wsHandler := websocket.NewHandler(hub, registry, cfg.Dashboard.TokenSecret, log.Logger)

	r.Any("/webhook", middleware.RateLimitMiddleware(limiter, log), webhookHandler.Handle)
	r.GET("/ws", wsHandler.Connect)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		// In-flight side effects get the rest of the shutdown window; work
		// that has not started yet is dropped, which the provider protocol
		// tolerates.
		registry.Drain()
	}()

	log.Infof("listening on :%s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("server error: %v", err)
		os.Exit(1)
	}
}
