package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/lucidportal/backend/api/handler"
	"github.com/lucidportal/backend/internal/config"
	"github.com/lucidportal/backend/internal/infrastructure/monitor"
	"github.com/lucidportal/backend/internal/middleware"
	"github.com/lucidportal/backend/internal/router"
	"github.com/lucidportal/backend/internal/services/lifecycle"
	"github.com/lucidportal/backend/internal/services/sweeper"
	"github.com/lucidportal/backend/internal/store"
	"github.com/lucidportal/backend/pkg/httpcontext"
	"github.com/lucidportal/backend/pkg/logger"
	commentUC "github.com/lucidportal/backend/usecase/comment"
	entityUC "github.com/lucidportal/backend/usecase/entity"
	notificationUC "github.com/lucidportal/backend/usecase/notification"
	reportUC "github.com/lucidportal/backend/usecase/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("env", cfg.Environment))

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	mirror, err := openMirror(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("local mirror unavailable", zap.String("driver", cfg.Mirror.Driver), zap.Error(err))
	}

	// The remote never blocks startup: without it every store runs on the mirror alone.
	remote := openRemote(appCtx, cfg, manager, zapLogger)

	mon := monitor.New(remote, mirror, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop(ctx)
		return nil
	})

	registry := store.NewRegistry(remote, mirror, zapLogger, store.WithPrefix(cfg.Mirror.KeyPrefix))

	sweep := sweeper.New(registry, cfg.Store.IdleTTL, cfg.Store.SweepInterval, zapLogger)
	sweep.Start()
	manager.Register("store_sweeper", func(ctx context.Context) error {
		sweep.Stop(ctx)
		return nil
	})

	notifications := notificationUC.New(registry, zapLogger)
	entities := entityUC.New(registry, zapLogger)
	comments := commentUC.New(registry, notifications, zapLogger)
	reports := reportUC.New(registry, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Entity:       apiHandler.NewEntityHandler(entities, ctxAdapter, zapLogger),
		Comment:      apiHandler.NewCommentHandler(comments, ctxAdapter, zapLogger),
		Notification: apiHandler.NewNotificationHandler(notifications, ctxAdapter, zapLogger),
		Report:       apiHandler.NewReportHandler(reports, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	if cfg.JWT.Secret == "" {
		zapLogger.Warn("JWT_SECRET is empty, trusting X-User-ID from upstream")
	}
	r := router.New(handlers, middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger))

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 4 << 20,
	}

	manager.Go("http_server", func() error {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("mode", mon.GetStatus().Mode()))
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
