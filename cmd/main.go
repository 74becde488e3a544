package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taskmail/internal/cache"
	"taskmail/internal/config"
	"taskmail/internal/database"
	"taskmail/internal/queue"
	"taskmail/internal/repository"
	"taskmail/internal/routes"
	"taskmail/internal/service"
	"taskmail/internal/worker"
	"taskmail/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Get()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Database not available", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	// Optional infrastructure: the app runs without Redis and Kafka.
	lists := cache.NewLists(cache.NewClient(ctx, cfg), cfg.CacheTTL)
	queue.EnsureTopic(ctx, cfg)
	publisher := queue.NewPublisher(ctx, cfg)
	defer publisher.Close()

	users := repository.NewUsers(db)
	items := repository.NewItems(db)
	authSvc := service.NewAuth(users, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	var events service.EventPublisher
	if publisher != nil {
		events = publisher
	}
	itemSvc := service.NewItems(items, users, events)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go worker.Run(workerCtx, cfg, repository.NewActivity(db), lists)

	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: routes.Router(routes.Deps{
			Cfg:   cfg,
			DB:    db,
			Auth:  authSvc,
			Items: itemSvc,
			Lists: lists,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown error", "error", err)
	}
	stopWorker()
	logger.Info(ctx, "Server stopped")
}
