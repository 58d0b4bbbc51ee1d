package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/growthfarm/farm-market-orders.git/internal/config"
	"github.com/growthfarm/farm-market-orders.git/internal/httpx"
	kafkax "github.com/growthfarm/farm-market-orders.git/internal/kafka"
	"github.com/growthfarm/farm-market-orders.git/internal/market"
	"github.com/growthfarm/farm-market-orders.git/internal/postgres"
	"github.com/growthfarm/farm-market-orders.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	placed := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderPlaced, 1024, logger)
	placed.Start(ctx)
	rejected := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderRejected, 1024, logger)
	rejected.Start(ctx)

	store := postgres.NewStore(db)
	svc := market.NewService(store, logger)

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Service:        svc,
		PlacedEvents:   placed,
		RejectedEvents: rejected,
		Redis:          rdb,
		Logger:         logger,
		ServiceName:    cfg.ServiceName,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	placed.Close()
	rejected.Close()
	placed.WaitClosed()
	rejected.WaitClosed()
}
