package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ircgateway/internal/commands"
	"ircgateway/internal/config"
	"ircgateway/internal/dispatcher"
	"ircgateway/internal/health"
	"ircgateway/internal/hub"
	"ircgateway/internal/originpolicy"
	"ircgateway/internal/retention"
	"ircgateway/internal/session"
	"ircgateway/internal/snowflake"
	"ircgateway/internal/store"
	"ircgateway/internal/wireadaptor"
)

func setupLogger() (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"gateway.log", "stdout"}
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func setupRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

func main() {
	fmt.Println("Setting up logger...")
	sugar, err := setupLogger()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer sugar.Sync()

	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatal(err)
	}

	if err := snowflake.Setup(cfg.SnowflakeWorkerID); err != nil {
		sugar.Fatal(err)
	}
	session.Setup(cfg.JwtSecret)

	fmt.Println("Opening domain store...")
	st, err := store.Setup(sugar, cfg.StatePath)
	if err != nil {
		sugar.Fatal(err)
	}
	defer st.Shutdown()

	var rdb *redis.Client
	if !cfg.SelfContained {
		fmt.Println("Connecting to redis...")
		rdb, err = setupRedis(cfg.RedisAddr)
		if err != nil {
			sugar.Fatal(err)
		}
	}

	commands.Setup(sugar, st)
	dispatcher.Setup(sugar, st, cfg.RetentionDays, commands.Execute)
	hub.Setup(sugar, rdb, cfg.SelfContained, dispatcher.HandleEvent)
	wireadaptor.Setup(sugar, st)

	policy := originpolicy.New(cfg.AllowedOrigins)
	router := health.Setup(sugar, cfg, policy)

	retentionCtx, cancelRetention := context.WithCancel(context.Background())
	go retention.Run(retentionCtx, sugar, st, cfg.RetentionDays)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Gateway is running on http://%s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	sugar.Info("shutting down")
	cancelRetention()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
