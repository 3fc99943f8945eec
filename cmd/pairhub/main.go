package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codefionn/pairhub/internal/config"
	"github.com/codefionn/pairhub/internal/logger"
	"github.com/codefionn/pairhub/internal/relay"
	"github.com/codefionn/pairhub/internal/server"
	"github.com/codefionn/pairhub/internal/session"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(logger.ParseLevel(cfg.LogLevel))

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	hub := server.NewHub()
	router := &relay.Router{
		Owner: &relay.OwnerActor{Sessions: store},
		Controller: &relay.ControllerActor{
			Sessions:           store,
			Global:             hub,
			JoinRequestTimeout: cfg.JoinRequestTimeout(),
		},
	}

	srv := server.NewServer(cfg.Port, hub, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Start()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Store {
	case "memory":
		logger.Info("Using in-memory session store")
		return session.NewMemoryStore(cfg.SessionTTL()), nil
	default:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}

		logger.Info("Using redis session store at %s", cfg.Redis.Addr)
		return session.NewRedisStore(client, cfg.SessionTTL()), nil
	}
}
