package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mkuznetsov/bookstore-api/internal/address"
	"github.com/mkuznetsov/bookstore-api/internal/auth"
	"github.com/mkuznetsov/bookstore-api/internal/book"
	"github.com/mkuznetsov/bookstore-api/internal/cache"
	"github.com/mkuznetsov/bookstore-api/internal/cart"
	"github.com/mkuznetsov/bookstore-api/internal/config"
	"github.com/mkuznetsov/bookstore-api/internal/db"
	handlerHttp "github.com/mkuznetsov/bookstore-api/internal/handler/http"
	"github.com/mkuznetsov/bookstore-api/internal/notify"
	"github.com/mkuznetsov/bookstore-api/internal/order"
	"github.com/mkuznetsov/bookstore-api/internal/user"
)

const serviceName = "bookstore-api"

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", serviceName).Logger()

	log.Info().Msg("Bookstore API starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := db.ApplyMigrations(cfg.Postgres, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, serviceName)
	notifyQueue := notify.NewRedisQueue(redisClient, serviceName)
	authManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.ResetTokenTTL)
	tokenRevoker := auth.NewRevoker(redisCache)

	userRepo := user.NewRepository(postgres.Pool)
	bookRepo := book.NewRepository(postgres.Pool)
	cartRepo := cart.NewRepository(postgres.Pool)
	addressRepo := address.NewRepository(postgres.Pool)
	orderRepo := order.NewRepository(postgres.Pool)

	userSvc := user.NewService(userRepo, authManager, notifyQueue, cfg.Notify.Delay)
	bookSvc := book.NewService(bookRepo, redisCache)
	cartSvc := cart.NewService(cartRepo, bookSvc)
	addressSvc := address.NewService(addressRepo)
	orderSvc := order.NewService(orderRepo, bookRepo, cartRepo, addressRepo, userRepo, notifyQueue, redisCache, cfg.Notify.Delay)

	router := handlerHttp.NewRouter(
		authManager,
		tokenRevoker,
		handlerHttp.NewUserHandler(userSvc, tokenRevoker),
		handlerHttp.NewBookHandler(bookSvc),
		handlerHttp.NewCartHandler(cartSvc),
		handlerHttp.NewAddressHandler(addressSvc),
		handlerHttp.NewOrderHandler(orderSvc),
	)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	worker := notify.NewWorker(notifyQueue, notify.NewLogMailer(), cfg.Notify.PollInterval)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := worker.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Service failed")
	}

	log.Info().Msg("Bookstore API stopped gracefully")
}
