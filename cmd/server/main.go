package main // Entry point package

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sincoline/account-service/internal/config"
	"github.com/sincoline/account-service/internal/database"
	"github.com/sincoline/account-service/internal/handler"
	"github.com/sincoline/account-service/internal/imagestore"
	"github.com/sincoline/account-service/internal/notifier"
	"github.com/sincoline/account-service/internal/queue"
	"github.com/sincoline/account-service/internal/repository"
	"github.com/sincoline/account-service/internal/router"
	"github.com/sincoline/account-service/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("schema bootstrap failed")
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting disabled")
	}

	images, err := imagestore.NewS3Store(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("image store init failed")
	}

	amqpURL := os.Getenv("RABBITMQ_URL")
	mail := notifier.NewAMQPNotifier(amqpURL, log.Logger)
	go queue.StartMailerConsumer(amqpURL, log.Logger)

	users := repository.NewUserRepo(db)
	accounts := service.NewAccountService(cfg, users, mail, images, log.Logger)
	h := handler.NewAccountHandler(accounts, log.Logger, cfg.AccessTTLMin, cfg.RefreshTTLDays)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAccount(e, h, cfg.AccessSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
