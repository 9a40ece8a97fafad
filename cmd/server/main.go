package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumina-chat/lumina-api/internal/api"
	"github.com/lumina-chat/lumina-api/internal/core/service"
	"github.com/lumina-chat/lumina-api/internal/infrastructure/ai"
	"github.com/lumina-chat/lumina-api/internal/infrastructure/config"
	mongodb "github.com/lumina-chat/lumina-api/internal/infrastructure/db/mongo"
	redisdb "github.com/lumina-chat/lumina-api/internal/infrastructure/db/redis"
	"github.com/lumina-chat/lumina-api/internal/infrastructure/mail"
	"github.com/lumina-chat/lumina-api/internal/infrastructure/queue"
	"github.com/lumina-chat/lumina-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title           Lumina Chat API
// @version         1.0
// @description     REST backend for the Lumina AI chat application: account
// @description     registration with email OTP verification, JWT sessions,
// @description     and authenticated prompt relay to a generative-AI provider.
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.Production(),
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		logg.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logg.Fatal().Err(err).Msg("index bootstrap failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		logg.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = rdb.Close() }()

	mailer, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		logg.Fatal().Err(err).Msg("smtp client failed")
	}

	dispatcher := queue.NewDispatcher(cfg.SMTP.Workers, mailer, logg)
	dispatcher.Start(ctx)

	provider := ai.NewOpenAIProvider(ai.Config{
		APIKey:     cfg.OpenAI.APIKey,
		ChatModel:  cfg.OpenAI.ChatModel,
		ImageModel: cfg.OpenAI.ImageModel,
	})

	e := api.NewRouter(api.Deps{
		DB:            db,
		Redis:         rdb,
		Mail:          dispatcher,
		Text:          provider,
		Image:         provider,
		JWTSecret:     cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		SecureCookies: cfg.Production(),
		AllowOrigins:  []string{cfg.FrontendOrigin},
		Persona:       service.DefaultPersona,
		Logger:        logg,
	})

	go func() {
		logg.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logg.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logg.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error().Err(err).Msg("shutdown failed")
	}
}
