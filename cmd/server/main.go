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

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/telehealthhq/telehealth-api/internal/chat"
	"github.com/telehealthhq/telehealth-api/internal/config"
	"github.com/telehealthhq/telehealth-api/internal/handler"
	"github.com/telehealthhq/telehealth-api/internal/mailer"
	"github.com/telehealthhq/telehealth-api/internal/middleware"
	"github.com/telehealthhq/telehealth-api/internal/repository"
	"github.com/telehealthhq/telehealth-api/internal/token"
	"github.com/telehealthhq/telehealth-api/internal/usecase"
	"github.com/telehealthhq/telehealth-api/internal/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	if err := client.Ping(pingCtx, nil); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	cancel()
	logger.Info().Msg("connected to MongoDB")

	db := client.Database(cfg.Mongo.Database)
	accounts := repository.NewAccountMongoRepository(ctx, &logger, db)

	issuer := token.NewIssuer(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.ExpiresIn)

	streamProvider, err := chat.NewStreamProvider(cfg.Stream)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create Stream Chat client")
	}

	notifier := mailer.New(cfg.SMTP)

	authUsecase := usecase.NewAuthUsecase(accounts, notifier, streamProvider, issuer)
	chatUsecase := usecase.NewChatUsecase(streamProvider)

	validate := validator.New()
	cookies := handler.CookieOptions{
		ExpiresDays: cfg.Token.CookieExpiresDays,
		Secure:      cfg.IsProduction(),
	}

	authHandler := handler.NewAuthHandler(authUsecase, validate, logger, cookies)
	chatHandler := handler.NewChatHandler(chatUsecase, validate, logger)
	guard := middleware.NewSessionGuard(issuer, accounts, logger)

	router := handler.NewRouter(logger, handler.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Verbose:     !cfg.IsProduction(),
	}, authHandler, chatHandler, guard)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
