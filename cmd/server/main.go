package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hive-fieldops/backend/internal/config"
	"github.com/hive-fieldops/backend/internal/db"
	"github.com/hive-fieldops/backend/internal/dynamo"
	httpapi "github.com/hive-fieldops/backend/internal/http"
	"github.com/hive-fieldops/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := log.Level(level).With().Str("service", "hive-fieldops").Str("env", cfg.Env).Logger()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid timezone")
	}
	calOpts, err := cfg.CalendarOptions()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid calendar config")
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store")
	}
	defer closeStore()

	svc := service.NewRequestService(store, clockwork.NewRealClock(), logger)
	svc.Location = loc
	svc.Calendar = calOpts

	router := httpapi.Router(cfg, svc, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (service.Store, func(), error) {
	if cfg.StoreBackend == config.BackendDynamoDB {
		client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.DynamoEndpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		store := dynamo.NewStore(client, cfg.DynamoPrefix)
		if cfg.RunMigrations {
			if err := store.EnsureTables(ctx); err != nil {
				return nil, nil, err
			}
			seeded, err := store.SeedManagers(ctx, dynamo.DefaultManagers)
			if err != nil {
				return nil, nil, err
			}
			logger.Info().Str("prefix", cfg.DynamoPrefix).Int("managers_seeded", seeded).Msg("dynamodb tables ready")
		}
		return store, func() {}, nil
	}

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RunMigrations {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info().Msg("migrations applied")
	}
	return store, store.Close, nil
}
