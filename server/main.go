package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/httpapi"
	"github.com/meikuraledutech/workflow/internal/config"
	"github.com/meikuraledutech/workflow/internal/observability"
	"github.com/meikuraledutech/workflow/memory"
	"github.com/meikuraledutech/workflow/postgres"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)
	cfg, err := config.Load(v, os.Getenv("STACK_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := observability.NewLogger(cfg.Logger, zapcore.Lock(os.Stdout))
	defer logger.Sync()

	var store workflow.Store
	if cfg.Database.URL == "" {
		logger.Info("DATABASE_URL is not set, using the in-memory store")
		store = memory.New()
	} else {
		pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	if err := store.CreateSchema(context.Background()); err != nil {
		log.Fatalf("schema: %v", err)
	}

	app, err := httpapi.New(store, logger)
	if err != nil {
		log.Fatalf("app: %v", err)
	}

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	log.Fatal(app.Listen(cfg.Server.Addr))
}
