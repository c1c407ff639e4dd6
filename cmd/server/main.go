package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"celestial/internal/api"
	"celestial/internal/catalog"
	"celestial/internal/config"
	"celestial/internal/pg"
	"celestial/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadWithPath("celestial.json")

	log, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Каталог сущностей и справочники
	cat, err := catalog.Load(cfg.DSLDir, cfg.EnumsDir)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	log.Info("catalog loaded",
		zap.Int("entities", len(cat.Entities())),
		zap.Int("enums", len(cat.Enums)),
		zap.String("dsl_dir", cfg.DSLDir))

	// 2. Пул соединений
	db, err := pg.Open(ctx, pg.Options{
		Driver:          cfg.DBDriver,
		URL:             cfg.DBURL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		AcquireTimeout:  cfg.AcquireTimeout,
	})
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("db close", zap.Error(err))
		}
		log.Info("db pool closed")
	}()
	if err := db.RegisterMetrics(prometheus.DefaultRegisterer, "celestial"); err != nil {
		log.Warn("db metrics not registered", zap.Error(err))
	}
	log.Info("db connected", zap.String("driver", db.Dialect().Name))

	// 3. Схема и демо-данные
	if cfg.AutoMigrate {
		ddl, err := pg.GenerateDDL(cat)
		if err != nil {
			return fmt.Errorf("ddl: %w", err)
		}
		if err := db.ApplyDDL(ctx, ddl, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	st := store.New(db, cat, log.Named("store"), store.Options{
		ManyPlanetsThreshold: cfg.ManyPlanetsThreshold,
	})
	if cfg.Seed {
		if err := st.Seed(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	// 4. HTTP
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(st, log.Named("http"))
	return api.RunServer(ctx, ":"+cfg.Port, router, cfg.ShutdownGrace, log)
}
