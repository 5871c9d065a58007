package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/jaksense/internal/dataset"
	"github.com/cognicore/jaksense/internal/logging"
	"github.com/cognicore/jaksense/internal/server"
	"github.com/cognicore/jaksense/internal/telegram"
	"github.com/cognicore/jaksense/pkg/jaksense"
	"github.com/cognicore/jaksense/pkg/jaksense/config"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/store"
	"github.com/cognicore/jaksense/pkg/jaksense/store/memstore"
	"github.com/cognicore/jaksense/pkg/jaksense/store/sqlite"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (optional)")
		addr        = flag.String("addr", "", "Listen address (overrides server.addr)")
		datasetPath = flag.String("dataset", "", "Backing dataset, CSV or JSONL (overrides dataset.path)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *datasetPath != "" {
		cfg.Dataset.Path = *datasetPath
	}

	logger := logging.Init(cfg.Log.JSON, logging.ParseLevel(cfg.Log.Level))
	if err := run(cfg, logger); err != nil {
		logger.Error("jaksense stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.Loader{Config: cfg, Logger: logger}
	components, err := loader.Load()
	if err != nil {
		return err
	}
	ingester := ingest.New(components.Router)

	baseline, err := (&dataset.Loader{Ingester: ingester, Logger: logger}).Load(cfg.Dataset.Path)
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}

	engine, err := jaksense.New(jaksense.Options{
		Store:      st,
		Ingester:   ingester,
		Classifier: components.Classifier,
		Baseline:   baseline,
		Logger:     logger,
	})
	if err != nil {
		st.Close()
		return err
	}
	defer engine.Close()

	var wg sync.WaitGroup
	if cfg.Store.SessionTTL > 0 && cfg.Store.PruneInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prune(ctx, engine, cfg.Store, logger)
		}()
	}

	if cfg.Telegram.Enabled {
		bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.Debug, telegram.NewHandler(engine, logger), logger)
		if err != nil {
			stop()
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Run(ctx); err != nil {
				logger.Error("telegram bot stopped", "error", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(server.Options{
		Engine:       engine,
		Logger:       logger,
		SecureCookie: cfg.Server.SecureCookie,
	})
	if err != nil {
		return err
	}

	err = srv.Run(ctx, cfg.Server.Addr)
	stop()
	wg.Wait()
	return err
}

func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	if cfg.Driver == config.StoreSQLite {
		return sqlite.OpenSQLite(ctx, cfg.Path)
	}
	return memstore.New(), nil
}

func prune(ctx context.Context, engine *jaksense.Engine, cfg config.Store, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.PruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := engine.PruneIdle(ctx, cfg.SessionTTL); err != nil {
				logger.Warn("prune idle sessions", "error", err)
			}
		}
	}
}
