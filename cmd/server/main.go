package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/PaulBabatuyi/filekeeper/internal/cache"
	"github.com/PaulBabatuyi/filekeeper/internal/config"
	"github.com/PaulBabatuyi/filekeeper/internal/database"
	"github.com/PaulBabatuyi/filekeeper/internal/observability"
	"github.com/PaulBabatuyi/filekeeper/internal/queue"
	"github.com/PaulBabatuyi/filekeeper/internal/server"
	"github.com/PaulBabatuyi/filekeeper/internal/service"
	"github.com/PaulBabatuyi/filekeeper/internal/session"
	"github.com/PaulBabatuyi/filekeeper/internal/storage"
	"github.com/PaulBabatuyi/filekeeper/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "filekeeper: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := observability.InitLogger(cfg.Logging.Dev)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitTracerProvider(logger)
	if err != nil {
		return err
	}
	defer observability.ShutdownTracerProvider(context.Background(), tp, logger)

	metrics := observability.InitMetrics()

	// Document store
	var (
		users service.UserStore
		files service.FileStore
	)
	switch cfg.Database.Backend {
	case "postgres":
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, cfg.Database.DSN); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		pg, err := database.NewPostgres(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		users, files = pg, pg
	default:
		mem := database.NewMemory()
		users, files = mem, mem
	}

	// Key-value cache
	var kv cache.Cache
	switch cfg.Cache.Backend {
	case "badger":
		b, err := cache.OpenBadger(cfg.Cache.Dir)
		if err != nil {
			return fmt.Errorf("open badger: %w", err)
		}
		kv = b
	default:
		kv = cache.NewMemory()
	}
	defer kv.Close()

	content := storage.NewFilesystemStorage(cfg.Storage.Root)
	sessions := session.NewManager(kv, logger)
	jobs := queue.NewChannelQueue(cfg.Worker.QueueSize)
	svc := service.New(users, files, sessions, content, jobs, kv, logger)

	pool := worker.NewPool(jobs, files, worker.NewImageProcessor(content, logger), int64(cfg.Worker.Slots), metrics, logger)
	pool.Start(ctx)

	srv := server.New(cfg, logger, svc, metrics)
	err = srv.Run(ctx)

	// Drain in-flight thumbnail jobs before tearing down stores.
	jobs.Close()
	pool.Wait()

	logger.Info("shutdown complete")
	return err
}
