package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/vbonduro/photoshelf/internal/config"
	"github.com/vbonduro/photoshelf/internal/db"
	"github.com/vbonduro/photoshelf/internal/docstore"
	"github.com/vbonduro/photoshelf/internal/docstore/local"
	"github.com/vbonduro/photoshelf/internal/docstore/memory"
	sqlitestore "github.com/vbonduro/photoshelf/internal/docstore/sqlite"
	"github.com/vbonduro/photoshelf/internal/logging"
	"github.com/vbonduro/photoshelf/internal/service"
	"github.com/vbonduro/photoshelf/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	store, closeStore, err := newDocumentStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize document store", "backend", cfg.StoreBackend, "error", err)
		return
	}
	defer closeStore()

	svc := service.NewCollectionService(store, logger, service.WithRetention(cfg.BackupRetention))
	server := web.NewServer(svc, cfg.MaxBodyBytes, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newDocumentStore builds the configured backend. The returned func releases
// whatever the backend holds open.
func newDocumentStore(cfg *config.Config, logger *slog.Logger) (docstore.DocumentStore, func(), error) {
	stem := strings.TrimSuffix(filepath.Base(cfg.DataFile), filepath.Ext(cfg.DataFile))

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite document store", "path", cfg.DBPath, "document", stem)
		return sqlitestore.NewSQLiteDocumentStore(database, stem), func() { closeDB(database, logger) }, nil
	case config.BackendMemory:
		logger.Warn("using in-memory document store, data is lost on exit")
		return memory.NewMemoryDocumentStore(stem), func() {}, nil
	case config.BackendFile:
		store, err := local.NewLocalDocumentStore(cfg.DataFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file document store", "path", store.Path())
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func closeDB(database *sql.DB, logger *slog.Logger) {
	if err := database.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}
