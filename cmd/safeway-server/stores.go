package main

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/safeway/server/internal/config"
	"github.com/safeway/server/internal/db"
	"github.com/safeway/server/internal/safeway/store"
	"github.com/safeway/server/internal/safeway/store/memory"
	sqlitestore "github.com/safeway/server/internal/safeway/store/sqlite"
)

type stores struct {
	users  store.UserStore
	creds  store.CredentialStore
	events store.AccessEventStore
	errors store.ErrorLogStore
	http   store.HTTPLogStore

	ping  func(ctx context.Context) error
	close func()
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store == "memory" {
		dir := memory.NewDirectoryStore()
		logger.Warn("using in-memory store; nothing survives a restart")
		return &stores{
			users:  dir,
			creds:  dir,
			events: memory.NewAccessEventStore(),
			errors: memory.NewErrorLogStore(),
			http:   memory.NewHTTPLogStore(),
			ping:   func(context.Context) error { return nil },
			close:  func() {},
		}, nil
	}

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("database ready", zap.String("path", cfg.DBPath))

	if cfg.Env == "dev" && cfg.SeedDev {
		if err := db.SeedDev(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("seed dev data: %w", err)
		}
		logger.Info("dev directory seeded")
	}

	writer := db.NewWorker(conn)
	dir := sqlitestore.NewDirectoryStore(conn, writer)

	return &stores{
		users:  dir,
		creds:  dir,
		events: sqlitestore.NewAccessEventStore(conn, writer),
		errors: sqlitestore.NewErrorLogStore(conn, writer),
		http:   sqlitestore.NewHTTPLogStore(conn, writer),
		ping:   conn.PingContext,
		close:  closeSQLite(conn, writer),
	}, nil
}

// closeSQLite drains the writer before closing the connection.
func closeSQLite(conn *sql.DB, writer *db.Worker) func() {
	return func() {
		writer.Close()
		_ = conn.Close()
	}
}
