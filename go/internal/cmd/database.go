package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mcdev12/pairmatch/go/internal/dbconfig"
	"github.com/mcdev12/pairmatch/go/internal/ranking"
	"github.com/rs/zerolog/log"
)

func setupDatabase(ctx context.Context, dbConfig dbconfig.Config) (*sql.DB, error) {
	database, err := sql.Open("postgres", dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("connected to database")
	return database, nil
}

// setupStore returns the ledger store and a func releasing its resources.
func setupStore(ctx context.Context) (ranking.Store, func(), error) {
	dbConfig := dbconfig.NewConfigFromEnv()
	if !dbConfig.Enabled {
		log.Info().Msg("DB_ENABLED is false, keeping the ledger in memory")
		return ranking.NewMemoryStore(), func() {}, nil
	}

	database, err := setupDatabase(ctx, dbConfig)
	if err != nil {
		return nil, nil, err
	}
	store := ranking.NewPostgresStore(database)
	if err := store.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}
	return store, func() { database.Close() }, nil
}
