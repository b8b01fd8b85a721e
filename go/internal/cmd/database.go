package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-ledger/go/internal/dbconfig"
	"github.com/mcdev12/dynasty-ledger/go/internal/store/postgres"
)

func setupDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	dbConfig, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}

	pool, err := postgres.Connect(ctx, dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Str("database", dbConfig.Redacted()).Msg("connected to database")
	return pool, nil
}
