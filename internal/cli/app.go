package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/mind-engage/mindengage-interview/internal/config"
	"github.com/mind-engage/mindengage-interview/internal/db"
	"github.com/mind-engage/mindengage-interview/internal/logging"
)

// loadConfig reads .env (when present) before the environment.
func loadConfig() config.Config {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	return cfg
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	h, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	return h, nil
}
