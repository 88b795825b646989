// ABOUTME: Shared command setup: configuration, logging, storage, and the pipeline
// ABOUTME: Every subcommand opens one runtime and closes it when done
package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/charm"
	"github.com/harperreed/meetingmate/config"
	"github.com/harperreed/meetingmate/db"
	"github.com/harperreed/meetingmate/logging"
	"github.com/harperreed/meetingmate/pipeline"
	"github.com/jmoiron/sqlx"
	urfave "github.com/urfave/cli/v2"
)

type runtime struct {
	cfg      *config.Config
	logger   *log.Logger
	db       *sqlx.DB
	store    auth.CredentialStore
	sentLog  *db.ReminderLog
	pipeline *pipeline.Orchestrator
}

// OpenStore returns the credential backend selected by cfg.TokenStore.
// database is only used by the sqlite backend.
func OpenStore(cfg *config.Config, database *sqlx.DB) (auth.CredentialStore, error) {
	switch cfg.TokenStore {
	case config.StoreFile:
		return auth.NewFileStore(cfg.TokenPath), nil
	case config.StoreSQLite:
		if database == nil {
			return nil, fmt.Errorf("sqlite token store needs an open database")
		}
		return auth.NewSQLiteStore(database), nil
	case config.StoreCharm:
		c, err := charm.Open(charm.ConfigFrom(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open charm store: %w", err)
		}
		return charm.NewStore(c), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}

func loadConfig(c *urfave.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("db-path") {
		cfg.DBPath = c.String("db-path")
	}
	return cfg, nil
}

func openRuntime(c *urfave.Context) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireOAuth(); err != nil {
		return nil, err
	}

	logger := logging.Setup(cfg.LogLevel)

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := OpenStore(cfg, database)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	sentLog := db.NewReminderLog(database)
	p, err := pipeline.Build(cfg, store, sentLog, logger)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Debug("Runtime ready", "db", cfg.DBPath, "token_store", cfg.TokenStore)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		db:       database,
		store:    store,
		sentLog:  sentLog,
		pipeline: p,
	}, nil
}

func (r *runtime) Close() {
	if err := r.db.Close(); err != nil {
		r.logger.Warn("Failed to close database", "error", err)
	}
}
