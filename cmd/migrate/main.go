// ABOUTME: Migration utility for moving the stored credential between token store backends.
// ABOUTME: Provides dry-run and backup capabilities for safe credential migration.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harperreed/meetingmate/auth"
	"github.com/harperreed/meetingmate/cli"
	"github.com/harperreed/meetingmate/config"
	"github.com/harperreed/meetingmate/db"
	"github.com/jmoiron/sqlx"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML config file")
	from := flag.String("from", config.StoreFile, "Source token store (file, sqlite, charm)")
	to := flag.String("to", config.StoreSQLite, "Destination token store (file, sqlite, charm)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Back up an existing token file before overwriting it")
	flag.Parse()

	if *from == *to {
		log.Fatal("Error: -from and -to must differ")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var database *sqlx.DB
	if *from == config.StoreSQLite || *to == config.StoreSQLite {
		database, err = db.OpenDatabase(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer func() { _ = database.Close() }()
	}

	src, err := openStore(cfg, *from, database)
	if err != nil {
		log.Fatalf("Failed to open source store: %v", err)
	}
	dst, err := openStore(cfg, *to, database)
	if err != nil {
		log.Fatalf("Failed to open destination store: %v", err)
	}

	if *backup && !*dryRun && *to == config.StoreFile {
		if err := backupFile(cfg.TokenPath); err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
	}

	if err := migrate(context.Background(), src, dst, *dryRun); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func openStore(cfg *config.Config, kind string, database *sqlx.DB) (auth.CredentialStore, error) {
	c := *cfg
	c.TokenStore = kind
	return cli.OpenStore(&c, database)
}

// migrate copies the credential from src to dst.
func migrate(ctx context.Context, src, dst auth.CredentialStore, dryRun bool) error {
	cred, err := src.Load(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return fmt.Errorf("source store has no credential")
	}
	if err != nil {
		return fmt.Errorf("failed to read source credential: %w", err)
	}

	if existing, err := dst.Load(ctx); err == nil {
		log.Printf("Destination already holds a credential (expires %s); it will be replaced", existing.Expiry.Format(time.RFC3339))
	} else if !errors.Is(err, auth.ErrNotAuthenticated) {
		return fmt.Errorf("failed to read destination credential: %w", err)
	}

	if dryRun {
		log.Printf("[DRY RUN] Would copy credential (refresh token present: %v)", cred.RefreshToken != "")
		return nil
	}

	if err := dst.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to write destination credential: %w", err)
	}
	return nil
}

func backupFile(path string) error {
	input, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)
	if err := os.WriteFile(backupPath, input, 0600); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	return nil
}
