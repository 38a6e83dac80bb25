package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/blissify/internal/shared"
)

// SetupDatabase creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	path, err := r.config.DatabasePath()
	if err != nil {
		return err
	}
	r.logger.Info("initializing database", "path", path)

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	songs, err := st.songs.Count(ctx)
	if err != nil {
		return err
	}
	pairs, err := st.cache.Count(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", path)
	r.writePlain("✓ Database ready: %s\n", path)
	r.writePlain("  Songs: %d\n", songs)
	r.writePlain("  Cached pairs: %d (%s)\n", pairs, r.config.Cache.Backend)
	if songs == 0 {
		r.writePlainln("Next step: run 'blissify songs import <analysis.json>'")
	}
	return nil
}

// SetupPurge empties the fingerprint store, the sqlite pair cache and the analysis errors.
func (r *Runner) SetupPurge(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("force") {
		return fmt.Errorf("%w: purge deletes every song and cached distance, pass --force to confirm", shared.ErrMissingArgument)
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := shared.PurgeDatabase(st.db); err != nil {
		return err
	}
	if r.config.Cache.Backend == shared.BackendBadger {
		r.logger.Warn("badger pair cache is not purged, remove its directory to reset it", "dir", r.config.Cache.BadgerDir)
	}

	r.logger.Info("database purged")
	r.writePlain("✓ Songs, distances and errors deleted\n")
	return nil
}

// SetupRollback reverts the most recent migration. Any later command applies it again.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	path, err := r.config.DatabasePath()
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}

	r.logger.Warn("rolled back the most recent migration", "path", path)
	r.writePlain("✓ Rolled back the most recent migration\n")
	return nil
}
