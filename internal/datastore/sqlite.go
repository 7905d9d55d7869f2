package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/logging"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Database.SQLite.Path == "" {
		return errors.Newf("sqlite database path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("operation", "open").
			Build()
	}
	return nil
}

// Open sets up the SQLite database connection and creates missing tables.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}
	store.logger = logging.ForService("datastore").With("db_type", "sqlite")

	path := store.Settings.Database.SQLite.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(fmt.Errorf("failed to create database directory %s: %w", dir, err)).
				Component(componentName).
				Category(errors.CategoryFileIO).
				Context("operation", "open").
				Build()
		}
	}

	// foreign keys and a busy timeout for the API reading while the poller writes
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), store.gormConfig())
	if err != nil {
		return dbError(fmt.Errorf("failed to open SQLite database: %w", err), "open").
			Context("path", path).
			Build()
	}

	store.DB = db
	if err := store.migrate(); err != nil {
		return err
	}

	store.log().Debug("SQLite database opened", "path", path)
	return nil
}
