package datastore

import (
	"fmt"
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/logging"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	mc := settings.Database.MySQL
	if mc.Host == "" || mc.Database == "" || mc.Username == "" {
		return errors.Newf("mysql host, database and username are required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("operation", "open").
			Build()
	}
	return nil
}

// mysqlDSNConfig builds the driver configuration from settings.
func mysqlDSNConfig(settings conf.MySQLSettings) *mysqldriver.Config {
	cfg := mysqldriver.NewConfig()
	cfg.User = settings.Username
	cfg.Passwd = settings.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(settings.Host, settings.Port)
	cfg.DBName = settings.Database
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg
}

// Open sets up the MySQL database connection and creates missing tables.
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}
	store.logger = logging.ForService("datastore").With("db_type", "mysql")

	cfg := mysqlDSNConfig(store.Settings.Database.MySQL)
	db, err := gorm.Open(mysql.Open(cfg.FormatDSN()), store.gormConfig())
	if err != nil {
		store.log().Error("Failed to open MySQL database",
			"host", store.Settings.Database.MySQL.Host,
			"port", store.Settings.Database.MySQL.Port,
			"database", store.Settings.Database.MySQL.Database,
			"error", err)
		return dbError(fmt.Errorf("failed to open MySQL database: %w", err), "open").
			Context("host", cfg.Addr).
			Context("database", cfg.DBName).
			Build()
	}

	store.DB = db
	if err := store.migrate(); err != nil {
		return err
	}

	store.log().Debug("MySQL database opened", "addr", cfg.Addr, "database", cfg.DBName)
	return nil
}
