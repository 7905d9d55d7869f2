// interfaces.go: this code defines the interface for the forecast store
package datastore

import (
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/logging"
)

// DefaultSlowQueryThreshold defines the duration after which a query is logged as slow.
const DefaultSlowQueryThreshold = 1 * time.Second

// ErrLocationNotFound is returned when a location id is not in the registry.
var ErrLocationNotFound = errors.NewStd("location not found")

// Interface abstracts the forecast store used by the ingestion pipeline,
// the selection query and the API.
type Interface interface {
	Open() error
	Close() error
	// Reset drops and recreates all tables and seeds the given locations.
	Reset(locations []Location) error
	SaveLocations(locations []Location) error
	ListLocations() ([]Location, error)
	ListTrackedLocations() ([]Location, error)
	GetLocation(id int) (*Location, error)
	// AppendForecasts stores rows for an existing location in one transaction.
	AppendForecasts(locationID int, rows []Forecast) error
	// ScanForecasts returns a location's rows by ascending epoch, ties by insertion order.
	ScanForecasts(locationID int) ([]Forecast, error)
	CountForecasts(locationID int) (int64, error)
}

// DataStore implements Interface on top of a gorm connection; the
// backend-specific stores embed it and provide Open.
type DataStore struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// New creates a new DataStore instance based on the provided configuration context.
func New(settings *conf.Settings) Interface {
	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		return &MySQLStore{Settings: settings}
	default:
		return &SQLiteStore{Settings: settings}
	}
}

// migrate creates missing tables and indexes.
func (ds *DataStore) migrate() error {
	if err := ds.DB.AutoMigrate(&Location{}, &Forecast{}); err != nil {
		return dbError(err, "auto_migrate").Build()
	}
	return nil
}

// ready reports an error when the connection has not been opened.
func (ds *DataStore) ready(operation string) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", operation).
			Build()
	}
	return nil
}

// Close closes the underlying database connection.
func (ds *DataStore) Close() error {
	if err := ds.ready("close"); err != nil {
		return err
	}

	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close").Build()
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close").Build()
	}

	ds.log().Debug("database connection closed")
	return nil
}

// Reset drops both tables, recreates them and seeds the registry.
func (ds *DataStore) Reset(locations []Location) error {
	if err := ds.ready("reset"); err != nil {
		return err
	}

	// forecasts reference locations, drop it first
	if err := ds.DB.Migrator().DropTable(&Forecast{}, &Location{}); err != nil {
		return dbError(err, "drop_tables").Build()
	}
	if err := ds.migrate(); err != nil {
		return err
	}

	ds.log().Info("forecast store reset", "locations", len(locations))
	return ds.SaveLocations(locations)
}

// SaveLocations inserts or updates registry entries by id.
func (ds *DataStore) SaveLocations(locations []Location) error {
	if err := ds.ready("save_locations"); err != nil {
		return err
	}
	if len(locations) == 0 {
		return nil
	}

	err := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"city", "country", "tracked"}),
	}).Create(&locations).Error
	if err != nil {
		return dbError(err, "save_locations").Context("count", len(locations)).Build()
	}
	return nil
}

// ListLocations returns every registry entry ordered by id.
func (ds *DataStore) ListLocations() ([]Location, error) {
	if err := ds.ready("list_locations"); err != nil {
		return nil, err
	}

	var locations []Location
	if err := ds.DB.Order("id").Find(&locations).Error; err != nil {
		return nil, dbError(err, "list_locations").Build()
	}
	return locations, nil
}

// ListTrackedLocations returns the tracked registry entries ordered by id.
func (ds *DataStore) ListTrackedLocations() ([]Location, error) {
	if err := ds.ready("list_tracked_locations"); err != nil {
		return nil, err
	}

	var locations []Location
	if err := ds.DB.Where("tracked = ?", true).Order("id").Find(&locations).Error; err != nil {
		return nil, dbError(err, "list_tracked_locations").Build()
	}
	return locations, nil
}

// GetLocation returns a registry entry by id.
func (ds *DataStore) GetLocation(id int) (*Location, error) {
	if err := ds.ready("get_location"); err != nil {
		return nil, err
	}

	var location Location
	if err := ds.DB.Where("id = ?", id).Take(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError(id, "get_location")
		}
		return nil, dbError(err, "get_location").Location(id).Build()
	}
	return &location, nil
}

// AppendForecasts stores rows for a location in a single transaction. The
// location must exist in the registry; otherwise nothing is written.
func (ds *DataStore) AppendForecasts(locationID int, rows []Forecast) error {
	if err := ds.ready("append_forecasts"); err != nil {
		return err
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Location{}).Where("id = ?", locationID).Count(&count).Error; err != nil {
			return dbError(err, "append_forecasts").Location(locationID).Build()
		}
		if count == 0 {
			return notFoundError(locationID, "append_forecasts")
		}
		if len(rows) == 0 {
			return nil
		}

		for i := range rows {
			rows[i].ID = 0
			rows[i].LocationID = locationID
		}
		if err := tx.Create(&rows).Error; err != nil {
			return dbError(err, "append_forecasts").Location(locationID).Context("rows", len(rows)).Build()
		}
		return nil
	})
}

// ScanForecasts returns all rows for a location ordered by epoch and then
// insertion order.
func (ds *DataStore) ScanForecasts(locationID int) ([]Forecast, error) {
	if err := ds.ready("scan_forecasts"); err != nil {
		return nil, err
	}

	var rows []Forecast
	if err := ds.DB.Where("location_id = ?", locationID).Order("epoch, id").Find(&rows).Error; err != nil {
		return nil, dbError(err, "scan_forecasts").Location(locationID).Build()
	}
	return rows, nil
}

// CountForecasts returns the number of stored rows for a location.
func (ds *DataStore) CountForecasts(locationID int) (int64, error) {
	if err := ds.ready("count_forecasts"); err != nil {
		return 0, err
	}

	var count int64
	if err := ds.DB.Model(&Forecast{}).Where("location_id = ?", locationID).Count(&count).Error; err != nil {
		return 0, dbError(err, "count_forecasts").Location(locationID).Build()
	}
	return count, nil
}

// log returns the store logger, resolving the service logger lazily.
func (ds *DataStore) log() *slog.Logger {
	if ds.logger == nil {
		ds.logger = logging.ForService("datastore")
	}
	return ds.logger
}

// gormConfig returns the gorm configuration shared by all backends.
func (ds *DataStore) gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logging.NewGormLogger(ds.log(), DefaultSlowQueryThreshold),
	}
}
