package datastore

import (
	"fmt"

	"github.com/tphakala/wtracker/internal/errors"
)

const componentName = "datastore"

// dbError starts a database category error for a failed store operation.
// Callers add location or connection context and Build it.
func dbError(err error, operation string) *errors.ErrorBuilder {
	return errors.New(err).
		Component(componentName).
		Category(errors.CategoryDatabase).
		Context("operation", operation)
}

// notFoundError reports a location id that is not in the registry.
func notFoundError(locationID int, operation string) error {
	return errors.New(fmt.Errorf("%w: %d", ErrLocationNotFound, locationID)).
		Component(componentName).
		Category(errors.CategoryNotFound).
		Context("operation", operation).
		Location(locationID).
		Build()
}
