// Package metrics provides constants used across metric definitions.
package metrics

// Operation label values for forecast store operations.
const (
	// OpAppendForecasts represents a forecast batch insert.
	OpAppendForecasts = "append_forecasts"
	// OpScanForecasts represents a per-location forecast scan.
	OpScanForecasts = "scan_forecasts"
	// OpCountForecasts represents a per-location row count.
	OpCountForecasts = "count_forecasts"
	// OpListLocations represents a registry listing.
	OpListLocations = "list_locations"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	// StatusPartial marks an ingestion run where some locations failed.
	StatusPartial = "partial"
	// StatusFallback marks a selection that fell back to the latest past forecast.
	StatusFallback = "fallback"
	// StatusUpcoming marks a selection of the next future forecast.
	StatusUpcoming = "upcoming"
	// StatusEmpty marks a selection with no stored forecasts.
	StatusEmpty = "empty"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketStart1s is the starting bucket for 1s histograms (1s to ~9 hours range).
	BucketStart1s = 1.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
)
