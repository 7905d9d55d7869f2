package weather

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/observability/metrics"
)

// FailureKind classifies why a location failed to ingest.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureFetch      FailureKind = "fetch"
	FailureDataFormat FailureKind = "data_format"
	FailureDatabase   FailureKind = "database"
)

// LocationResult is the outcome of ingesting one location.
type LocationResult struct {
	LocationID int
	City       string
	Country    string
	// Rows is the number of rows appended by this run.
	Rows int
	// TotalRows is the number of rows stored for the location once the
	// location was processed, whether or not it failed. It is zero when
	// the count could not be read.
	TotalRows int64
	Err       error
	Failure   FailureKind
}

// OK reports whether the location was ingested.
func (r LocationResult) OK() bool { return r.Err == nil }

// IngestSummary reports a complete ingestion run.
type IngestSummary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	// Results are in registry order.
	Results []LocationResult
}

// ByLocation indexes the results by location id.
func (s *IngestSummary) ByLocation() map[int]LocationResult {
	out := make(map[int]LocationResult, len(s.Results))
	for _, r := range s.Results {
		out[r.LocationID] = r
	}
	return out
}

// Succeeded returns the number of locations ingested without error.
func (s *IngestSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the results of the locations that failed.
func (s *IngestSummary) Failed() []LocationResult {
	var failed []LocationResult
	for _, r := range s.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Ingest fetches, normalizes and stores the forecast for one location and
// returns the number of rows written. Nothing is written unless the whole
// payload parses.
func (s *Service) Ingest(ctx context.Context, loc datastore.Location) (int, error) {
	logger := s.logger.With("location_id", loc.ID, "city", loc.City)

	fetchStart := time.Now()
	body, status, err := s.fetcher.FetchForecast(ctx, loc.ID)
	if err != nil {
		s.recordFetch(metrics.StatusError, fetchStart)
		return 0, errors.New(fmt.Errorf("%w: %w", ErrFetchFailed, err)).
			Component(componentName).
			Category(errors.CategoryNetwork).
			Context("operation", "fetch_forecast").
			Location(loc.ID).
			Build()
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		s.recordFetch(metrics.StatusError, fetchStart)
		return 0, errors.New(fmt.Errorf("%w: status code %d", ErrFetchFailed, status)).
			Component(componentName).
			Category(errors.CategoryNetwork).
			Context("operation", "fetch_forecast").
			Location(loc.ID).
			Context("status_code", status).
			Build()
	}
	s.recordFetch(metrics.StatusSuccess, fetchStart)

	payload, err := ParseForecastPayload(body)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordWeatherDataFormatError(formatErrorField(err))
		}
		return 0, err
	}

	if payload.CityID != loc.ID {
		logger.Warn("payload city id differs from requested location",
			"payload_city_id", payload.CityID,
			"payload_city", payload.Label())
	}

	rows := payload.Rows(loc.ID)

	storeStart := time.Now()
	err = s.db.AppendForecasts(loc.ID, rows)
	s.recordDb(metrics.OpAppendForecasts, err, storeStart)
	if err != nil {
		return 0, err
	}

	logger.Debug("forecasts stored", "rows", len(rows))
	return len(rows), nil
}

// IngestAll ingests every tracked location in registry order. A failing
// location is recorded in the summary and does not stop the run. Only one
// run may be active per Service; a concurrent call fails with
// ErrIngestInProgress.
func (s *Service) IngestAll(ctx context.Context) (*IngestSummary, error) {
	if !s.ingestMu.TryLock() {
		return nil, errors.New(ErrIngestInProgress).
			Component(componentName).
			Category(errors.CategoryConflict).
			Context("operation", "ingest_all").
			Build()
	}
	defer s.ingestMu.Unlock()

	summary := &IngestSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := s.logger.With("run_id", summary.RunID)

	listStart := time.Now()
	locations, err := s.db.ListTrackedLocations()
	s.recordDb(metrics.OpListLocations, err, listStart)
	if err != nil {
		summary.Duration = time.Since(summary.StartedAt)
		s.recordRun(metrics.StatusError, summary)
		return nil, err
	}

	logger.Info("ingestion started", "locations", len(locations))

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(summary.StartedAt)
			logger.Warn("ingestion cancelled",
				"processed", len(summary.Results),
				"remaining", len(locations)-len(summary.Results))
			s.recordRun(metrics.StatusPartial, summary)
			return summary, err
		}

		result := s.ingestLocation(ctx, loc)
		summary.Results = append(summary.Results, result)
	}

	summary.Duration = time.Since(summary.StartedAt)

	status := metrics.StatusSuccess
	switch failed := len(summary.Failed()); {
	case failed == 0:
	case failed == len(summary.Results):
		status = metrics.StatusError
	default:
		status = metrics.StatusPartial
	}
	s.recordRun(status, summary)

	logger.Info("ingestion finished",
		"succeeded", summary.Succeeded(),
		"failed", len(summary.Results)-summary.Succeeded(),
		"duration_ms", summary.Duration.Milliseconds())

	return summary, nil
}

// ingestLocation runs Ingest for one location and records the outcome.
func (s *Service) ingestLocation(ctx context.Context, loc datastore.Location) LocationResult {
	result := LocationResult{
		LocationID: loc.ID,
		City:       loc.City,
		Country:    loc.Country,
	}

	rows, err := s.Ingest(ctx, loc)
	if err != nil {
		result.Err = err
		result.Failure = classifyFailure(err)
		s.logger.Error("location ingestion failed",
			"location_id", loc.ID,
			"city", loc.City,
			"failure", string(result.Failure),
			"error", err)
		if s.metrics != nil {
			s.metrics.RecordWeatherLocationIngest(metrics.StatusError, 0)
		}
	} else {
		result.Rows = rows
		if s.metrics != nil {
			s.metrics.RecordWeatherLocationIngest(metrics.StatusSuccess, rows)
		}
	}

	result.TotalRows = s.countStored(loc.ID)
	return result
}

// countStored returns the number of rows stored for a location, or zero
// when the count fails.
func (s *Service) countStored(locationID int) int64 {
	countStart := time.Now()
	total, err := s.db.CountForecasts(locationID)
	s.recordDb(metrics.OpCountForecasts, err, countStart)
	if err != nil {
		// the total is informational
		s.logger.Warn("could not count stored forecasts", "location_id", locationID, "error", err)
		return 0
	}
	if s.metrics != nil {
		s.metrics.UpdateStoredForecasts(locationID, total)
	}
	return total
}

// classifyFailure maps an Ingest error to its failure kind.
func classifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, ErrFetchFailed):
		return FailureFetch
	case errors.Is(err, ErrDataFormat):
		return FailureDataFormat
	default:
		return FailureDatabase
	}
}

// formatErrorField returns the payload field named by a data format error.
func formatErrorField(err error) string {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		if field, ok := enhanced.GetContext()["field"].(string); ok && field != "" {
			return field
		}
	}
	return "document"
}

func (s *Service) recordFetch(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordWeatherFetch(status, time.Since(start).Seconds())
	}
}

func (s *Service) recordDb(operation string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	s.metrics.RecordWeatherDbOperation(operation, status, time.Since(start).Seconds())
}

func (s *Service) recordRun(status string, summary *IngestSummary) {
	if s.metrics != nil {
		s.metrics.RecordWeatherIngestRun(status, summary.Duration.Seconds(), summary.StartedAt.Add(summary.Duration).Unix())
	}
}
