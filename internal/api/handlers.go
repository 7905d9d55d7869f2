package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/wtracker/internal/datastore"
	"github.com/tphakala/wtracker/internal/errors"
	"github.com/tphakala/wtracker/internal/weather"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// CurrentForecastsResponse lists the current forecast per city. Cities
// without stored forecasts are listed in Missing.
type CurrentForecastsResponse struct {
	Forecasts map[string]datastore.Forecast `json:"forecasts"`
	Missing   []string                      `json:"missing,omitempty"`
}

// IngestResultResponse is one location in an ingestion run.
type IngestResultResponse struct {
	LocationID int    `json:"location_id"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Rows       int    `json:"rows"`
	TotalRows  int64  `json:"total_rows"`
	Failure    string `json:"failure,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IngestResponse summarizes an ingestion run.
type IngestResponse struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	DurationMs int64                  `json:"duration_ms"`
	Succeeded  int                    `json:"succeeded"`
	Failed     int                    `json:"failed"`
	Results    []IngestResultResponse `json:"results"`
}

// listLocations handles GET /api/v1/locations.
func (s *Server) listLocations(c echo.Context) error {
	locations, err := s.dataStore.ListLocations()
	if err != nil {
		return s.handleError(c, err, "failed to list locations")
	}
	return c.JSON(http.StatusOK, locations)
}

// listForecasts handles GET /api/v1/locations/:id/forecasts.
func (s *Server) listForecasts(c echo.Context) error {
	loc, err := s.locationParam(c)
	if err != nil {
		return s.handleError(c, err, "location lookup failed")
	}

	rows, err := s.dataStore.ScanForecasts(loc.ID)
	if err != nil {
		return s.handleError(c, err, "failed to load forecasts")
	}
	return c.JSON(http.StatusOK, rows)
}

// currentForecast handles GET /api/v1/locations/:id/forecast/current.
func (s *Server) currentForecast(c echo.Context) error {
	loc, err := s.locationParam(c)
	if err != nil {
		return s.handleError(c, err, "location lookup failed")
	}

	key := "current:" + strconv.Itoa(loc.ID)
	if cached, ok := s.selectionCache.Get(key); ok {
		return c.JSON(http.StatusOK, cached)
	}

	forecast, err := s.weather.CurrentForecast(*loc)
	if err != nil {
		return s.handleError(c, err, "no current forecast")
	}
	s.selectionCache.SetDefault(key, forecast)
	return c.JSON(http.StatusOK, forecast)
}

// currentForecasts handles GET /api/v1/forecasts/current.
func (s *Server) currentForecasts(c echo.Context) error {
	if cached, ok := s.selectionCache.Get("current"); ok {
		return c.JSON(http.StatusOK, cached)
	}

	current, err := s.weather.CurrentForecasts()
	if current == nil {
		return s.handleError(c, err, "failed to select current forecasts")
	}

	missing, failed := weather.SplitSelectionErrors(err)
	if failed != nil {
		return s.handleError(c, failed, "failed to select current forecasts")
	}

	resp := CurrentForecastsResponse{Forecasts: current}
	if len(missing) > 0 {
		locations, listErr := s.dataStore.ListTrackedLocations()
		if listErr != nil {
			return s.handleError(c, listErr, "failed to list locations")
		}
		for _, loc := range locations {
			if missing[loc.ID] {
				resp.Missing = append(resp.Missing, loc.City)
			}
		}
	}
	s.selectionCache.SetDefault("current", resp)
	return c.JSON(http.StatusOK, resp)
}

// triggerIngest handles POST /api/v1/ingest.
func (s *Server) triggerIngest(c echo.Context) error {
	summary, err := s.weather.IngestAll(c.Request().Context())
	if summary != nil {
		s.selectionCache.Flush()
	}
	if err != nil {
		return s.handleError(c, err, "ingestion failed")
	}
	return c.JSON(http.StatusOK, newIngestResponse(summary))
}

func newIngestResponse(summary *weather.IngestSummary) IngestResponse {
	resp := IngestResponse{
		RunID:      summary.RunID,
		StartedAt:  summary.StartedAt,
		DurationMs: summary.Duration.Milliseconds(),
		Succeeded:  summary.Succeeded(),
		Failed:     len(summary.Failed()),
		Results:    make([]IngestResultResponse, 0, len(summary.Results)),
	}
	for _, r := range summary.Results {
		item := IngestResultResponse{
			LocationID: r.LocationID,
			City:       r.City,
			Country:    r.Country,
			Rows:       r.Rows,
			TotalRows:  r.TotalRows,
			Failure:    string(r.Failure),
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// locationParam resolves the :id path parameter to a registry entry.
func (s *Server) locationParam(c echo.Context) (*datastore.Location, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return nil, errors.Newf("invalid location id %q", c.Param("id")).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return s.dataStore.GetLocation(id)
}

// handleError logs err and writes an ErrorResponse with a status derived
// from the error category.
func (s *Server) handleError(c echo.Context, err error, message string) error {
	code := statusForError(err)
	resp := ErrorResponse{
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Error = message
	}

	level := slog.LevelWarn
	if code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.slogger.Log(c.Request().Context(), level, "API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", resp.Error,
		"code", code,
		"path", c.Request().URL.Path,
		"method", c.Request().Method)

	return c.JSON(code, resp)
}

// statusForError maps error categories to HTTP status codes.
func statusForError(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	switch errors.CategoryOf(err) {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
