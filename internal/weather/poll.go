package weather

import (
	"context"
	"time"

	"github.com/tphakala/wtracker/internal/errors"
)

// StartPolling runs IngestAll immediately and then every Poll.Interval
// minutes until ctx is done. Failed runs are logged and retried on the next
// tick only.
func (s *Service) StartPolling(ctx context.Context) {
	interval := time.Duration(s.settings.Poll.Interval) * time.Minute
	s.pollEvery(ctx, interval)
}

func (s *Service) pollEvery(ctx context.Context, interval time.Duration) {
	s.logger.Info("starting forecast polling", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping forecast polling")
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	summary, err := s.IngestAll(ctx)
	switch {
	case errors.Is(err, ErrIngestInProgress):
		s.logger.Warn("skipping scheduled ingestion, previous run still active")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Debug("scheduled ingestion interrupted", "error", err)
	case err != nil:
		s.logger.Error("scheduled ingestion failed", "error", err)
	default:
		s.logger.Info("scheduled ingestion completed",
			"run_id", summary.RunID,
			"succeeded", summary.Succeeded(),
			"failed", len(summary.Failed()))
	}
}
