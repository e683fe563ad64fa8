package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/blob"
	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/frost"
	"github.com/mathusivas/Traffic-vs-weather/internal/config"
	"github.com/mathusivas/Traffic-vs-weather/internal/domain"
	"github.com/mathusivas/Traffic-vs-weather/internal/observability"
)

// interPointDelay throttles precipitation lookups within one day.
const interPointDelay = 20 * time.Millisecond

// Rain looks up nearest-station daily precipitation for every point over the
// backfill range and writes one partition per day. The stage is optional
// infrastructure: without a Frost credential it does nothing at all.
type Rain struct {
	api     WeatherAPI
	store   BlobStore
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewRain(api WeatherAPI, store BlobStore, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Rain {
	return &Rain{api: api, store: store, cfg: cfg, logger: logger, metrics: metrics}
}

// Enabled reports whether the stage will perform any work.
func (r *Rain) Enabled() bool {
	return r.cfg.RainEnabled()
}

// Run writes one rain partition per day in [backfill-start, today]. An auth
// failure aborts the stage; every other per-point failure degrades to a null
// value. fallback is the volume stage's handoff payload, used when the
// points table cannot be read from storage.
func (r *Rain) Run(ctx context.Context, pointsDir, fallback string) error {
	if !r.Enabled() {
		r.logger.Info("rain stage skipped: FROST_CLIENT_ID not set")
		return nil
	}

	points := r.loadPoints(ctx, pointsDir, fallback)
	if len(points) == 0 {
		r.logger.Warn("no points with id and coordinates available, stopping rain stage")
		return nil
	}
	if len(points) > r.cfg.MaxPoints {
		points = points[:r.cfg.MaxPoints]
	}

	days := domain.DatesBetween(r.cfg.BackfillStart.Time, domain.Today())
	r.logger.Info("fetching precipitation", "points", len(points), "days", len(days))

	for _, day := range days {
		rows, err := r.fetchDay(ctx, points, day)
		if err != nil {
			return err
		}

		path := domain.PartitionPath(day, domain.BaseRain) + "/" + domain.RainFile
		if err := blob.WriteTable(ctx, r.store, path, rows); err != nil {
			return fmt.Errorf("write rain partition: %w", err)
		}
		r.metrics.PartitionWrites.WithLabelValues("rain").Inc()
		r.logger.Info("rain partition written", "date", day.Format(domain.DateLayout), "rows", len(rows))
	}
	return nil
}

// fetchDay collects one row per point for a single calendar day.
func (r *Rain) fetchDay(ctx context.Context, points []domain.SlimPoint, day time.Time) ([]domain.RainRow, error) {
	date := day.Format(domain.DateLayout)
	rows := make([]domain.RainRow, 0, len(points))

	for _, pt := range points {
		mm, err := r.api.DailyPrecipitation(ctx, pt.Lat, pt.Lon, day)
		switch {
		case errors.Is(err, frost.ErrUnauthorized):
			return nil, fmt.Errorf("precipitation lookup for %s on %s: %w", pt.ID, date, err)
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("precipitation lookup failed", "point_id", pt.ID, "date", date, "error", err)
			r.metrics.RainQueries.WithLabelValues("error").Inc()
			mm = nil
		case mm == nil:
			r.metrics.RainQueries.WithLabelValues("empty").Inc()
		default:
			r.metrics.RainQueries.WithLabelValues("success").Inc()
		}

		rows = append(rows, domain.RainRow{PointID: pt.ID, Date: date, PrecipMM: mm})
		if !sleepWithContext(ctx, interPointDelay) {
			return nil, ctx.Err()
		}
	}
	return rows, nil
}

// loadPoints reads the authoritative point table, falling back to the
// handoff payload when the storage read fails. Either source may turn out
// empty; the caller stops without writing in that case.
func (r *Rain) loadPoints(ctx context.Context, pointsDir, fallback string) []domain.SlimPoint {
	path := pointsDir + "/" + domain.PointsFile
	rows, err := blob.ReadTable[domain.Point](ctx, r.store, path)
	if err == nil {
		points := make([]domain.SlimPoint, 0, len(rows))
		for _, row := range rows {
			if row.ID == "" {
				continue
			}
			points = append(points, row.Slim())
		}
		return points
	}

	r.logger.Warn("points table unavailable, using handoff payload", "path", path, "error", err)
	points, err := domain.DecodeSlimPoints(fallback)
	if err != nil {
		r.logger.Warn("handoff payload unusable", "error", err)
		return nil
	}
	return points
}
