package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/blob"
	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/trafikk"
	"github.com/mathusivas/Traffic-vs-weather/internal/config"
	"github.com/mathusivas/Traffic-vs-weather/internal/domain"
	"github.com/mathusivas/Traffic-vs-weather/internal/observability"
)

// utcLayout renders normalized day-bucket timestamps.
const utcLayout = "2006-01-02T15:04:05Z"

// Volumes fetches day-by-day traffic volume for every known point over the
// resolved window and writes one partition per observation date.
type Volumes struct {
	api     TrafficAPI
	store   BlobStore
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewVolumes(api TrafficAPI, store BlobStore, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Volumes {
	return &Volumes{api: api, store: store, cfg: cfg, logger: logger, metrics: metrics}
}

// Run reads the points partition, queries volumes point by point, and
// returns the slim JSON handoff payload for the rain stage. A missing or
// unusable point table is fatal; a point that fails individually is logged
// and skipped.
func (v *Volumes) Run(ctx context.Context, pointsDir string) (string, error) {
	pointsPath := pointsDir + "/" + domain.PointsFile
	points, err := blob.ReadTable[domain.Point](ctx, v.store, pointsPath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return "", &PreconditionError{
				Stage:  "volumes",
				Path:   pointsPath,
				Reason: "points table not found, run the points stage first",
			}
		}
		return "", fmt.Errorf("read points table: %w", err)
	}

	ids := dedupeIDs(points)
	if len(ids) == 0 {
		return "", &PreconditionError{
			Stage:  "volumes",
			Path:   pointsPath,
			Reason: "points table has no usable ids",
		}
	}
	if len(ids) > v.cfg.MaxPoints {
		ids = ids[:v.cfg.MaxPoints]
	}

	from, to := v.window(domain.Today())
	v.logger.Info("fetching volumes", "points", len(ids), "from", from, "to", to)

	rows := v.fetchAll(ctx, ids, from, to)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if len(rows) == 0 {
		v.logger.Info("no volumes fetched")
		return "[]", nil
	}

	if err := v.writePartitions(ctx, groupByFromDate(rows)); err != nil {
		return "", err
	}
	return domain.EncodeSlimPoints(points)
}

// window resolves the query window: an explicit override wins verbatim,
// otherwise the backfill start at 00:00 through today at 23:59, both in the
// configured UTC offset.
func (v *Volumes) window(today time.Time) (string, string) {
	if v.cfg.VolumeFrom != "" && v.cfg.VolumeTo != "" {
		return v.cfg.VolumeFrom, v.cfg.VolumeTo
	}
	from := v.cfg.BackfillStart.Format(domain.DateLayout) + "T00:00:00" + v.cfg.TimeOffset
	to := today.Format(domain.DateLayout) + "T23:59:59" + v.cfg.TimeOffset
	return from, to
}

// fetchAll queries each point sequentially with a fixed pause in between;
// the upstream API enforces per-client limits, so no parallel fan-out.
func (v *Volumes) fetchAll(ctx context.Context, ids []string, from, to string) []domain.VolumeRow {
	var rows []domain.VolumeRow
	for i, id := range ids {
		buckets, err := v.api.VolumesByDay(ctx, id, from, to)
		switch {
		case err == nil:
			for _, b := range buckets {
				rows = append(rows, v.normalize(id, b))
			}
			v.metrics.VolumeQueries.WithLabelValues("success").Inc()
		case isQueryError(err):
			v.logger.Warn("volume query returned errors, skipping point", "point_id", id, "error", err)
			v.metrics.VolumeQueries.WithLabelValues("skipped").Inc()
		default:
			if ctx.Err() != nil {
				return rows
			}
			v.logger.Warn("volume fetch failed, skipping point", "point_id", id, "error", err)
			v.metrics.VolumeQueries.WithLabelValues("error").Inc()
		}

		if (i+1)%20 == 0 {
			v.logger.Info("volume fetch progress", "done", i+1, "total", len(ids))
		}
		if !sleepWithContext(ctx, v.cfg.SleepBetweenPoints()) {
			return rows
		}
	}
	return rows
}

// normalize converts a day-bucket to a row with UTC timestamps. An
// unparsable from leaves the raw string in place; such rows fall out later
// because their date cannot be derived.
func (v *Volumes) normalize(pointID string, b trafikk.DayBucket) domain.VolumeRow {
	row := domain.VolumeRow{
		PointID:     pointID,
		From:        b.From,
		To:          b.To,
		TotalVolume: b.Volume(),
	}
	if t, err := time.Parse(time.RFC3339, b.From); err == nil {
		row.From = t.UTC().Format(utcLayout)
	}
	if t, err := time.Parse(time.RFC3339, b.To); err == nil {
		row.To = t.UTC().Format(utcLayout)
	}
	return row
}

// writePartitions writes one partition per observation date, in date order.
func (v *Volumes) writePartitions(ctx context.Context, groups map[string][]domain.VolumeRow) error {
	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, date := range dates {
		day, err := time.Parse(domain.DateLayout, date)
		if err != nil {
			continue
		}
		group := groups[date]
		path := domain.PartitionPath(day, domain.BaseVolumes) + "/" + domain.VolumesFile
		if err := blob.WriteTable(ctx, v.store, path, group); err != nil {
			return fmt.Errorf("write volume partition: %w", err)
		}
		v.metrics.PartitionWrites.WithLabelValues("volumes").Inc()
		v.metrics.VolumeRows.Add(float64(len(group)))
		v.logger.Info("volume partition written", "date", date, "rows", len(group))
	}
	return nil
}

// dedupeIDs returns the distinct non-empty point ids in first-seen order.
func dedupeIDs(points []domain.Point) []string {
	seen := make(map[string]struct{}, len(points))
	ids := make([]string, 0, len(points))
	for _, p := range points {
		if p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	return ids
}

// groupByFromDate groups rows by the calendar date of their from timestamp.
// Rows whose from does not start with a date are dropped.
func groupByFromDate(rows []domain.VolumeRow) map[string][]domain.VolumeRow {
	groups := make(map[string][]domain.VolumeRow)
	for _, row := range rows {
		if len(row.From) < 10 {
			continue
		}
		date := row.From[:10]
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			continue
		}
		groups[date] = append(groups[date], row)
	}
	return groups
}

func isQueryError(err error) bool {
	var qe *trafikk.QueryError
	return errors.As(err, &qe)
}
