package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/blob"
	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/trafikk"
	"github.com/mathusivas/Traffic-vs-weather/internal/config"
	"github.com/mathusivas/Traffic-vs-weather/internal/domain"
	"github.com/mathusivas/Traffic-vs-weather/internal/observability"
)

// Points discovers registration points, filters them to the Bergen bounding
// box, and publishes the snapshot to every partition of the backfill range.
type Points struct {
	api     TrafficAPI
	store   BlobStore
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewPoints(api TrafficAPI, store BlobStore, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Points {
	return &Points{api: api, store: store, cfg: cfg, logger: logger, metrics: metrics}
}

// Run returns the path of today's points partition, which downstream stages
// use to locate the authoritative point list. Discovery failure is fatal;
// individual nodes with missing coordinates are dropped silently.
func (p *Points) Run(ctx context.Context) (string, error) {
	p.logger.Info("fetching registration points")
	result, err := p.api.RegistrationPoints(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch registration points: %w", err)
	}

	today := domain.Today()
	pointsDir := domain.PartitionPath(today, domain.BasePoints)

	// Audit copy of the verbatim response, written before any filtering.
	if err := p.store.Upload(ctx, pointsDir+"/"+domain.RawPointsFile, result.Raw); err != nil {
		return "", fmt.Errorf("write raw points: %w", err)
	}

	rows := p.flatten(result.Nodes, today)
	p.metrics.PointsDiscovered.Add(float64(len(result.Nodes)))
	p.metrics.PointsKept.Add(float64(len(rows)))

	// Every run republishes the current snapshot to the whole backfill
	// range, so historical partitions always mirror today's membership.
	days := domain.DatesBetween(p.cfg.BackfillStart.Time, today)
	for _, day := range days {
		path := domain.PartitionPath(day, domain.BasePoints) + "/" + domain.PointsFile
		if err := blob.WriteTable(ctx, p.store, path, rows); err != nil {
			return "", fmt.Errorf("write points partition: %w", err)
		}
		p.metrics.PartitionWrites.WithLabelValues("points").Inc()
	}

	p.logger.Info("registration points written",
		"discovered", len(result.Nodes),
		"kept", len(rows),
		"partitions", len(days),
		"path", pointsDir,
	)
	return pointsDir, nil
}

// flatten projects API nodes to point rows, dropping nodes without
// coordinates and nodes outside the bounding box.
func (p *Points) flatten(nodes []trafikk.PointNode, today time.Time) []domain.Point {
	rows := make([]domain.Point, 0, len(nodes))
	for _, n := range nodes {
		lat, lon, ok := n.Coordinates()
		if !ok {
			continue
		}
		if !domain.BergenBox.Contains(lat, lon) {
			continue
		}
		rows = append(rows, domain.Point{
			ID:            n.ID,
			Name:          n.Name,
			Lat:           lat,
			Lon:           lon,
			PartitionDate: today.Format(domain.DateLayout),
		})
	}
	return rows
}
