// Package pipeline implements the three bronze ingest stages and the runner
// that sequences them: point discovery, per-point volume aggregation, and
// per-point per-day precipitation lookup.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/trafikk"
	"github.com/mathusivas/Traffic-vs-weather/internal/domain"
	"github.com/mathusivas/Traffic-vs-weather/internal/observability"
)

// BlobStore is the object-store surface shared by all stages.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
}

// TrafficAPI fetches registration points and volume day-buckets.
type TrafficAPI interface {
	RegistrationPoints(ctx context.Context) (trafikk.PointsResult, error)
	VolumesByDay(ctx context.Context, pointID, from, to string) ([]trafikk.DayBucket, error)
}

// WeatherAPI looks up nearest-station daily precipitation.
type WeatherAPI interface {
	DailyPrecipitation(ctx context.Context, lat, lon float64, day time.Time) (*float64, error)
}

// Notifier publishes the run-completion event that hands off to the
// downstream bronze-to-silver transform.
type Notifier interface {
	RunCompleted(ctx context.Context, summary domain.RunSummary) error
}

// PreconditionError means an artifact an upstream stage should have produced
// is missing or unusable. It is fatal for the dependent stage.
type PreconditionError struct {
	Stage  string
	Path   string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s stage precondition: %s (%s)", e.Stage, e.Reason, e.Path)
}

// Stage interfaces let the runner be tested against fakes.

type PointsStage interface {
	Run(ctx context.Context) (string, error)
}

type VolumesStage interface {
	Run(ctx context.Context, pointsDir string) (string, error)
}

type RainStage interface {
	Run(ctx context.Context, pointsDir, fallback string) error
}

// Runner sequences points → volumes → rain, threading the points partition
// path and the volume stage's handoff payload forward. A fatal error in any
// stage halts the sequence; retries belong to the external scheduler.
type Runner struct {
	points   PointsStage
	volumes  VolumesStage
	rain     RainStage
	notifier Notifier // nil when completion events are disabled

	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// NewRunner wires the three stages and an optional notifier.
func NewRunner(points PointsStage, volumes VolumesStage, rain RainStage, notifier Notifier, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		points:   points,
		volumes:  volumes,
		rain:     rain,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the current run has published its first
// artifact set.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return fmt.Errorf("no stage has completed yet")
	}
	return nil
}

// Run executes one full ingest run.
func (r *Runner) Run(ctx context.Context) error {
	started := domain.Now()
	r.metrics.IngestRunning.Set(1)
	defer r.metrics.IngestRunning.Set(0)

	pointsDir, err := r.timedPoints(ctx)
	if err != nil {
		return fmt.Errorf("points stage: %w", err)
	}
	r.ready.Store(true)

	fallback, err := r.timedVolumes(ctx, pointsDir)
	if err != nil {
		return fmt.Errorf("volumes stage: %w", err)
	}

	if err := r.timedRain(ctx, pointsDir, fallback); err != nil {
		return fmt.Errorf("rain stage: %w", err)
	}

	r.notifyCompleted(ctx, started, pointsDir, fallback)
	return nil
}

func (r *Runner) timedPoints(ctx context.Context) (string, error) {
	start := time.Now()
	defer func() {
		r.metrics.StageDuration.WithLabelValues("points").Observe(time.Since(start).Seconds())
	}()
	return r.points.Run(ctx)
}

func (r *Runner) timedVolumes(ctx context.Context, pointsDir string) (string, error) {
	start := time.Now()
	defer func() {
		r.metrics.StageDuration.WithLabelValues("volumes").Observe(time.Since(start).Seconds())
	}()
	return r.volumes.Run(ctx, pointsDir)
}

func (r *Runner) timedRain(ctx context.Context, pointsDir, fallback string) error {
	start := time.Now()
	defer func() {
		r.metrics.StageDuration.WithLabelValues("rain").Observe(time.Since(start).Seconds())
	}()
	return r.rain.Run(ctx, pointsDir, fallback)
}

// notifyCompleted publishes the downstream trigger. Failure to notify is
// logged, not fatal: the artifacts are already written and the scheduler can
// re-trigger the transform independently.
func (r *Runner) notifyCompleted(ctx context.Context, started time.Time, pointsDir, fallback string) {
	if r.notifier == nil {
		return
	}

	volumePoints := 0
	if pts, err := domain.DecodeSlimPoints(fallback); err == nil {
		volumePoints = len(pts)
	}

	summary := domain.RunSummary{
		RunID:        fmt.Sprintf("ingest-%d", started.UnixNano()),
		PointsPath:   pointsDir,
		StartedAt:    started.Format(time.RFC3339),
		CompletedAt:  domain.Now().Format(time.RFC3339),
		VolumePoints: volumePoints,
		RainEnabled:  r.rainEnabled(),
	}
	if err := r.notifier.RunCompleted(ctx, summary); err != nil {
		r.logger.Warn("run-completion notify failed", "error", err)
		return
	}
	r.logger.Info("run-completion event published", "run_id", summary.RunID)
}

func (r *Runner) rainEnabled() bool {
	type enabler interface{ Enabled() bool }
	if e, ok := r.rain.(enabler); ok {
		return e.Enabled()
	}
	return false
}

// sleepWithContext pauses for d, returning false if the context is
// cancelled first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
