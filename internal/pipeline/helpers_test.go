package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/blob"
	"github.com/mathusivas/Traffic-vs-weather/internal/adapter/trafikk"
	"github.com/mathusivas/Traffic-vs-weather/internal/config"
	"github.com/mathusivas/Traffic-vs-weather/internal/domain"
	"github.com/mathusivas/Traffic-vs-weather/internal/observability"
)

// freezeClock pins the domain clock to 2025-09-22T12:00:00Z so backfill
// ranges and partition paths are deterministic.
func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, 9, 22, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// testConfig matches the defaults relevant to stage behavior, with rate
// limiting disabled so tests run fast.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		TimeOffset: "+02:00",
		MaxPoints:  100,
		SleepSecs:  0,
	}
	require.NoError(t, cfg.BackfillStart.Decode("2025-09-20"))
	return cfg
}

// memStore is an in-memory BlobStore recording uploads in order.
type memStore struct {
	blobs   map[string][]byte
	uploads []string
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Upload(_ context.Context, path string, data []byte) error {
	m.blobs[path] = data
	m.uploads = append(m.uploads, path)
	return nil
}

func (m *memStore) Download(_ context.Context, path string) ([]byte, error) {
	data, ok := m.blobs[path]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return data, nil
}

// seedPointsTable writes a point table into the store the way the points
// stage would.
func seedPointsTable(t *testing.T, store *memStore, dir string, points []domain.Point) {
	t.Helper()
	require.NoError(t, blob.WriteTable(context.Background(), store, dir+"/"+domain.PointsFile, points))
}

// fakeTraffic serves canned registration points and per-point day-buckets.
type fakeTraffic struct {
	pointsResult trafikk.PointsResult
	pointsErr    error

	buckets    map[string][]trafikk.DayBucket
	bucketErrs map[string]error

	volumeCalls []volumeCall
}

type volumeCall struct {
	pointID  string
	from, to string
}

func (f *fakeTraffic) RegistrationPoints(_ context.Context) (trafikk.PointsResult, error) {
	return f.pointsResult, f.pointsErr
}

func (f *fakeTraffic) VolumesByDay(_ context.Context, pointID, from, to string) ([]trafikk.DayBucket, error) {
	f.volumeCalls = append(f.volumeCalls, volumeCall{pointID: pointID, from: from, to: to})
	if err, ok := f.bucketErrs[pointID]; ok {
		return nil, err
	}
	return f.buckets[pointID], nil
}

// fakeWeather returns canned precipitation per point coordinate.
type fakeWeather struct {
	fn    func(lat, lon float64, day time.Time) (*float64, error)
	calls int
}

func (f *fakeWeather) DailyPrecipitation(_ context.Context, lat, lon float64, day time.Time) (*float64, error) {
	f.calls++
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(lat, lon, day)
}

// node builds an API point node with coordinates.
func node(id, name string, lat, lon float64) trafikk.PointNode {
	return trafikk.PointNode{
		ID:   id,
		Name: name,
		Location: &trafikk.Location{
			Coordinates: &trafikk.Coordinates{
				LatLon: &trafikk.LatLon{Lat: &lat, Lon: &lon},
			},
		},
	}
}

func nodeWithoutCoords(id, name string) trafikk.PointNode {
	return trafikk.PointNode{ID: id, Name: name}
}

// bucket builds a day-bucket through the wire decoder; volume is raw JSON,
// e.g. "1234" or "null".
func bucket(t *testing.T, from, to, volume string) trafikk.DayBucket {
	t.Helper()
	raw := fmt.Sprintf(`{"from":%q,"to":%q,"total":{"volumeNumbers":{"volume":%s}}}`, from, to, volume)
	var b trafikk.DayBucket
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}

func bergenPoint(id, name string, lat, lon float64) domain.Point {
	return domain.Point{ID: id, Name: name, Lat: lat, Lon: lon, PartitionDate: "2025-09-22"}
}
