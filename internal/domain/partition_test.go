package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPartitionPath_ZeroPadded(t *testing.T) {
	d := time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "bronze/traffic/volumes/2025/09/03", PartitionPath(d, BaseVolumes))

	d = time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "bronze/weather/rain/2025/11/20", PartitionPath(d, BaseRain))
}

func TestDatesBetween_Inclusive(t *testing.T) {
	start := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC)

	days := DatesBetween(start, end)

	assert.Equal(t, []time.Time{
		time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 21, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC),
	}, days)
}

func TestDatesBetween_SingleDay(t *testing.T) {
	d := time.Date(2025, 9, 20, 14, 30, 0, 0, time.UTC)

	days := DatesBetween(d, d)

	assert.Equal(t, []time.Time{time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)}, days)
}

func TestDatesBetween_EndBeforeStart(t *testing.T) {
	start := time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, DatesBetween(start, end))
}

func TestDatesBetween_MonthBoundary(t *testing.T) {
	start := time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)

	days := DatesBetween(start, end)

	assert.Len(t, days, 4)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), days[2])
}
