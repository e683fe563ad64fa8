package domain

import (
	"fmt"
	"time"
)

// Dataset base paths and fixed per-dataset filenames in the bronze container.
const (
	BasePoints  = "bronze/traffic/registration_points"
	BaseVolumes = "bronze/traffic/volumes"
	BaseRain    = "bronze/weather/rain"

	PointsFile    = "flat.parquet"
	VolumesFile   = "flat.parquet"
	RainFile      = "rain.parquet"
	RawPointsFile = "raw.json"
)

// DateLayout is the ISO calendar-date layout used in row fields and payloads.
const DateLayout = "2006-01-02"

// PartitionPath maps a calendar date and dataset base path to the date
// partition directory: base/YYYY/MM/DD.
func PartitionPath(d time.Time, base string) string {
	return fmt.Sprintf("%s/%d/%02d/%02d", base, d.Year(), d.Month(), d.Day())
}

// DatesBetween returns every calendar day from start through end inclusive,
// normalized to UTC midnight. An end before start yields nil.
func DatesBetween(start, end time.Time) []time.Time {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var days []time.Time
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
