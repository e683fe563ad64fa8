package domain

import (
	"encoding/json"
	"fmt"
)

// Point is one row of the registration-point table. The same snapshot is
// written to every partition of the backfill range, stamped with the run's
// partition date.
type Point struct {
	ID            string  `parquet:"id" json:"id"`
	Name          string  `parquet:"name" json:"name"`
	Lat           float64 `parquet:"lat" json:"lat"`
	Lon           float64 `parquet:"lon" json:"lon"`
	PartitionDate string  `parquet:"partition_date" json:"partition_date"`
}

// SlimPoint is the minimal projection handed between stages when the
// object-store copy of the point table cannot be read.
type SlimPoint struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// VolumeRow is one day-bucket of traffic volume for a point. From and To are
// UTC ISO 8601 strings; TotalVolume is nil when the source payload's numeric
// field was absent or malformed.
type VolumeRow struct {
	PointID     string `parquet:"point_id" json:"point_id"`
	From        string `parquet:"from" json:"from"`
	To          string `parquet:"to" json:"to"`
	TotalVolume *int64 `parquet:"total_volume,optional" json:"total_volume"`
}

// RainRow is one point's summed precipitation for one calendar day.
// PrecipMM is nil when no observations exist or the lookup failed.
type RainRow struct {
	PointID  string   `parquet:"point_id" json:"point_id"`
	Date     string   `parquet:"date" json:"date"`
	PrecipMM *float64 `parquet:"precip_mm,optional" json:"precip_mm"`
}

// Slim returns the SlimPoint projection of p.
func (p Point) Slim() SlimPoint {
	return SlimPoint{ID: p.ID, Lat: p.Lat, Lon: p.Lon}
}

// EncodeSlimPoints serializes points as the JSON handoff payload.
// Points without an id are dropped.
func EncodeSlimPoints(points []Point) (string, error) {
	slim := make([]SlimPoint, 0, len(points))
	for _, p := range points {
		if p.ID == "" {
			continue
		}
		slim = append(slim, p.Slim())
	}
	data, err := json.Marshal(slim)
	if err != nil {
		return "", fmt.Errorf("encode slim points: %w", err)
	}
	return string(data), nil
}

// DecodeSlimPoints parses a JSON handoff payload back into points,
// dropping entries without an id.
func DecodeSlimPoints(payload string) ([]SlimPoint, error) {
	if payload == "" {
		return nil, nil
	}
	var slim []SlimPoint
	if err := json.Unmarshal([]byte(payload), &slim); err != nil {
		return nil, fmt.Errorf("decode slim points: %w", err)
	}
	out := slim[:0]
	for _, p := range slim {
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// RunSummary describes one completed ingest run. It is published to the
// optional completion topic so the downstream bronze-to-silver transform
// can be triggered.
type RunSummary struct {
	RunID        string `json:"run_id"`
	PointsPath   string `json:"points_path"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at"`
	VolumePoints int    `json:"volume_points"`
	RainEnabled  bool   `json:"rain_enabled"`
}
