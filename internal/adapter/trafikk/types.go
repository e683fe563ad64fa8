package trafikk

import (
	"encoding/json"
	"strconv"
	"strings"
)

// API response envelopes. Fields that may be absent in the payload are
// pointers; validation happens here at the client boundary, not in the
// pipeline stages.

type apiErrors []struct {
	Message string `json:"message"`
}

func (errs apiErrors) messages() []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return out
}

type pointsEnvelope struct {
	Data struct {
		TrafficRegistrationPoints []PointNode `json:"trafficRegistrationPoints"`
	} `json:"data"`
	Errors apiErrors `json:"errors"`
}

// PointNode is one registration point as returned by the API. Location data
// is optional end to end; nodes without coordinates are dropped downstream.
type PointNode struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location *Location `json:"location"`
}

// Location wraps the nested coordinate payload of a registration point.
type Location struct {
	Coordinates *Coordinates `json:"coordinates"`
}

type Coordinates struct {
	LatLon *LatLon `json:"latLon"`
}

type LatLon struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Coordinates returns the node's position, with ok=false when any part of
// the nested location payload is missing.
func (n PointNode) Coordinates() (lat, lon float64, ok bool) {
	if n.Location == nil || n.Location.Coordinates == nil || n.Location.Coordinates.LatLon == nil {
		return 0, 0, false
	}
	ll := n.Location.Coordinates.LatLon
	if ll.Lat == nil || ll.Lon == nil {
		return 0, 0, false
	}
	return *ll.Lat, *ll.Lon, true
}

type volumeEnvelope struct {
	Data struct {
		TrafficData struct {
			Volume struct {
				ByDay struct {
					Edges []struct {
						Node DayBucket `json:"node"`
					} `json:"edges"`
				} `json:"byDay"`
			} `json:"volume"`
		} `json:"trafficData"`
	} `json:"data"`
	Errors apiErrors `json:"errors"`
}

// DayBucket is one aggregated volume observation for a single calendar day.
type DayBucket struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Total *DayTotal `json:"total"`
}

type DayTotal struct {
	VolumeNumbers VolumeNumbers `json:"volumeNumbers"`
}

// Volume returns the bucket's total volume, or nil when the numeric field
// is absent or malformed.
func (b DayBucket) Volume() *int64 {
	if b.Total == nil {
		return nil
	}
	return b.Total.VolumeNumbers.value
}

// VolumeNumbers tolerates both shapes the API has been observed to return:
// an object {"volume": n} and a list [{"volume": n}, ...], where only the
// first element matters.
type VolumeNumbers struct {
	value *int64
}

func (v *VolumeNumbers) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		return nil
	}

	type obj struct {
		Volume json.RawMessage `json:"volume"`
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []obj
		if err := json.Unmarshal(data, &list); err != nil {
			return nil // malformed payloads degrade to null, never fail
		}
		if len(list) == 0 {
			return nil
		}
		v.value = parseVolume(list[0].Volume)
		return nil
	}

	var o obj
	if err := json.Unmarshal(data, &o); err != nil {
		return nil
	}
	v.value = parseVolume(o.Volume)
	return nil
}

// parseVolume coerces a raw JSON value to an integer volume: plain integers,
// floats (truncated), and quoted numbers are accepted; anything else is null.
func parseVolume(raw json.RawMessage) *int64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int64(f)
		return &n
	}
	return nil
}
