package domain

// BoundingBox is an inclusive lat/lon rectangle in WGS-84 coordinates.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the coordinate pair falls inside the box,
// boundaries included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// BergenBox bounds the target region around Bergen. Points discovered by the
// county-wide server-side filter are restricted to this box before writing.
var BergenBox = BoundingBox{
	MinLat: 60.15,
	MaxLat: 60.55,
	MinLon: 5.05,
	MaxLon: 5.55,
}
