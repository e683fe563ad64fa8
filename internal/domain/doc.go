// Package domain models the bronze-layer datasets produced by the traffic
// and weather ingest pipeline.
//
// # Data Sources
//
// Traffic-sensor metadata and volumes come from the Norwegian Public Roads
// Administration traffic data API (trafikkdata-api.atlas.vegvesen.no), a
// GraphQL endpoint queried over plain HTTPS POST. Registration points are
// discovered with a fixed server-side filter (road category R, county 46
// Vestland, operational points only) and then restricted client-side to the
// Bergen bounding box. Volumes are the API's byDay aggregation: one
// "day-bucket" per point per calendar day inside the query window.
//
// Daily precipitation comes from the MET Norway Frost observations API
// (frost.met.no). For each point and calendar day the nearest station within
// 50 km is queried and all precipitation_amount observations for that day
// are summed, rounded to three decimals.
//
// # Bronze Layout
//
// Every dataset is addressed by a date partition path:
//
//	bronze/traffic/registration_points/YYYY/MM/DD/flat.parquet (+ raw.json)
//	bronze/traffic/volumes/YYYY/MM/DD/flat.parquet
//	bronze/weather/rain/YYYY/MM/DD/rain.parquet
//
// A partition holds the complete snapshot for its date and is overwritten
// whole on every run; there is no merge with prior content and no
// versioning. Writes are last-writer-wins with no cross-run locking.
//
// # Known Limitations
//
//   - The points stage republishes the current point snapshot to every
//     partition from the backfill start through today, so point-membership
//     history is not preserved across runs.
//   - The volume query requests a single page of at most 100 day-buckets per
//     point; windows spanning more than 100 days truncate at the first page.
//
// # Nullability
//
// total_volume and precip_mm are the only nullable fields, modelled as
// pointers and marked optional in the parquet schema. A null volume means
// the source payload's numeric field was absent or malformed; a null
// precipitation means the station reported no observations for that day or
// the lookup failed non-fatally.
package domain
