package trafikk

import "fmt"

// registrationPointsQuery discovers every operational registration point on
// national roads (category R) in county 46 (Vestland). The filter is applied
// server-side; client code only narrows further by bounding box.
const registrationPointsQuery = `
query RegistrationPointsVestland {
  trafficRegistrationPoints(
    searchQuery: { roadCategoryIds: [R], countyNumbers: [46], isOperational: true }
  ) {
    id
    name
    location { coordinates { latLon { lat lon } } }
  }
}
`

// volumeByDayQuery aggregates traffic volume per calendar day for one point.
// Only the first 100 day-buckets are requested and no cursor is followed, so
// windows longer than 100 days truncate at the first page.
func volumeByDayQuery(pointID, from, to string) string {
	return fmt.Sprintf(`
query trafficvolume {
  trafficData(trafficRegistrationPointId: %q) {
    volume {
      byDay(
        from: %q
        to:   %q
        first: 100
      ) {
        edges {
          node {
            from
            to
            total { volumeNumbers { volume } }
          }
        }
      }
    }
  }
}
`, pointID, from, to)
}
