package trackmap

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/planbiir/gpxkit/internal/geo"
)

// Summary holds the totals shown in the map title.
type Summary struct {
	Distance      float64 // km
	ElevationGain float64 // meters, climbs only
	WithElevation bool

	// Profile is the cumulative elevation change over every segment of every
	// track, starting at 0. Its length is 1 + the number of segments.
	Profile []float64
}

// Summarize accumulates distances over all tracks. Segments never join the
// last point of one track to the first point of the next. With elevation the
// distances are 3D and every point must carry an elevation.
func Summarize(tracks []Track, withElevation bool) (Summary, error) {
	if len(tracks) == 0 {
		return Summary{}, ErrNoTracks
	}

	segments := []float64{0}
	deltas := []float64{0}
	gains := []float64{0}

	for _, track := range tracks {
		for i := 1; i < len(track.Points); i++ {
			prev, curr := track.Points[i-1], track.Points[i]

			if !withElevation {
				segments = append(segments, geo.HaversineKm(prev.Lat, prev.Lon, curr.Lat, curr.Lon))
				continue
			}

			prevEle, okPrev := prev.Elevation.Get()
			currEle, okCurr := curr.Elevation.Get()
			if !okPrev || !okCurr {
				missing := i
				if !okPrev {
					missing = i - 1
				}
				return Summary{}, fmt.Errorf("%s: point %d has no elevation", track.Name, missing)
			}

			delta := currEle - prevEle
			segments = append(segments, geo.Distance3DKm(prev.Lat, prev.Lon, prevEle, curr.Lat, curr.Lon, currEle))
			deltas = append(deltas, delta)
			gains = append(gains, max(delta, 0))
		}
	}

	summary := Summary{
		Distance:      floats.Sum(segments),
		WithElevation: withElevation,
	}
	if withElevation {
		summary.ElevationGain = floats.Sum(gains)
		summary.Profile = floats.CumSum(make([]float64, len(deltas)), deltas)
	}
	return summary, nil
}

// Title renders the summary the way it appears above the map.
func (s Summary) Title() string {
	if s.WithElevation {
		return fmt.Sprintf("Total Distance: %.1f km, Elevation Gain: %.0f m", s.Distance, s.ElevationGain)
	}
	return fmt.Sprintf("Total Distance: %.1f km", s.Distance)
}
