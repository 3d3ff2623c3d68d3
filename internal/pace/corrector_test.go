package pace

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/gpxkit/internal/geo"
)

func pt(lat, lon, ele float64, ts string) TrackPoint {
	return TrackPoint{Lat: lat, Lon: lon, Elevation: omit.From(ele), Timestamp: ts}
}

// climb builds a straight track heading north-east with rising elevation
func climb(n int) Track {
	track := make(Track, n)
	for i := range track {
		track[i] = pt(46.0+float64(i)*0.0005, 7.0+float64(i)*0.0005, 1000+float64(i)*4, "")
	}
	track[0].Timestamp = "2025-01-01T10:00:00Z"
	return track
}

func TestCorrectEndToEnd(t *testing.T) {
	track := Track{
		pt(42.0, -71.0, 10, "2020-01-01T00:00:00Z"),
		pt(42.0009, -71.0, 10, "ignored"),
	}

	result, err := Correct(track, PaceModel{BaseRate: 265, Jitter: 0})
	require.NoError(t, err)
	require.Len(t, result.Points, 2)

	assert.InDelta(t, 0.1, result.Points[1].Distance3D, 0.001)
	assert.InDelta(t, 26.5, result.Points[1].Elapsed, 0.1)
	assert.Equal(t, "2020-01-01T00:00:00Z", result.Points[0].Stamp)
	assert.Equal(t, "2020-01-01T00:00:26Z", result.Points[1].Stamp)
	assert.Equal(t, result.Points[1].Elapsed, result.TotalSeconds)
}

func TestCorrectPreservesAnchorVerbatim(t *testing.T) {
	track := climb(5)
	track[0].Timestamp = "2025-01-01T12:00:00.750+02:00"

	result, err := Correct(track, PaceModel{BaseRate: 300, Jitter: 5}, WithSeed(7))
	require.NoError(t, err)

	assert.Equal(t, track[0].Timestamp, result.Points[0].Stamp)
	assert.True(t, result.Points[0].Time.Equal(time.Date(2025, 1, 1, 10, 0, 0, 750_000_000, time.UTC)))
	// later points are rendered in UTC
	assert.Equal(t, "2025-01-01T10:00:", result.Points[1].Stamp[:17])
}

func TestCorrectPreservesLengthAndPositions(t *testing.T) {
	track := climb(25)

	result, err := Correct(track, DefaultPaceModel(), WithSeed(1))
	require.NoError(t, err)
	require.Len(t, result.Points, len(track))

	for i, p := range result.Points {
		assert.Equal(t, track[i].Lat, p.Point.Lat)
		assert.Equal(t, track[i].Lon, p.Point.Lon)
		assert.Equal(t, track[i].Elevation, p.Point.Elevation)
	}
	assert.Equal(t, 0.0, result.Points[0].Distance3D)
	assert.Equal(t, 0.0, result.Points[0].ElevationDelta)
	assert.Equal(t, 4.0, result.Points[3].ElevationDelta)
}

func TestCorrectZeroJitterIsDeterministic(t *testing.T) {
	track := climb(50)
	model := PaceModel{BaseRate: 265}

	first, err := Correct(track, model)
	require.NoError(t, err)
	second, err := Correct(track, model)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Stamps(), second.Stamps()); diff != "" {
		t.Errorf("stamps differ between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.TotalSeconds, second.TotalSeconds)
	for _, p := range first.Points {
		assert.Equal(t, 265.0, p.Rate)
	}
}

func TestCorrectSeedIsReproducible(t *testing.T) {
	track := climb(50)
	model := PaceModel{BaseRate: 265, Jitter: 10}

	first, err := Correct(track, model, WithSeed(2020))
	require.NoError(t, err)
	second, err := Correct(track, model, WithSeed(2020))
	require.NoError(t, err)

	if diff := cmp.Diff(first.Stamps(), second.Stamps()); diff != "" {
		t.Errorf("seeded runs differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.TotalSeconds, second.TotalSeconds)
}

func TestCorrectWithRand(t *testing.T) {
	track := climb(10)
	model := PaceModel{BaseRate: 265, Jitter: 3}

	a, err := Correct(track, model, WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	b, err := Correct(track, model, WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)

	assert.Equal(t, a.Stamps(), b.Stamps())
}

func TestCorrectJitterBounds(t *testing.T) {
	track := climb(500)
	model := PaceModel{BaseRate: 265, Jitter: 10.7}

	result, err := Correct(track, model, WithSeed(3))
	require.NoError(t, err)

	seen := map[float64]bool{}
	for _, p := range result.Points {
		assert.GreaterOrEqual(t, p.Rate, 255.0)
		assert.LessOrEqual(t, p.Rate, 275.0)
		assert.Equal(t, math.Trunc(p.Rate), p.Rate, "rates move in whole seconds")
		seen[p.Rate] = true
	}
	assert.Greater(t, len(seen), 1, "jitter should vary the rate")
}

func TestCorrectMonotonic(t *testing.T) {
	track := climb(200)

	models := []PaceModel{
		{BaseRate: 265, Jitter: 10},
		{BaseRate: 10, Jitter: 10},
		{BaseRate: 3, Jitter: 20},
		{BaseRate: -50, Jitter: 0},
	}
	for _, model := range models {
		result, err := Correct(track, model, WithSeed(11))
		require.NoError(t, err)

		for i := 1; i < len(result.Points); i++ {
			prev, curr := result.Points[i-1], result.Points[i]
			if curr.Time.Before(prev.Time) {
				t.Fatalf("model %+v: point %d at %s is before point %d at %s",
					model, i, curr.Time, i-1, prev.Time)
			}
			assert.GreaterOrEqual(t, curr.Rate, 0.0)
		}
	}
}

func TestCorrectNegativeRateFreezesClock(t *testing.T) {
	track := climb(5)

	result, err := Correct(track, PaceModel{BaseRate: -100})
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.TotalSeconds)
	for _, p := range result.Points[1:] {
		assert.Equal(t, "2025-01-01T10:00:00Z", p.Stamp)
	}
}

func TestCorrectSinglePoint(t *testing.T) {
	track := Track{pt(46.0, 7.0, 1000, "2025-01-01T10:00:00Z")}

	result, err := Correct(track, DefaultPaceModel())
	require.NoError(t, err)
	require.Len(t, result.Points, 1)

	assert.Equal(t, track[0], result.Points[0].Point)
	assert.Equal(t, track[0].Timestamp, result.Points[0].Stamp)
	assert.Equal(t, 0.0, result.TotalSeconds)
}

func TestCorrectFlatElevationIsSurfaceDistance(t *testing.T) {
	track := Track{
		pt(46.0, 7.0, 500, "2025-01-01T10:00:00Z"),
		pt(46.001, 7.002, 500, ""),
		pt(46.003, 7.001, 500, ""),
	}

	result, err := Correct(track, PaceModel{BaseRate: 265})
	require.NoError(t, err)

	for i := 1; i < len(track); i++ {
		surface := geo.HaversineKm(track[i-1].Lat, track[i-1].Lon, track[i].Lat, track[i].Lon)
		assert.Equal(t, surface, result.Points[i].Distance3D)
	}
}

func TestCorrectElevationLengthensSegment(t *testing.T) {
	flat := Track{
		pt(46.0, 7.0, 500, "2025-01-01T10:00:00Z"),
		pt(46.001, 7.0, 500, ""),
	}
	steep := Track{
		pt(46.0, 7.0, 500, "2025-01-01T10:00:00Z"),
		pt(46.001, 7.0, 600, ""),
	}

	a, err := Correct(flat, PaceModel{BaseRate: 600})
	require.NoError(t, err)
	b, err := Correct(steep, PaceModel{BaseRate: 600})
	require.NoError(t, err)

	assert.Greater(t, b.TotalSeconds, a.TotalSeconds)
	assert.Equal(t, 100.0, b.Points[1].ElevationDelta)
}

func TestCorrectSummary(t *testing.T) {
	track := Track{
		pt(42.0, -71.0, 10, "2020-01-01T00:00:00Z"),
		pt(42.0009, -71.0, 10, ""),
		pt(42.0018, -71.0, 10, ""),
	}

	result, err := Correct(track, PaceModel{BaseRate: 600})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, result.Distance(), 0.001)
	assert.InDelta(t, 120.0, result.TotalSeconds, 0.2)
	assert.InDelta(t, 2.0, result.Minutes(), 0.01)
}

func TestCorrectErrors(t *testing.T) {
	missing := climb(4)
	missing[2].Elevation = omit.Val[float64]{}

	badAnchor := climb(3)
	badAnchor[0].Timestamp = "yesterday"

	noAnchor := climb(3)
	noAnchor[0].Timestamp = ""

	tests := []struct {
		name  string
		track Track
		model PaceModel
		check func(t *testing.T, err error)
	}{
		{
			name:  "empty track",
			track: Track{},
			model: DefaultPaceModel(),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyTrack)
			},
		},
		{
			name:  "missing elevation",
			track: missing,
			model: DefaultPaceModel(),
			check: func(t *testing.T, err error) {
				var target *MissingElevationError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 2, target.Index)
			},
		},
		{
			name:  "unparseable anchor",
			track: badAnchor,
			model: DefaultPaceModel(),
			check: func(t *testing.T, err error) {
				var target *InvalidTimestampError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "yesterday", target.Value)
			},
		},
		{
			name:  "empty anchor",
			track: noAnchor,
			model: DefaultPaceModel(),
			check: func(t *testing.T, err error) {
				var target *InvalidTimestampError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:  "negative jitter",
			track: climb(3),
			model: PaceModel{BaseRate: 265, Jitter: -1},
			check: func(t *testing.T, err error) {
				var target *InvalidPaceError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:  "jitter wider than an int",
			track: climb(3),
			model: PaceModel{BaseRate: 265, Jitter: 1 << 62},
			check: func(t *testing.T, err error) {
				var target *InvalidPaceError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:  "jitter beyond int64",
			track: climb(3),
			model: PaceModel{BaseRate: 265, Jitter: 1e19},
			check: func(t *testing.T, err error) {
				var target *InvalidPaceError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:  "elapsed time overflows duration",
			track: climb(3),
			model: PaceModel{BaseRate: 1e15},
			check: func(t *testing.T, err error) {
				var target *InvalidPaceError
				require.ErrorAs(t, err, &target)
				assert.Contains(t, target.Reason, "time.Duration")
			},
		},
		{
			name:  "infinite elapsed time",
			track: climb(3),
			model: PaceModel{BaseRate: math.MaxFloat64},
			check: func(t *testing.T, err error) {
				var target *InvalidPaceError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name:  "nan rate",
			track: climb(3),
			model: PaceModel{BaseRate: math.NaN()},
			check: func(t *testing.T, err error) {
				var target *InvalidPaceError
				assert.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Correct(tt.track, tt.model)
			require.Error(t, err)
			assert.Nil(t, result)
			tt.check(t, err)
		})
	}
}

func TestCorrectMissingElevationLeavesInputUntouched(t *testing.T) {
	track := climb(3)
	track[1].Elevation = omit.Val[float64]{}
	before := append(Track(nil), track...)

	_, err := Correct(track, DefaultPaceModel())
	var target *MissingElevationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 1, target.Index)
	assert.Equal(t, before, track)
}

func TestCorrectLargestJitter(t *testing.T) {
	result, err := Correct(climb(50), PaceModel{BaseRate: 265, Jitter: MaxJitter}, WithSeed(3))
	require.NoError(t, err)

	for i := 1; i < len(result.Points); i++ {
		assert.GreaterOrEqual(t, result.Points[i].Rate, 0.0)
		assert.LessOrEqual(t, result.Points[i].Rate, 265.0+MaxJitter)
		assert.False(t, result.Points[i].Time.Before(result.Points[i-1].Time), "point %d goes back in time", i)
	}
}
