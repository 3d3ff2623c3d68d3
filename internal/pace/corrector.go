package pace

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/planbiir/gpxkit/internal/geo"
	"github.com/planbiir/gpxkit/internal/log"
)

// Option customises a single Correct call.
type Option func(*options)

type options struct {
	rng *rand.Rand
}

// WithSeed makes the jitter draw reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRand draws the jitter from r. r must not be shared with concurrent calls.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// MaxJitter is the largest accepted PaceModel.Jitter in seconds.
const MaxJitter = math.MaxInt32

// Validate checks that the model can be applied to a track.
func (m PaceModel) Validate() error {
	switch {
	case math.IsNaN(m.BaseRate) || math.IsInf(m.BaseRate, 0):
		return &InvalidPaceError{Reason: "base rate must be a finite number"}
	case math.IsNaN(m.Jitter) || math.IsInf(m.Jitter, 0):
		return &InvalidPaceError{Reason: "jitter must be a finite number"}
	case m.Jitter < 0:
		return &InvalidPaceError{Reason: "jitter must not be negative"}
	case m.Jitter > MaxJitter:
		return &InvalidPaceError{Reason: fmt.Sprintf("jitter must not exceed %d seconds", MaxJitter)}
	}
	return nil
}

// Correct re-times the track so that it is travelled at the given pace.
// Positions and elevations pass through unchanged; the first point keeps its
// original timestamp text and every later point is placed after it by the
// time needed to cover the 3D distance at the per-point rate.
func Correct(track Track, model PaceModel, opts ...Option) (*CorrectedTrack, error) {
	if len(track) == 0 {
		return nil, ErrEmptyTrack
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	for i, p := range track {
		if p.Elevation.IsUnset() {
			return nil, &MissingElevationError{Index: i}
		}
	}
	anchor, err := ParseTimestamp(track[0].Timestamp)
	if err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	n := len(track)
	distances := make([]float64, n)
	elevDeltas := make([]float64, n)
	for i := 1; i < n; i++ {
		prev, curr := track[i-1], track[i]
		prevEle := prev.Elevation.GetOrZero()
		currEle := curr.Elevation.GetOrZero()

		distances[i] = geo.Distance3DKm(prev.Lat, prev.Lon, prevEle, curr.Lat, curr.Lon, currEle)
		elevDeltas[i] = currEle - prevEle
	}

	rates := drawRates(n, model, o.rng)

	deltas := make([]float64, n)
	floats.MulTo(deltas, distances, rates)
	elapsed := make([]float64, n)
	floats.CumSum(elapsed, deltas)
	// rates are never negative, so the last point has the largest elapsed time
	if elapsed[n-1]*float64(time.Second) >= math.MaxInt64 {
		return nil, &InvalidPaceError{
			Reason: fmt.Sprintf("track would take %g seconds, longer than a time.Duration can hold", elapsed[n-1]),
		}
	}

	points := make([]CorrectedPoint, n)
	for i, p := range track {
		points[i] = CorrectedPoint{
			Point:          p,
			Distance3D:     distances[i],
			ElevationDelta: elevDeltas[i],
			Rate:           rates[i],
			Elapsed:        elapsed[i],
		}
		if i == 0 {
			points[i].Time = anchor
			points[i].Stamp = p.Timestamp
			continue
		}
		points[i].Time = anchor.Add(secondsToDuration(elapsed[i]))
		points[i].Stamp = FormatTimestamp(points[i].Time)
	}

	result := &CorrectedTrack{
		Points:       points,
		TotalSeconds: elapsed[n-1],
	}

	log.Logger.Debug("track corrected",
		zap.Int("points", n),
		zap.Float64("base_rate", model.BaseRate),
		zap.Float64("jitter", model.Jitter),
		zap.Float64("distance_km", result.Distance()),
		zap.Float64("elapsed_s", result.TotalSeconds))

	return result, nil
}

// drawRates returns the effective rate of every point, the first included even
// though it multiplies a zero distance. Negative rates are clamped to zero.
func drawRates(n int, model PaceModel, rng *rand.Rand) []float64 {
	rates := make([]float64, n)
	spread := int(math.Floor(model.Jitter))

	if spread > 0 && rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	for i := range rates {
		rate := model.BaseRate
		if spread > 0 {
			rate += float64(rng.IntN(2*spread+1) - spread)
		}
		rates[i] = math.Max(rate, 0)
	}
	return rates
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
