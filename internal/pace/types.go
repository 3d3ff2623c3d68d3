package pace

import (
	"time"

	"github.com/aarondl/opt/omit"
)

// StampLayout is the layout of every derived timestamp.
const StampLayout = "2006-01-02T15:04:05Z"

// TrackPoint is one recorded position. Only the first point's Timestamp is read.
type TrackPoint struct {
	Lat       float64
	Lon       float64
	Elevation omit.Val[float64] // meters
	Timestamp string
}

// Track is an ordered sequence of points in traversal order.
type Track []TrackPoint

// PaceModel describes how fast the track is travelled.
type PaceModel struct {
	// BaseRate is the nominal number of seconds per km of 3D distance.
	BaseRate float64
	// Jitter bounds the integer number of seconds randomly added to or
	// subtracted from BaseRate, drawn independently for every point.
	Jitter float64
}

// DefaultPaceModel returns a 4:25/km pace with +-10s of variation
func DefaultPaceModel() PaceModel {
	return PaceModel{
		BaseRate: 265,
		Jitter:   10,
	}
}

// CorrectedPoint is a point of the output track together with the values
// derived for the segment that ends at it.
type CorrectedPoint struct {
	Point TrackPoint

	Distance3D     float64 // km from the previous point, 0 for the first
	ElevationDelta float64 // meters from the previous point, 0 for the first
	Rate           float64 // effective seconds per km used for this segment
	Elapsed        float64 // seconds since the anchor

	Time  time.Time
	Stamp string
}

// CorrectedTrack is the result of Correct.
type CorrectedTrack struct {
	Points       []CorrectedPoint
	TotalSeconds float64
}

// Stamps returns the corrected timestamp text of every point in order.
func (c *CorrectedTrack) Stamps() []string {
	stamps := make([]string, len(c.Points))
	for i, p := range c.Points {
		stamps[i] = p.Stamp
	}
	return stamps
}

// Minutes returns the total elapsed time in minutes.
func (c *CorrectedTrack) Minutes() float64 {
	return c.TotalSeconds / 60
}

// Distance returns the total 3D distance in km.
func (c *CorrectedTrack) Distance() float64 {
	var total float64
	for _, p := range c.Points {
		total += p.Distance3D
	}
	return total
}
