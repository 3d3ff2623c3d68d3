package gpx

import "github.com/aarondl/opt/omit"

// Namespaces accepted for GPX elements; an empty namespace is accepted too.
const (
	NamespaceGPX11 = "http://www.topografix.com/GPX/1/1"
	NamespaceGPX10 = "http://www.topografix.com/GPX/1/0"
)

// span is a half-open byte range [start, end) of the source document
type span struct {
	start, end int64
}

// Point represents a GPS track point as found in the source document
type Point struct {
	Lat       float64
	Lon       float64
	Elevation omit.Val[float64] // meters
	Time      string            // raw text of the <time> child, if any
	HasTime   bool

	// Internal tracking for multi-segment preservation
	TrackIdx, SegIdx, PtIdx int

	timeText    span  // text inside <time>...</time>
	timeElem    span  // whole <time> element
	timeName    string
	selfClosing bool  // <time/>
	bodyEnd     int64 // offset of </trkpt>, -1 for a self-closing point
}

// Document is a parsed GPX file that still owns its original bytes, so it can
// be written back with nothing but the timestamps changed.
type Document struct {
	raw      []byte
	points   []Point
	tracks   int
	segments int
}

// FlattenPoints returns all points from all tracks and segments in order
func (d *Document) FlattenPoints() []Point {
	out := make([]Point, len(d.points))
	copy(out, d.points)
	return out
}

// Bytes returns the original document.
func (d *Document) Bytes() []byte {
	return d.raw
}

// Stats returns basic counts about the document
func (d *Document) Stats() (pointCount int, trackCount int, segmentCount int) {
	return len(d.points), d.tracks, d.segments
}
