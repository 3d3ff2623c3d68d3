package trackmap

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Bounds fixes the visible area of the map (degrees).
type Bounds struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

// Validate checks that the bounds describe a non-empty area.
func (b Bounds) Validate() error {
	if b.MinLon >= b.MaxLon || b.MinLat >= b.MaxLat {
		return fmt.Errorf("bounds must have min < max, got lon %v..%v lat %v..%v",
			b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
	}
	return nil
}

// Options controls how the map is drawn.
type Options struct {
	Elevation bool    // draw the elevation band below the map
	Bounds    *Bounds // nil fits the tracks
	Size      vg.Length
	DPI       int
}

// DefaultOptions returns a 10x10 inch, 300 DPI map with the elevation band
func DefaultOptions() Options {
	return Options{
		Elevation: true,
		Size:      10 * vg.Inch,
		DPI:       300,
	}
}

var (
	trackColor     = color.NRGBA{A: 77}          // black, 30%
	elevationColor = color.NRGBA{G: 128, A: 153} // green, 60%
	bandRatio      = 1.0 / 15                    // elevation band : total height
	trackWidth     = vg.Points(1)
)

// Render draws every track on one map and writes it to w as PNG.
func Render(w io.Writer, tracks []Track, opts Options) (Summary, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.DPI <= 0 {
		opts.DPI = DefaultOptions().DPI
	}
	if opts.Bounds != nil {
		if err := opts.Bounds.Validate(); err != nil {
			return Summary{}, err
		}
	}

	summary, err := Summarize(tracks, opts.Elevation)
	if err != nil {
		return Summary{}, err
	}

	img := vgimg.NewWith(vgimg.UseWH(opts.Size, opts.Size), vgimg.UseDPI(opts.DPI))
	dc := draw.New(img)

	mapArea := dc
	if opts.Elevation {
		band := vg.Length(float64(opts.Size) * bandRatio)
		mapArea = draw.Crop(dc, 0, 0, band, 0)
		profileArea := draw.Crop(dc, 0, 0, 0, band-opts.Size)

		profile, err := profilePlot(summary.Profile)
		if err != nil {
			return Summary{}, err
		}
		profile.Draw(profileArea)
	}

	tracksPlot, err := mapPlot(tracks, opts.Bounds, summary.Title(), mapArea)
	if err != nil {
		return Summary{}, err
	}
	tracksPlot.Draw(mapArea)

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return Summary{}, fmt.Errorf("failed to write map: %w", err)
	}
	return summary, nil
}

func mapPlot(tracks []Track, bounds *Bounds, title string, area draw.Canvas) (*plot.Plot, error) {
	p := plot.New()
	p.HideAxes()
	p.Title.Text = title

	var fit Bounds
	first := true
	for _, track := range tracks {
		if len(track.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(track.Points))
		for i, pt := range track.Points {
			xys[i].X = pt.Lon
			xys[i].Y = pt.Lat
			if first {
				fit = Bounds{MinLon: pt.Lon, MaxLon: pt.Lon, MinLat: pt.Lat, MaxLat: pt.Lat}
				first = false
				continue
			}
			fit.MinLon = math.Min(fit.MinLon, pt.Lon)
			fit.MaxLon = math.Max(fit.MaxLon, pt.Lon)
			fit.MinLat = math.Min(fit.MinLat, pt.Lat)
			fit.MaxLat = math.Max(fit.MaxLat, pt.Lat)
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", track.Name, err)
		}
		line.LineStyle.Color = trackColor
		line.LineStyle.Width = trackWidth
		p.Add(line)
	}

	if bounds != nil {
		fit = *bounds
	} else if first {
		return nil, ErrNoTracks
	}

	// the title and padding take space from the canvas
	data := p.DataCanvas(area)
	width := float64(data.Max.X - data.Min.X)
	height := float64(data.Max.Y - data.Min.Y)
	fit = equalAspect(fit, width, height)

	p.X.Min, p.X.Max = fit.MinLon, fit.MaxLon
	p.Y.Min, p.Y.Max = fit.MinLat, fit.MaxLat
	return p, nil
}

func profilePlot(profile []float64) (*plot.Plot, error) {
	p := plot.New()
	p.HideAxes()

	xys := make(plotter.XYs, len(profile))
	for i, v := range profile {
		xys[i].X = float64(i)
		xys[i].Y = v
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("elevation profile: %w", err)
	}
	line.LineStyle.Color = elevationColor
	line.FillColor = elevationColor
	p.Add(line)

	// fill down to zero like a filled area chart
	p.Y.Min = math.Min(p.Y.Min, 0)
	p.Y.Max = math.Max(p.Y.Max, 0)
	return p, nil
}

// equalAspect widens the shorter side of b so one degree of longitude and one
// degree of latitude take the same space on a width x height canvas.
func equalAspect(b Bounds, width, height float64) Bounds {
	if width <= 0 || height <= 0 {
		return b
	}

	spanX := b.MaxLon - b.MinLon
	spanY := b.MaxLat - b.MinLat
	if spanX <= 0 && spanY <= 0 {
		const pad = 1e-3
		b = Bounds{MinLon: b.MinLon - pad, MaxLon: b.MaxLon + pad, MinLat: b.MinLat - pad, MaxLat: b.MaxLat + pad}
		spanX, spanY = 2*pad, 2*pad
	}

	target := width / height
	switch {
	case spanX < spanY*target:
		grow := (spanY*target - spanX) / 2
		b.MinLon -= grow
		b.MaxLon += grow
	case spanX > spanY*target:
		grow := (spanX/target - spanY) / 2
		b.MinLat -= grow
		b.MaxLat += grow
	}
	return b
}
