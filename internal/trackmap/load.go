package trackmap

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/aarondl/opt/omit"
	"github.com/spf13/afero"
	"github.com/tkrajina/gpxgo/gpx"
	"go.uber.org/zap"

	"github.com/planbiir/gpxkit/internal/log"
)

// ErrNoTracks is returned when there is nothing to summarise or draw.
var ErrNoTracks = errors.New("no tracks to draw")

// Point is a position of a loaded track.
type Point struct {
	Lat       float64
	Lon       float64
	Elevation omit.Val[float64]
}

// Track holds every point of one file, tracks and segments flattened.
type Track struct {
	Name   string
	Points []Point
}

// Glob lists the GPX files matching pattern, sorted by name so that tracks
// named by date are drawn in chronological order.
func Glob(fs afero.Fs, pattern string) ([]string, error) {
	files, err := afero.Glob(fs, pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	sort.Strings(files)
	return files, nil
}

// Load reads the given files in order.
func Load(fs afero.Fs, files []string) ([]Track, error) {
	tracks := make([]Track, 0, len(files))
	for _, file := range files {
		track, err := loadFile(fs, file)
		if err != nil {
			return nil, err
		}
		log.Logger.Debug("track loaded", zap.String("file", file), zap.Int("points", len(track.Points)))
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func loadFile(fs afero.Fs, file string) (Track, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return Track{}, fmt.Errorf("failed to open %s: %w", file, err)
	}

	gpxFile, err := gpx.ParseBytes(data)
	if err != nil {
		return Track{}, fmt.Errorf("failed to parse %s: %w", file, err)
	}

	track := Track{Name: filepath.Base(file)}
	for _, trk := range gpxFile.Tracks {
		for _, segment := range trk.Segments {
			for _, point := range segment.Points {
				p := Point{Lat: point.Latitude, Lon: point.Longitude}
				if point.Elevation.NotNull() {
					p.Elevation = omit.From(point.Elevation.Value())
				}
				track.Points = append(track.Points, p)
			}
		}
	}
	return track, nil
}
