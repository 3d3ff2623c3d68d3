package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/planbiir/gpxkit/internal/trackmap"
)

func newMapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [GLOB]",
		Short: "Draw every GPX track matching GLOB on one map",
		Example: `  gpxkit map
  gpxkit map "runs/*.gpx" --elevation=false -o runs.png
  gpxkit map --auto-bound=false --bounds -71.884,42.210,-71.731,42.341`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*.gpx"
			if len(args) == 1 {
				pattern = args[0]
			}
			return a.runMap(cmd.OutOrStdout(), pattern)
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "heatmap.png", "output PNG file")
	f.Bool("elevation", true, "draw the elevation profile and use 3D distances")
	f.Bool("auto-bound", true, "fit the map to the tracks")
	f.StringSlice("bounds", nil, "map bounds min-lon,min-lat,max-lon,max-lat when auto-bound is off")
	f.Int("dpi", 300, "resolution of the PNG")
	a.bind(f, "map.output", "output")
	a.bind(f, "map.elevation", "elevation")
	a.bind(f, "map.auto-bound", "auto-bound")
	a.bind(f, "map.bounds", "bounds")
	a.bind(f, "map.dpi", "dpi")

	return cmd
}

func (a *app) runMap(out io.Writer, pattern string) error {
	files, err := trackmap.Glob(a.fs, pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no GPX files match %s", pattern)
	}

	fmt.Fprintf(out, "📖 Reading %d GPX files\n", len(files))
	tracks, err := trackmap.Load(a.fs, files)
	if err != nil {
		return fmt.Errorf("error reading GPX files: %w", err)
	}

	var png bytes.Buffer
	summary, err := trackmap.Render(&png, tracks, a.cfg.MapOptions())
	if err != nil {
		return fmt.Errorf("error drawing map: %w", err)
	}
	if err := afero.WriteFile(a.fs, a.cfg.Map.Output, png.Bytes(), 0o644); err != nil {
		return fmt.Errorf("error writing map: %w", err)
	}

	fmt.Fprintf(out, "📊 %s\n", summary.Title())
	fmt.Fprintf(out, "🗺️  Map written: %s\n", a.cfg.Map.Output)
	return nil
}
