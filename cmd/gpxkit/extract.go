package main

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/planbiir/gpxkit/internal/archive"
)

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [DIR]",
		Short: "Unpack the .fit.gz and .gpx.gz files of an activity export",
		Long: `Unpack the .fit.gz and .gpx.gz files of an activity export.

Each file is decompressed next to the archive and named after its position in
the sorted list of archives of its kind: 0.fit, 1.fit, ... and 0.gpx, 1.gpx, ...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return a.runExtract(cmd.OutOrStdout(), dir)
		},
	}
}

func (a *app) runExtract(out io.Writer, dir string) error {
	results, err := archive.Extract(a.fs, dir)
	for _, r := range results {
		fmt.Fprintf(out, "📦 %s -> %s (%d bytes)\n", r.Source, r.Target, r.Bytes)
	}
	if err != nil {
		return err
	}

	total := lo.SumBy(results, func(r archive.Result) int64 { return r.Bytes })
	fmt.Fprintf(out, "✅ Extracted %d files, %d bytes\n", len(results), total)
	return nil
}
