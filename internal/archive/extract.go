package archive

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/planbiir/gpxkit/internal/log"
)

// Kind is one type of compressed activity file found in a bulk export.
type Kind struct {
	Pattern string // glob of the compressed files
	Ext     string // extension of the decompressed output
}

// DefaultKinds lists FIT recordings first, then GPX tracks.
func DefaultKinds() []Kind {
	return []Kind{
		{Pattern: "*.fit.gz", Ext: ".fit"},
		{Pattern: "*.gpx.gz", Ext: ".gpx"},
	}
}

// Result describes one decompressed file.
type Result struct {
	Source string
	Target string
	Bytes  int64
}

// Extract decompresses every archive of the given kinds found in dir. Within a
// kind the i-th archive (sorted by name) is written to dir/<i><ext>, so file
// names from the export are replaced by a running number.
func Extract(fs afero.Fs, dir string, kinds ...Kind) ([]Result, error) {
	if len(kinds) == 0 {
		kinds = DefaultKinds()
	}

	var results []Result
	for _, kind := range kinds {
		files, err := afero.Glob(fs, filepath.Join(dir, kind.Pattern))
		if err != nil {
			return results, fmt.Errorf("bad pattern %q: %w", kind.Pattern, err)
		}
		sort.Strings(files)

		for i, file := range files {
			target := filepath.Join(dir, fmt.Sprintf("%d%s", i, kind.Ext))
			n, err := decompress(fs, file, target)
			if err != nil {
				return results, err
			}
			log.Logger.Debug("archive extracted",
				zap.String("source", file),
				zap.String("target", target),
				zap.Int64("bytes", n))
			results = append(results, Result{Source: file, Target: target, Bytes: n})
		}
	}

	return results, nil
}

func decompress(fs afero.Fs, source, target string) (int64, error) {
	in, err := fs.Open(source)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", source, err)
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", source, err)
	}
	defer zr.Close()

	out, err := fs.Create(target)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}

	n, err := io.Copy(out, zr)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("failed to decompress %s: %w", source, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to write %s: %w", target, err)
	}
	return n, nil
}
