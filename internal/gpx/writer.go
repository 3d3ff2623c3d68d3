package gpx

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/spf13/afero"
)

// WithTimes returns the original document with the timestamp of point i set
// to stamps[i]. Every other byte is left as it was. Points without a <time>
// child get one appended to their body.
func (d *Document) WithTimes(stamps []string) ([]byte, error) {
	if len(stamps) != len(d.points) {
		return nil, fmt.Errorf("got %d timestamps for %d points", len(stamps), len(d.points))
	}

	var out bytes.Buffer
	out.Grow(len(d.raw) + len(stamps)*8)

	last := int64(0)
	for i, p := range d.points {
		var escaped bytes.Buffer
		if err := xml.EscapeText(&escaped, []byte(stamps[i])); err != nil {
			return nil, err
		}

		var at span
		var replacement string

		switch {
		case p.HasTime && !p.selfClosing:
			at = p.timeText
			replacement = escaped.String()
		case p.HasTime:
			at = p.timeElem
			replacement = element(p.timeName, escaped.String())
		case p.bodyEnd >= 0:
			at = span{start: p.bodyEnd, end: p.bodyEnd}
			replacement = element(p.timeName, escaped.String())
		default:
			return nil, fmt.Errorf("point %d is self-closing and cannot hold a timestamp", i)
		}

		out.Write(d.raw[last:at.start])
		out.WriteString(replacement)
		last = at.end
	}
	out.Write(d.raw[last:])

	return out.Bytes(), nil
}

// WriteFile saves GPX bytes to a file
func WriteFile(fs afero.Fs, filename string, data []byte) error {
	if err := afero.WriteFile(fs, filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func element(name, text string) string {
	return "<" + name + ">" + text + "</" + name + ">"
}
