package gpx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aarondl/opt/omit"
	"github.com/spf13/afero"
)

const (
	pathTrack   = "gpx/trk"
	pathSegment = "gpx/trk/trkseg"
	pathPoint   = "gpx/trk/trkseg/trkpt"
	pathEle     = "gpx/trk/trkseg/trkpt/ele"
	pathTime    = "gpx/trk/trkseg/trkpt/time"
)

// Parse reads and scans a GPX file
func Parse(fs afero.Fs, filename string) (*Document, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return ParseBytes(data)
}

// ParseReader scans GPX from an io.Reader
func ParseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GPX: %w", err)
	}

	return ParseBytes(data)
}

// ParseBytes scans every trk/trkseg/trkpt of the document in order, recording
// where each point's timestamp lives so it can be replaced later.
func ParseBytes(data []byte) (*Document, error) {
	doc := &Document{raw: data}
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		stack    []string
		cur      *Point
		text     strings.Builder
		trackIdx = -1
		segIdx   = -1
		ptIdx    = -1
	)

	for {
		before := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse GPX: %w", err)
		}
		after := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			if !isGPXNamespace(t.Name.Space) {
				stack = append(stack, "")
				continue
			}
			stack = append(stack, t.Name.Local)

			switch strings.Join(stack, "/") {
			case pathTrack:
				trackIdx++
				segIdx = -1
				doc.tracks++
			case pathSegment:
				segIdx++
				ptIdx = -1
				doc.segments++
			case pathPoint:
				ptIdx++
				p, err := newPoint(t, len(doc.points))
				if err != nil {
					return nil, err
				}
				p.TrackIdx, p.SegIdx, p.PtIdx = trackIdx, segIdx, ptIdx
				p.timeName = prefixOf(qualifiedName(data, before)) + "time"
				cur = &p
			case pathEle:
				text.Reset()
			case pathTime:
				text.Reset()
				if cur.HasTime {
					return nil, fmt.Errorf("point %d: more than one <time> element", len(doc.points))
				}
				cur.HasTime = true
				cur.timeName = qualifiedName(data, before)
				cur.timeElem.start = before
				cur.timeText.start = after
			}

		case xml.CharData:
			if cur != nil {
				text.Write(t)
			}

		case xml.EndElement:
			path := strings.Join(stack, "/")
			stack = stack[:len(stack)-1]
			// the decoder synthesises the end of <x/> without consuming input
			synthetic := before == after

			switch path {
			case pathPoint:
				if !synthetic {
					cur.bodyEnd = before
				}
				doc.points = append(doc.points, *cur)
				cur = nil
			case pathEle:
				ele, err := strconv.ParseFloat(strings.TrimSpace(text.String()), 64)
				if err != nil {
					return nil, fmt.Errorf("point %d: invalid elevation: %w", len(doc.points), err)
				}
				cur.Elevation = omit.From(ele)
			case pathTime:
				cur.Time = text.String()
				cur.selfClosing = synthetic
				cur.timeText.end = before
				cur.timeElem.end = after
			}
		}
	}

	return doc, nil
}

func newPoint(start xml.StartElement, index int) (Point, error) {
	p := Point{bodyEnd: -1}
	var haveLat, haveLon bool

	for _, attr := range start.Attr {
		if attr.Name.Space != "" {
			continue
		}
		switch attr.Name.Local {
		case "lat":
			v, err := strconv.ParseFloat(strings.TrimSpace(attr.Value), 64)
			if err != nil {
				return p, fmt.Errorf("point %d: invalid latitude: %w", index, err)
			}
			p.Lat, haveLat = v, true
		case "lon":
			v, err := strconv.ParseFloat(strings.TrimSpace(attr.Value), 64)
			if err != nil {
				return p, fmt.Errorf("point %d: invalid longitude: %w", index, err)
			}
			p.Lon, haveLon = v, true
		}
	}

	if !haveLat || !haveLon {
		return p, fmt.Errorf("point %d: missing lat or lon attribute", index)
	}
	return p, nil
}

func isGPXNamespace(ns string) bool {
	return ns == "" || ns == NamespaceGPX11 || ns == NamespaceGPX10
}

// qualifiedName returns the element name as written in the source, prefix included
func qualifiedName(data []byte, offset int64) string {
	if offset < 0 || int(offset) >= len(data) || data[offset] != '<' {
		return ""
	}
	rest := data[offset+1:]
	end := bytes.IndexAny(rest, " \t\r\n/>")
	if end < 0 {
		return ""
	}
	return string(rest[:end])
}

func prefixOf(qname string) string {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[:i+1]
	}
	return ""
}
