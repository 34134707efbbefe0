// Package gpx parses GPX track files into plain track structures. Only the
// subset of the schema the pipeline consumes is modeled; unknown elements are
// skipped, except inside <extensions>, where every leaf element is kept as an
// ordered metadata entry.
package gpx

import (
	"encoding/xml"
	"io"
	"os"
	"strings"
	"time"
)

type document struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Tracks  []Track  `xml:"trk"`
}

// Track is one recorded track: a name and an ordered list of segments.
type Track struct {
	Name     string    `xml:"name"`
	Segments []Segment `xml:"trkseg"`
}

// Segment is a continuous run of points within a track.
type Segment struct {
	Points []Point `xml:"trkpt"`
}

// Point is a single position sample. Extensions holds the point's custom
// metadata flattened to leaf elements in document order; wrapper elements such
// as TrackPointExtension do not appear themselves, only their leaves do.
type Point struct {
	Latitude   float64    `xml:"lat,attr"`
	Longitude  float64    `xml:"lon,attr"`
	Elevation  float64    `xml:"ele"`
	Time       time.Time  `xml:"time"`
	Extensions Extensions `xml:"extensions"`
}

// ExtensionField is one leaf metadata entry of a point.
type ExtensionField struct {
	Name  xml.Name
	Value string
}

// Extensions is the ordered flat list of a point's leaf metadata entries.
type Extensions []ExtensionField

// UnmarshalXML consumes one <extensions> element and appends its leaf
// descendants in document order. An element with no child elements is a leaf;
// its value is the trimmed character data.
func (e *Extensions) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			fields, err := collectLeaves(d, t, *e)
			if err != nil {
				return err
			}
			*e = fields
		case xml.EndElement:
			return nil
		}
	}
}

// collectLeaves consumes the element opened by start and appends its leaf
// descendants to out. start itself counts as a leaf when it contains no child
// elements.
func collectLeaves(d *xml.Decoder, start xml.StartElement, out Extensions) (Extensions, error) {
	var (
		text     strings.Builder
		hasChild bool
	)
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			hasChild = true
			out, err = collectLeaves(d, t, out)
			if err != nil {
				return nil, err
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if !hasChild {
				out = append(out, ExtensionField{
					Name:  start.Name,
					Value: strings.TrimSpace(text.String()),
				})
			}
			return out, nil
		}
	}
}

// ParseError reports a track file that could not be read or parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse track file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a single GPX document from r and returns its tracks. A document
// without tracks yields no tracks and no error.
func Parse(r io.Reader) ([]Track, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Tracks, nil
}

// ParseFile parses the GPX file at path. Open and decode failures are both
// reported as *ParseError carrying the path.
func ParseFile(path string) ([]Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	tracks, err := Parse(f)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return tracks, nil
}
