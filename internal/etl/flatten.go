package etl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Piotrekszmel/gpx-tracks-etl/internal/gpx"
	"github.com/Piotrekszmel/gpx-tracks-etl/internal/models"
)

// Flatten converts nested track, segment and point structures into a
// row-per-point table, in traversal order. Speed and course come from point
// metadata (see metadataValue); points without a match leave the column
// absent. No row is dropped here.
func Flatten(tracks []gpx.Track) (*models.PointTable, error) {
	table := models.NewPointTable()
	for _, track := range tracks {
		for _, segment := range track.Segments {
			for _, point := range segment.Points {
				speed, err := metadataValue(point.Extensions, "speed")
				if err != nil {
					return nil, err
				}
				course, err := metadataValue(point.Extensions, "course")
				if err != nil {
					return nil, err
				}
				table.Append(models.TrackPoint{
					Time:      point.Time,
					Latitude:  point.Latitude,
					Longitude: point.Longitude,
					Speed:     speed,
					Course:    course,
				})
			}
		}
	}
	return table, nil
}

// metadataValue returns the parsed value of the first metadata entry whose
// local tag name contains substr (case-sensitive), or nil when no entry
// matches. A matching entry whose value does not parse as a float is an
// error.
func metadataValue(fields gpx.Extensions, substr string) (*float64, error) {
	for _, f := range fields {
		if !strings.Contains(f.Name.Local, substr) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s value %q: %w", substr, f.Value, err)
		}
		return &v, nil
	}
	return nil, nil
}
