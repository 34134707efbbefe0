package models

import "time"

// Columns is the fixed column set of a PointTable, in persisted order.
var Columns = []string{"time", "latitude", "longitude", "speed", "course"}

// TrackPoint is one flattened GPS sample. Speed and Course are nil when the
// source point carried no matching metadata entry.
type TrackPoint struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     *float64  `json:"speed"`
	Course    *float64  `json:"course"`
}

// PointTable is an ordered row-per-point table with a fixed column set. Rows
// keep the order they were appended in; Drop removes rows but never reorders
// the survivors. The zero value has no column set and reports IsTabular false;
// use NewPointTable to get a usable table.
type PointTable struct {
	columns []string
	rows    []TrackPoint
}

// NewPointTable returns a table with the canonical column set and the given
// rows, in order.
func NewPointTable(rows ...TrackPoint) *PointTable {
	t := &PointTable{columns: Columns}
	t.rows = append(t.rows, rows...)
	return t
}

// IsTabular reports whether the table carries the canonical column set.
func (t *PointTable) IsTabular() bool {
	if t == nil || len(t.columns) != len(Columns) {
		return false
	}
	for i, c := range t.columns {
		if c != Columns[i] {
			return false
		}
	}
	return true
}

// Columns returns a copy of the table's column names.
func (t *PointTable) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

func (t *PointTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns the table's rows in order. The slice is the table's backing
// storage; callers must not modify it.
func (t *PointTable) Rows() []TrackPoint {
	if t == nil {
		return nil
	}
	return t.rows
}

// Append adds rows to the end of the table.
func (t *PointTable) Append(rows ...TrackPoint) {
	t.rows = append(t.rows, rows...)
}

// Latitudes returns the latitude column as a fresh slice.
func (t *PointTable) Latitudes() []float64 {
	return t.column(func(p TrackPoint) float64 { return p.Latitude })
}

// Longitudes returns the longitude column as a fresh slice.
func (t *PointTable) Longitudes() []float64 {
	return t.column(func(p TrackPoint) float64 { return p.Longitude })
}

func (t *PointTable) column(get func(TrackPoint) float64) []float64 {
	if t == nil {
		return nil
	}
	out := make([]float64, len(t.rows))
	for i, p := range t.rows {
		out[i] = get(p)
	}
	return out
}

// Drop removes the rows at the given indices in place, keeping the remaining
// rows in their original order. Duplicate and out-of-range indices are
// ignored.
func (t *PointTable) Drop(indices []int) {
	if t == nil || len(indices) == 0 || len(t.rows) == 0 {
		return
	}
	drop := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(t.rows) {
			drop[i] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := t.rows[:0]
	for i, row := range t.rows {
		if _, ok := drop[i]; ok {
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
}
