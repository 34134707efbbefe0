// Package anomaly removes positionally anomalous samples from point tables
// using standardized scores.
package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Piotrekszmel/gpx-tracks-etl/internal/models"
)

// DefaultThreshold is the z-score magnitude beyond which a position sample
// counts as anomalous.
const DefaultThreshold = 3.0

// Filter removes every row whose latitude or longitude deviates from its
// column mean by strictly more than threshold standard deviations. Both
// columns are standardized once over the table as given (population standard
// deviation); statistics are not recomputed as rows are removed, so survivors
// are judged against the pre-removal columns. Surviving rows keep their
// relative order.
//
// Tables with fewer than two rows are left untouched, and a column with zero
// standard deviation contributes no removals: standardized scores are
// undefined there and never count as exceeding the threshold.
func Filter(t *models.PointTable, threshold float64) {
	if t.Len() < 2 {
		return
	}
	outliers := columnOutliers(t.Latitudes(), threshold)
	outliers = append(outliers, columnOutliers(t.Longitudes(), threshold)...)
	t.Drop(outliers)
}

// columnOutliers returns the indices whose absolute z-score exceeds threshold.
func columnOutliers(values []float64, threshold float64) []int {
	mean := stat.Mean(values, nil)
	std := stat.PopStdDev(values, nil)
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return nil
	}
	var outliers []int
	for i, v := range values {
		if math.Abs((v-mean)/std) > threshold {
			outliers = append(outliers, i)
		}
	}
	return outliers
}
