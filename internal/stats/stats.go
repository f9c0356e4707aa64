// Package stats implements the correlation toolkit: pairwise Pearson and
// Spearman, time-lagged correlation, and the first-order averaged partial
// correlation. Results that cannot be computed (too few pairs, zero
// variance, zero denominators) come back as nil and serialize to JSON null.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Pearson returns the Pearson correlation of two equal-length series, or
// nil when fewer than 2 pairs exist or either series has zero variance.
func Pearson(x, y []float64) *float64 {
	if len(x) != len(y) || len(x) < 2 {
		return nil
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}

// Spearman returns the Spearman rank correlation: Pearson over
// average-tie ranks.
func Spearman(x, y []float64) *float64 {
	if len(x) != len(y) || len(x) < 2 {
		return nil
	}
	return Pearson(rank(x), rank(y))
}

// rank assigns 1-based ranks with ties receiving their average rank.
func rank(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// TimeLag correlates a[t] against b[t-lag] over date-sorted series. The
// first lag elements of a and the last lag elements of b fall outside the
// overlap and are excluded. Returns nil when fewer than 2 pairs remain.
func TimeLag(a, b []float64, lag int) *float64 {
	if lag <= 0 || len(a) != len(b) || len(a) <= lag {
		return nil
	}
	return Pearson(a[lag:], b[:len(b)-lag])
}

// Partial removes the averaged linear association of the control variables
// from the x-y correlation using the first-order formula
//
//	(r_xy - mean(r_xz)*mean(r_yz)) / sqrt((1-mean(r_xz)^2)(1-mean(r_yz)^2))
//
// where r_xz and r_yz are computed per control and then averaged. This is a
// simplification of true multi-variable partial correlation, kept for
// behavioral compatibility with the dashboard. With zero controls it
// reduces to plain Pearson. Returns nil when fewer than 3 joint
// observations exist or the denominator is zero.
func Partial(x, y []float64, controls [][]float64) *float64 {
	if len(x) != len(y) || len(x) < 3 {
		return nil
	}
	rxy := Pearson(x, y)
	if rxy == nil {
		return nil
	}
	if len(controls) == 0 {
		return rxy
	}

	var sumXZ, sumYZ float64
	for _, z := range controls {
		rxz := Pearson(x, z)
		ryz := Pearson(y, z)
		if rxz == nil || ryz == nil {
			return nil
		}
		sumXZ += *rxz
		sumYZ += *ryz
	}
	meanXZ := sumXZ / float64(len(controls))
	meanYZ := sumYZ / float64(len(controls))

	denom := math.Sqrt((1 - meanXZ*meanXZ) * (1 - meanYZ*meanYZ))
	if denom == 0 {
		return nil
	}
	r := (*rxy - meanXZ*meanYZ) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil
	}
	return &r
}

// Heatmap computes the full pairwise Pearson matrix over the given columns,
// rounded to 3 decimals. Uncomputable cells are nil.
func Heatmap(columns [][]float64) [][]*float64 {
	n := len(columns)
	matrix := make([][]*float64, n)
	for i := range matrix {
		matrix[i] = make([]*float64, n)
		for j := range matrix[i] {
			r := Pearson(columns[i], columns[j])
			if r == nil {
				continue
			}
			v := Round3(*r)
			matrix[i][j] = &v
		}
	}
	return matrix
}

// Round3 rounds to 3 decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
