// Package numeric collects the small numerical primitives the split
// finder builds on: the missing-value sentinel, a stable sort that keeps
// track of where each value came from, the incremental mean/SSE and
// squared-frequency recurrences used to score candidate splits in O(1)
// per sample, and a couple of whole-column summary statistics.
package numeric

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Missing is the canonical not-a-number sentinel used throughout the
// module to mark an absent observation.
var Missing = math.NaN()

// IsMissing reports whether x is the Missing sentinel. Its defining
// property is that it is not equal to itself, so this is just that
// check spelled out.
func IsMissing(x float64) bool {
	return x != x
}

// StableSortIndex filters Missing values out of values and returns the
// remaining values in ascending order together with a permutation perm
// such that sorted[i] == values[perm[i]]. Ties keep their original
// relative order (stable sort).
func StableSortIndex(values []float64) (sorted []float64, perm []int) {
	perm = make([]int, 0, len(values))
	sorted = make([]float64, 0, len(values))
	for i, v := range values {
		if IsMissing(v) {
			continue
		}
		perm = append(perm, i)
		sorted = append(sorted, v)
	}

	order := make([]int, len(sorted))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return sorted[order[a]] < sorted[order[b]] })

	outSorted := make([]float64, len(sorted))
	outPerm := make([]int, len(perm))
	for i, o := range order {
		outSorted[i] = sorted[o]
		outPerm[i] = perm[o]
	}
	return outSorted, outPerm
}

// MeanSSEAdd applies the Welford incremental-add recurrence: adding
// sample x to an accumulator that currently holds n-1 samples (mean mu,
// sum of squared errors sse) yields the accumulator for n samples.
func MeanSSEAdd(n int, mu, sse, x float64) (newN int, newMu, newSSE float64) {
	newN = n
	delta := x - mu
	newMu = mu + delta/float64(newN)
	newSSE = sse + delta*(x-newMu)
	return
}

// MeanSSERemove is the exact inverse of MeanSSEAdd: removing sample x
// from an accumulator that currently holds n samples yields the
// accumulator for n-1 samples. It is undefined (and an error) to remove
// down to zero samples.
func MeanSSERemove(n int, mu, sse, x float64) (newN int, newMu, newSSE float64, err error) {
	if n <= 1 {
		return 0, 0, 0, errors.Errorf("numeric: cannot decrement accumulator below one sample (n=%d)", n)
	}
	delta := x - mu
	newN = n - 1
	newMu = mu - delta/float64(newN)
	newSSE = sse - delta*(x-newMu)
	return
}

// SquaredFrequencyAdd applies the incremental-add recurrence for Sigma
// fc^2 over a categorical multiset: fc is the current count of the
// category being incremented, sf is the running sum of squared counts.
func SquaredFrequencyAdd(sf float64, fc int) (newSF float64, newFC int) {
	newSF = sf + 2*float64(fc) + 1
	newFC = fc + 1
	return
}

// SquaredFrequencyRemove is the exact inverse of SquaredFrequencyAdd. fc
// must be at least one.
func SquaredFrequencyRemove(sf float64, fc int) (newSF float64, newFC int, err error) {
	if fc < 1 {
		return 0, 0, errors.Errorf("numeric: cannot decrement a category frequency below zero (fc=%d)", fc)
	}
	newSF = sf - 2*float64(fc) + 1
	newFC = fc - 1
	return
}

// Mean returns the arithmetic mean of values, ignoring Missing entries.
func Mean(values []float64) float64 {
	real := realValues(values)
	if len(real) == 0 {
		return Missing
	}
	return stat.Mean(real, nil)
}

// Variance returns the sample variance of values, ignoring Missing
// entries.
func Variance(values []float64) float64 {
	real := realValues(values)
	if len(real) < 2 {
		return Missing
	}
	_, variance := stat.MeanVariance(real, nil)
	return variance
}

// PearsonCorrelation returns the Pearson product-moment correlation
// between x and y, restricted to positions where both are non-missing.
func PearsonCorrelation(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.Errorf("numeric: PearsonCorrelation operands have different lengths (%d vs %d)", len(x), len(y))
	}
	var xs, ys []float64
	for i := range x {
		if IsMissing(x[i]) || IsMissing(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return Missing, nil
	}
	return stat.Correlation(xs, ys, nil), nil
}

func realValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}
