// Package split implements the two split-search algorithms the tree
// builder calls at each candidate node: a numerical-feature split via an
// incremental SSE/Gini sweep over sorted feature values, and a
// categorical-feature split via greedy category-set bipartition. Both
// return the NoAdmissibleSplit outcome as a NaN fitness rather than an
// error; that is a routine result, not a failure.
package split

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/uccs-tdoan/rf-ace/dataset"
	"github.com/uccs-tdoan/rf-ace/numeric"
)

// Result is what either split search returns: the fitness score, the
// partitioned sample index sets, and whichever of Threshold /
// LeftCategories+RightCategories applies to the feature kind that was
// split.
type Result struct {
	Fitness float64
	Left    []int
	Right   []int

	// Threshold is set by NumericalFeatureSplit: feature values <=
	// Threshold go left.
	Threshold float64

	// LeftCategories / RightCategories are set by CategoricalFeatureSplit.
	LeftCategories  []float64
	RightCategories []float64
}

// NoSplit reports whether r represents "no admissible split was found" —
// the routine NoAdmissibleSplit outcome, not an error.
func (r Result) NoSplit() bool {
	return numeric.IsMissing(r.Fitness)
}

func noSplit() Result {
	return Result{Fitness: numeric.Missing}
}

// numericalSplitFitness is spec.md's fitness formula for a variance-reducing
// split: larger is better, 1 is a perfectly pure split.
func numericalSplitFitness(seTot, seBest float64) float64 {
	return (seTot - seBest) / seTot
}

// categoricalSplitFitness is spec.md's fitness formula for a Gini-reducing
// split.
func categoricalSplitFitness(sfTot, nsfBest float64, nTot int) float64 {
	n := float64(nTot)
	return (-sfTot + n*nsfBest) / (n*n - sfTot)
}

// NumericalFeatureSplit searches for the best threshold split of feature
// column featureIdx against target column targetIdx, restricted to the
// rows named in sampleIcs, requiring at least minSamples rows on each
// side. targetIdx may be numerical or categorical; featureIdx must be
// numerical.
func NumericalFeatureSplit(ds *dataset.Dataset, targetIdx, featureIdx, minSamples int, sampleIcs []int) (Result, error) {
	if !ds.IsNumerical(featureIdx) {
		return Result{}, errors.Errorf("split: NumericalFeatureSplit requires a numerical feature column, got %q", ds.FeatureName(featureIdx))
	}
	if minSamples < 1 {
		return Result{}, errors.Errorf("split: minSamples must be >= 1, got %d", minSamples)
	}

	keptIcs, tv, fv := ds.FilteredAndSortedPair(targetIdx, featureIdx, sampleIcs)
	n := len(fv)
	if n < 2*minSamples {
		return noSplit(), nil
	}

	var bestSplitIdx int = -1
	var fitness float64

	if ds.IsNumerical(targetIdx) {
		bestSplitIdx, fitness = numericalTargetSweep(tv, fv, minSamples)
	} else {
		bestSplitIdx, fitness = categoricalTargetSweep(tv, fv, minSamples)
	}

	if bestSplitIdx < 0 {
		return noSplit(), nil
	}

	nLeft := bestSplitIdx + 1
	left := append([]int(nil), keptIcs[:nLeft]...)
	right := append([]int(nil), keptIcs[nLeft:]...)

	return Result{
		Fitness:   fitness,
		Left:      left,
		Right:     right,
		Threshold: fv[bestSplitIdx],
	}, nil
}

// numericalTargetSweep implements spec.md §4.4's numerical-target branch:
// precompute left-to-right SSE via the incremental-add recurrence, then
// sweep right-to-left tracking (n_r, mu_r, se_r) and the best combined
// SSE at each admissible boundary.
func numericalTargetSweep(tv, fv []float64, minSamples int) (bestSplitIdx int, fitness float64) {
	n := len(fv)
	bestSplitIdx = -1

	seLeft := make([]float64, n)
	nLeft, muLeft, se := 1, tv[0], 0.0
	seLeft[0] = 0
	for i := 1; i < n; i++ {
		nLeft, muLeft, se = numeric.MeanSSEAdd(nLeft+1, muLeft, se, tv[i])
		seLeft[i] = se
	}

	seTot := seLeft[n-1]
	seBest := seLeft[n-1]

	nRight, muRight, seRight := 0, 0.0, 0.0
	for i := n - 1; i >= minSamples; i-- {
		nRight, muRight, seRight = numeric.MeanSSEAdd(nRight+1, muRight, seRight, tv[i])

		if nRight < minSamples {
			continue
		}
		if fv[i-1] == fv[i] {
			continue
		}

		if seLeft[i-1]+seRight < seBest {
			bestSplitIdx = i - 1
			seBest = seLeft[i-1] + seRight
		}
	}

	if bestSplitIdx < 0 {
		return -1, numeric.Missing
	}
	return bestSplitIdx, numericalSplitFitness(seTot, seBest)
}

// categoricalTargetSweep implements spec.md §4.4's categorical-target
// branch: an analogous sweep maintaining squared-frequency sums instead of
// SSE. Both branches share one uniform `>= minSamples` admissibility guard
// (the asymmetric `>` vs `>=` guard in the original is not replicated).
func categoricalTargetSweep(tv, fv []float64, minSamples int) (bestSplitIdx int, fitness float64) {
	n := len(fv)
	bestSplitIdx = -1

	sfLeft := make([]float64, n)
	freqLeft := map[float64]int{tv[0]: 1}
	sfLeft[0] = 1
	nLeft := 1

	for i := 1; i < n; i++ {
		fc := freqLeft[tv[i]]
		var newSF float64
		newSF, freqLeft[tv[i]] = numeric.SquaredFrequencyAdd(sfLeft[i-1], fc)
		sfLeft[i] = newSF
		nLeft++
	}

	sfTot := sfLeft[n-1]
	nsfBest := sfLeft[n-1] / float64(nLeft)

	nRight := 0
	freqRight := map[float64]int{}
	sfRight := 0.0

	for i := n - 1; i >= minSamples; i-- {
		fc := freqRight[tv[i]]
		sfRight, freqRight[tv[i]] = numeric.SquaredFrequencyAdd(sfRight, fc)
		nRight++
		nLeft--

		if fv[i-1] == fv[i] {
			continue
		}

		if nRight >= minSamples && nLeft >= minSamples && float64(nRight)*sfLeft[i-1]+float64(nLeft)*sfRight > float64(nLeft*nRight)*nsfBest {
			bestSplitIdx = i - 1
			nsfBest = sfLeft[i-1]/float64(nLeft) + sfRight/float64(nRight)
		}
	}

	if bestSplitIdx < 0 {
		return -1, numeric.Missing
	}
	return bestSplitIdx, categoricalSplitFitness(sfTot, nsfBest, n)
}

// bucketKeys returns the distinct codes present in values, in ascending
// order — the "natural iteration order of the bucket map" spec.md §4.5
// uses for tie-breaking.
func bucketKeys(buckets map[float64][]int) []float64 {
	keys := make([]float64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}

// sortedCodes returns the codes of a remaining-categories set in the same
// ascending order bucketKeys gives the full bucket map.
func sortedCodes(remaining map[float64]bool) []float64 {
	keys := make([]float64, 0, len(remaining))
	for k := range remaining {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}

// CategoricalFeatureSplit searches for the best category bipartition of
// feature column featureIdx against target column targetIdx, restricted
// to the rows named in sampleIcs, requiring at least minSamples rows on
// each side.
func CategoricalFeatureSplit(ds *dataset.Dataset, targetIdx, featureIdx, minSamples int, sampleIcs []int) (Result, error) {
	if ds.IsNumerical(featureIdx) {
		return Result{}, errors.Errorf("split: CategoricalFeatureSplit requires a categorical feature column, got %q", ds.FeatureName(featureIdx))
	}
	if minSamples < 1 {
		return Result{}, errors.Errorf("split: minSamples must be >= 1, got %d", minSamples)
	}

	keptIcs, tv, fv := ds.FilteredPair(targetIdx, featureIdx, sampleIcs)
	n := len(fv)
	if n < 2*minSamples {
		return noSplit(), nil
	}

	buckets := map[float64][]int{}
	for i, code := range fv {
		buckets[code] = append(buckets[code], i)
	}

	var leftCodes map[float64]bool
	var fitness float64
	var nLeft, nRight int

	if ds.IsNumerical(targetIdx) {
		leftCodes, fitness, nLeft, nRight = greedyTransferNumericalTarget(tv, buckets, n)
	} else {
		leftCodes, fitness, nLeft, nRight = greedyTransferCategoricalTarget(tv, buckets, n)
	}

	if nLeft < minSamples || nRight < minSamples {
		return noSplit(), nil
	}

	left := make([]int, 0, nLeft)
	right := make([]int, 0, nRight)
	leftCats := []float64{}
	rightCats := []float64{}
	for _, code := range bucketKeys(buckets) {
		positions := buckets[code]
		if leftCodes[code] {
			leftCats = append(leftCats, code)
			for _, pos := range positions {
				left = append(left, keptIcs[pos])
			}
		} else {
			rightCats = append(rightCats, code)
			for _, pos := range positions {
				right = append(right, keptIcs[pos])
			}
		}
	}

	return Result{
		Fitness:         fitness,
		Left:            left,
		Right:           right,
		LeftCategories:  leftCats,
		RightCategories: rightCats,
	}, nil
}

// greedyTransferNumericalTarget implements spec.md §4.5's greedy
// category-transfer loop for a numerical target: it scores a candidate
// move by the SSE the left/right accumulators would have if that
// category's samples moved, computed by applying the incremental
// recurrences to copies of the accumulators rather than mutating and
// reverting the live ones.
func greedyTransferNumericalTarget(tv []float64, buckets map[float64][]int, n int) (leftCodes map[float64]bool, fitness float64, nLeft, nRight int) {
	leftCodes = map[float64]bool{}
	remaining := map[float64]bool{}
	for code := range buckets {
		remaining[code] = true
	}

	muRight, seRight := meanSSEOf(tv, allPositions(buckets))
	muLeft, seLeft := 0.0, 0.0
	nRight = n
	nLeft = 0

	seTot := seRight
	seBest := seRight

	// A move must beat the current best by more than floating-point drift;
	// an equal-SSE move is not an improvement.
	tol := 1e-9 * seTot

	for len(remaining) > 1 {
		var bestCode float64
		found := false
		var bestSeLeft, bestSeRight, bestMuLeft, bestMuRight float64
		var bestNLeft, bestNRight int

		for _, code := range sortedCodes(remaining) {
			positions := buckets[code]
			values := valuesAt(tv, positions)

			tryNLeft, tryMuLeft, trySeLeft := meanSSEAddAll(nLeft, muLeft, seLeft, values)
			tryNRight, tryMuRight, trySeRight := meanSSERemoveAll(nRight, muRight, seRight, values)

			if trySeLeft+trySeRight < seBest-tol {
				found = true
				bestCode = code
				seBest = trySeLeft + trySeRight
				bestSeLeft, bestSeRight = trySeLeft, trySeRight
				bestMuLeft, bestMuRight = tryMuLeft, tryMuRight
				bestNLeft, bestNRight = tryNLeft, tryNRight
			}
		}

		if !found {
			break
		}

		leftCodes[bestCode] = true
		delete(remaining, bestCode)
		muLeft, seLeft, nLeft = bestMuLeft, bestSeLeft, bestNLeft
		muRight, seRight, nRight = bestMuRight, bestSeRight, bestNRight
	}

	return leftCodes, numericalSplitFitness(seTot, seBest), nLeft, nRight
}

// greedyTransferCategoricalTarget is greedyTransferNumericalTarget's
// analogue for a categorical target, scoring candidate moves by squared
// frequency instead of SSE.
func greedyTransferCategoricalTarget(tv []float64, buckets map[float64][]int, n int) (leftCodes map[float64]bool, fitness float64, nLeft, nRight int) {
	leftCodes = map[float64]bool{}
	remaining := map[float64]bool{}
	for code := range buckets {
		remaining[code] = true
	}

	freqRight := map[float64]int{}
	sfRight := 0.0
	for _, pos := range allPositions(buckets) {
		fc := freqRight[tv[pos]]
		sfRight, freqRight[tv[pos]] = numeric.SquaredFrequencyAdd(sfRight, fc)
	}
	freqLeft := map[float64]int{}
	sfLeft := 0.0
	nRight = n
	nLeft = 0

	sfTot := sfRight
	nsfBest := sfRight / float64(nRight)

	for len(remaining) > 1 {
		var bestCode float64
		found := false
		var bestSfLeft, bestSfRight, bestNsf float64
		var bestNLeft, bestNRight int
		var bestFreqLeft, bestFreqRight map[float64]int

		for _, code := range sortedCodes(remaining) {
			positions := buckets[code]

			tryFreqLeft := cloneFreq(freqLeft)
			tryFreqRight := cloneFreq(freqRight)
			trySfLeft, trySfRight := sfLeft, sfRight
			tryNLeft, tryNRight := nLeft, nRight

			for _, pos := range positions {
				fc := tryFreqLeft[tv[pos]]
				trySfLeft, tryFreqLeft[tv[pos]] = numeric.SquaredFrequencyAdd(trySfLeft, fc)
				tryNLeft++

				fc = tryFreqRight[tv[pos]]
				trySfRight, tryFreqRight[tv[pos]], _ = numeric.SquaredFrequencyRemove(trySfRight, fc)
				tryNRight--
			}

			if float64(tryNRight)*trySfLeft+float64(tryNLeft)*trySfRight > float64(tryNLeft*tryNRight)*nsfBest {
				found = true
				bestCode = code
				bestSfLeft, bestSfRight = trySfLeft, trySfRight
				bestNLeft, bestNRight = tryNLeft, tryNRight
				bestNsf = trySfLeft/float64(tryNLeft) + trySfRight/float64(tryNRight)
				bestFreqLeft, bestFreqRight = tryFreqLeft, tryFreqRight
			}
		}

		if !found {
			break
		}

		leftCodes[bestCode] = true
		delete(remaining, bestCode)
		sfLeft, sfRight = bestSfLeft, bestSfRight
		nLeft, nRight = bestNLeft, bestNRight
		nsfBest = bestNsf
		freqLeft, freqRight = bestFreqLeft, bestFreqRight
	}

	return leftCodes, categoricalSplitFitness(sfTot, nsfBest, n), nLeft, nRight
}

func allPositions(buckets map[float64][]int) []int {
	var all []int
	for _, positions := range buckets {
		all = append(all, positions...)
	}
	return all
}

func valuesAt(tv []float64, positions []int) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = tv[p]
	}
	return out
}

func meanSSEOf(tv []float64, positions []int) (mu, se float64) {
	n := 0
	for _, p := range positions {
		n, mu, se = numeric.MeanSSEAdd(n+1, mu, se, tv[p])
	}
	return mu, se
}

// meanSSEAddAll applies MeanSSEAdd once per value in values, starting from
// (n, mu, se), without mutating any shared state, so a tentative move
// needs no mutate-then-revert trial.
func meanSSEAddAll(n int, mu, se float64, values []float64) (newN int, newMu, newSE float64) {
	newN, newMu, newSE = n, mu, se
	for _, v := range values {
		newN, newMu, newSE = numeric.MeanSSEAdd(newN+1, newMu, newSE, v)
	}
	return
}

// meanSSERemoveAll is meanSSEAddAll's removal counterpart.
func meanSSERemoveAll(n int, mu, se float64, values []float64) (newN int, newMu, newSE float64) {
	newN, newMu, newSE = n, mu, se
	for _, v := range values {
		var err error
		newN, newMu, newSE, err = numeric.MeanSSERemove(newN, newMu, newSE, v)
		if err != nil {
			// Only reachable if a trial asks to empty out the right side
			// entirely, which greedyTransferNumericalTarget never does
			// (it always leaves at least one category on the right while
			// len(remaining) > 1).
			panic(err)
		}
	}
	return
}

func cloneFreq(m map[float64]int) map[float64]int {
	out := make(map[float64]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
