// Package metrics measures how stable the ranker's top-K output is from
// one tick to the next. Integer rounding in swapmath and the optimizer's
// sampling make the profit function's unimodality only approximate (see
// internal/optimize's doc comment); a ranking that flips wildly between
// ticks on near-identical reserves is a signal worth surfacing even though
// it isn't a bug on its own. AdjustedRandIndex and VariationOfInformation
// apply the standard partition-agreement math to two ticks' top-K cycle
// rankings once they're reduced to a shared label space.
package metrics

import "math"

// AdjustedRandIndex computes the Adjusted Rand Index between two label
// assignments over the same n items. 1.0 is perfect agreement, 0.0 is
// what random agreement would produce, negative is worse than random.
func AdjustedRandIndex(a, b []int) float64 {
	n := len(a)
	if n != len(b) || n < 2 {
		return 0.0
	}

	nij, rowSums, colSums := contingency(a, b)

	sumNijC2 := 0.0
	for i := range nij {
		for j := range nij[i] {
			sumNijC2 += comb2(nij[i][j])
		}
	}
	sumAiC2 := sumComb2(rowSums)
	sumBjC2 := sumComb2(colSums)

	nC2 := comb2(n)
	if nC2 == 0 {
		return 0.0
	}

	expected := (sumAiC2 * sumBjC2) / nC2
	maxIndex := 0.5 * (sumAiC2 + sumBjC2)

	denom := maxIndex - expected
	if math.Abs(denom) < 1e-12 {
		return 1.0
	}
	return (sumNijC2 - expected) / denom
}

// VariationOfInformation computes the information-theoretic distance
// between two label assignments. 0.0 means identical partitions; higher is
// more divergent.
func VariationOfInformation(a, b []int) float64 {
	n := len(a)
	if n != len(b) || n < 2 {
		return 0.0
	}
	nf := float64(n)

	nij, rowSums, colSums := contingency(a, b)

	hAGivenB := 0.0
	for i := range nij {
		for j := range nij[i] {
			if nij[i][j] > 0 && colSums[j] > 0 {
				pij := float64(nij[i][j]) / nf
				hAGivenB -= pij * math.Log2(float64(nij[i][j])/float64(colSums[j]))
			}
		}
	}

	hBGivenA := 0.0
	for i := range nij {
		for j := range nij[i] {
			if nij[i][j] > 0 && rowSums[i] > 0 {
				pij := float64(nij[i][j]) / nf
				hBGivenA -= pij * math.Log2(float64(nij[i][j])/float64(rowSums[i]))
			}
		}
	}

	return hAGivenB + hBGivenA
}

// TopKOverlap reports the Jaccard overlap (0..1) of two ticks' top-K cycle
// identifiers. 1.0 means the same set of cycles ranked, regardless of
// order; 0.0 means no overlap at all. This is the cheap, order-insensitive
// complement to AdjustedRandIndex/VariationOfInformation, which need a
// fixed universe of labeled items and so only apply once both ticks are
// reduced to a shared key space by the caller.
func TopKOverlap(prevKeys, currKeys []string) float64 {
	if len(prevKeys) == 0 && len(currKeys) == 0 {
		return 1.0
	}

	prev := make(map[string]bool, len(prevKeys))
	for _, k := range prevKeys {
		prev[k] = true
	}
	curr := make(map[string]bool, len(currKeys))
	for _, k := range currKeys {
		curr[k] = true
	}

	intersection := 0
	union := make(map[string]bool, len(prev)+len(curr))
	for k := range prev {
		union[k] = true
		if curr[k] {
			intersection++
		}
	}
	for k := range curr {
		union[k] = true
	}
	if len(union) == 0 {
		return 1.0
	}
	return float64(intersection) / float64(len(union))
}

func contingency(a, b []int) (nij [][]int, rowSums, colSums []int) {
	aLabels := uniqueLabels(a)
	bLabels := uniqueLabels(b)

	aMap := make(map[int]int, len(aLabels))
	for i, l := range aLabels {
		aMap[l] = i
	}
	bMap := make(map[int]int, len(bLabels))
	for i, l := range bLabels {
		bMap[l] = i
	}

	nij = make([][]int, len(aLabels))
	for i := range nij {
		nij[i] = make([]int, len(bLabels))
	}
	for k := range a {
		nij[aMap[a[k]]][bMap[b[k]]]++
	}

	rowSums = make([]int, len(aLabels))
	colSums = make([]int, len(bLabels))
	for i := range nij {
		for j := range nij[i] {
			rowSums[i] += nij[i][j]
			colSums[j] += nij[i][j]
		}
	}
	return nij, rowSums, colSums
}

func sumComb2(counts []int) float64 {
	total := 0.0
	for _, c := range counts {
		total += comb2(c)
	}
	return total
}

func comb2(n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(n) * float64(n-1) / 2.0
}

func uniqueLabels(labels []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
