package metrics

import (
	"math"
	"testing"
)

func TestAdjustedRandIndexPerfectAgreement(t *testing.T) {
	a := []int{0, 0, 1, 1, 2, 2}
	b := []int{0, 0, 1, 1, 2, 2}

	if got := AdjustedRandIndex(a, b); math.Abs(got-1.0) > 0.01 {
		t.Fatalf("expected ARI=1.0 for perfect agreement, got %f", got)
	}
}

func TestAdjustedRandIndexDissimilarPartitions(t *testing.T) {
	a := []int{0, 0, 0, 1, 1, 1}
	b := []int{0, 1, 0, 1, 0, 1}

	if got := AdjustedRandIndex(a, b); got > 0.5 {
		t.Fatalf("expected ARI near 0 for dissimilar partitions, got %f", got)
	}
}

func TestVariationOfInformationIdentical(t *testing.T) {
	a := []int{0, 0, 1, 1, 2, 2}
	if got := VariationOfInformation(a, a); got > 0.01 {
		t.Fatalf("expected VI=0 for identical partitions, got %f", got)
	}
}

func TestTopKOverlapIdenticalSets(t *testing.T) {
	keys := []string{"a", "b", "c"}
	if got := TopKOverlap(keys, keys); got != 1.0 {
		t.Fatalf("expected overlap 1.0 for identical sets, got %f", got)
	}
}

func TestTopKOverlapDisjointSets(t *testing.T) {
	if got := TopKOverlap([]string{"a", "b"}, []string{"c", "d"}); got != 0.0 {
		t.Fatalf("expected overlap 0.0 for disjoint sets, got %f", got)
	}
}

func TestTopKOverlapPartialOverlap(t *testing.T) {
	got := TopKOverlap([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	want := 2.0 / 4.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected overlap %f, got %f", want, got)
	}
}

func TestTopKOverlapBothEmpty(t *testing.T) {
	if got := TopKOverlap(nil, nil); got != 1.0 {
		t.Fatalf("expected overlap 1.0 for two empty ticks, got %f", got)
	}
}
