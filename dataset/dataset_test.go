package dataset

import (
	"math"
	"testing"

	"github.com/uccs-tdoan/rf-ace/numeric"
)

func buildTestDataset(t *testing.T) *Dataset {
	t.Helper()
	names := []string{"age", "color"}
	kinds := []Kind{Numerical, Categorical}
	raw := [][]string{
		{"10", "20", "NA", "40"},
		{"R", "G", "R", "B"},
	}
	samples := []string{"s1", "s2", "s3", "s4"}

	ds, err := NewFromColumns(names, kinds, raw, samples, 42, 0)
	if err != nil {
		t.Fatalf("NewFromColumns: %v", err)
	}
	return ds
}

func TestNewFromColumnsShape(t *testing.T) {
	ds := buildTestDataset(t)

	if ds.NFeatures() != 2 {
		t.Fatalf("NFeatures() = %d, want 2", ds.NFeatures())
	}
	if ds.NSamples() != 4 {
		t.Fatalf("NSamples() = %d, want 4", ds.NSamples())
	}
	if !ds.IsNumerical(0) {
		t.Fatalf("column 0 should be numerical")
	}
	if ds.IsNumerical(1) {
		t.Fatalf("column 1 should be categorical")
	}
}

func TestMissingSpellingDecodesToSentinel(t *testing.T) {
	ds := buildTestDataset(t)
	if !numeric.IsMissing(ds.columns[0].Values[2]) {
		t.Fatalf("row 2 of 'age' should be Missing")
	}
	if ds.NRealSamples(0) != 3 {
		t.Fatalf("NRealSamples(age) = %d, want 3", ds.NRealSamples(0))
	}
}

func TestCategoricalForwardReverseAreInverses(t *testing.T) {
	ds := buildTestDataset(t)
	colorIdx, err := ds.ColumnIndex("color")
	if err != nil {
		t.Fatalf("ColumnIndex: %v", err)
	}
	col := ds.columns[colorIdx]

	for label, code := range col.Forward {
		if col.Reverse[code] != label {
			t.Fatalf("forward/reverse mismatch: %q -> %v -> %q", label, code, col.Reverse[code])
		}
	}
	for code, label := range col.Reverse {
		if col.Forward[label] != code {
			t.Fatalf("reverse/forward mismatch: %v -> %q -> %v", code, label, col.Forward[label])
		}
	}
}

func TestContrastColumnHasSuffixedNameAndSameMultiset(t *testing.T) {
	ds := buildTestDataset(t)
	nFeatures := ds.NFeatures()

	for i := 0; i < nFeatures; i++ {
		user := ds.columns[i]
		contrast := ds.columns[nFeatures+i]

		if contrast.Name != user.Name+"_CONTRAST" {
			t.Fatalf("contrast name = %q, want %q", contrast.Name, user.Name+"_CONTRAST")
		}

		userCounts := map[float64]int{}
		contrastCounts := map[float64]int{}
		for _, v := range user.Values {
			userCounts[v]++
		}
		for _, v := range contrast.Values {
			contrastCounts[v]++
		}
		for v, c := range userCounts {
			if !numeric.IsMissing(v) && contrastCounts[v] != c {
				t.Fatalf("contrast multiset mismatch for value %v: user has %d, contrast has %d", v, c, contrastCounts[v])
			}
		}
	}
}

func TestWhitelistKeepsPairedContrast(t *testing.T) {
	ds := buildTestDataset(t)
	if err := ds.Whitelist([]string{"color"}); err != nil {
		t.Fatalf("Whitelist: %v", err)
	}
	if ds.NFeatures() != 1 {
		t.Fatalf("NFeatures() after whitelist = %d, want 1", ds.NFeatures())
	}
	if ds.FeatureName(0) != "color" {
		t.Fatalf("FeatureName(0) = %q, want color", ds.FeatureName(0))
	}
	if ds.FeatureName(1) != "color_CONTRAST" {
		t.Fatalf("FeatureName(1) = %q, want color_CONTRAST", ds.FeatureName(1))
	}
}

func TestBlacklistDropsNamedColumn(t *testing.T) {
	ds := buildTestDataset(t)
	if err := ds.Blacklist([]string{"age"}); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}
	if ds.NFeatures() != 1 {
		t.Fatalf("NFeatures() after blacklist = %d, want 1", ds.NFeatures())
	}
	if ds.FeatureName(0) != "color" {
		t.Fatalf("FeatureName(0) = %q, want color", ds.FeatureName(0))
	}
}

func TestReplaceColumnNumericRejectsLengthMismatch(t *testing.T) {
	ds := buildTestDataset(t)
	if err := ds.ReplaceColumnNumeric(0, []float64{1, 2}); err == nil {
		t.Fatalf("expected an error for a length mismatch")
	}
}

func TestReplaceColumnNumericRoundTrip(t *testing.T) {
	ds := buildTestDataset(t)
	newValues := []float64{1, 2, 3, 4}
	if err := ds.ReplaceColumnNumeric(0, newValues); err != nil {
		t.Fatalf("ReplaceColumnNumeric: %v", err)
	}
	for i, v := range newValues {
		if ds.columns[0].Values[i] != v {
			t.Fatalf("column 0 value %d = %v, want %v", i, ds.columns[0].Values[i], v)
		}
	}
}

func TestBootstrapInvariants(t *testing.T) {
	ds := buildTestDataset(t)
	ageIdx, _ := ds.ColumnIndex("age")

	inBag, outOfBag, err := ds.Bootstrap(true, 1.0, ageIdx)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	for _, idx := range inBag {
		if numeric.IsMissing(ds.columns[ageIdx].Values[idx]) {
			t.Fatalf("in-bag index %d references a Missing value", idx)
		}
	}
	for _, idx := range outOfBag {
		if numeric.IsMissing(ds.columns[ageIdx].Values[idx]) {
			t.Fatalf("out-of-bag index %d references a Missing value", idx)
		}
	}

	seen := map[int]bool{}
	for _, idx := range append(append([]int{}, inBag...), outOfBag...) {
		seen[idx] = true
	}
	for idx, v := range ds.columns[ageIdx].Values {
		if !numeric.IsMissing(v) && !seen[idx] {
			t.Fatalf("real index %d missing from inBag union outOfBag", idx)
		}
	}
}

func TestBootstrapWithoutReplacementRejectsOversample(t *testing.T) {
	ds := buildTestDataset(t)
	ageIdx, _ := ds.ColumnIndex("age")
	if _, _, err := ds.Bootstrap(false, 1.5, ageIdx); err == nil {
		t.Fatalf("expected an error sampling >100%% without replacement")
	}
}

func TestBootstrapWithoutReplacementHasNoOverlap(t *testing.T) {
	ds := buildTestDataset(t)
	ageIdx, _ := ds.ColumnIndex("age")

	inBag, outOfBag, err := ds.Bootstrap(false, 1.0, ageIdx)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	inBagSet := map[int]bool{}
	for _, idx := range inBag {
		inBagSet[idx] = true
	}
	for _, idx := range outOfBag {
		if inBagSet[idx] {
			t.Fatalf("index %d present in both inBag and outOfBag", idx)
		}
	}
}

func TestBootstrapDeterministicGivenSeed(t *testing.T) {
	names := []string{"age"}
	kinds := []Kind{Numerical}
	raw := [][]string{{"10", "20", "30", "40", "50", "60"}}
	samples := []string{"s1", "s2", "s3", "s4", "s5", "s6"}

	dsA, err := NewFromColumns(names, kinds, raw, samples, 42, 0)
	if err != nil {
		t.Fatalf("NewFromColumns: %v", err)
	}
	dsB, err := NewFromColumns(names, kinds, raw, samples, 42, 0)
	if err != nil {
		t.Fatalf("NewFromColumns: %v", err)
	}

	for i := range dsA.columns[1].Values {
		if dsA.columns[1].Values[i] != dsB.columns[1].Values[i] {
			t.Fatalf("contrast permutation diverged at %d: %v vs %v", i, dsA.columns[1].Values[i], dsB.columns[1].Values[i])
		}
	}

	inBagA, outOfBagA, err := dsA.Bootstrap(true, 1.0, 0)
	if err != nil {
		t.Fatalf("Bootstrap A: %v", err)
	}
	inBagB, outOfBagB, err := dsB.Bootstrap(true, 1.0, 0)
	if err != nil {
		t.Fatalf("Bootstrap B: %v", err)
	}
	for i := range inBagA {
		if inBagA[i] != inBagB[i] {
			t.Fatalf("inBag diverged at %d: %v vs %v", i, inBagA[i], inBagB[i])
		}
	}
	for i := range outOfBagA {
		if outOfBagA[i] != outOfBagB[i] {
			t.Fatalf("outOfBag diverged at %d: %v vs %v", i, outOfBagA[i], outOfBagB[i])
		}
	}
}

func TestFilteredPairDropsEitherMissing(t *testing.T) {
	ds := buildTestDataset(t)
	ageIdx, _ := ds.ColumnIndex("age")
	colorIdx, _ := ds.ColumnIndex("color")

	all := []int{0, 1, 2, 3}
	kept, tv, fv := ds.FilteredPair(ageIdx, colorIdx, all)

	if len(kept) != 3 {
		t.Fatalf("kept = %v, want 3 rows (row 2 has Missing age)", kept)
	}
	for i := range kept {
		if numeric.IsMissing(tv[i]) || numeric.IsMissing(fv[i]) {
			t.Fatalf("filtered pair at %d still has Missing", i)
		}
	}
}

func TestParseFeatureHeader(t *testing.T) {
	cases := []struct {
		header  string
		wantOk  bool
		wantKnd Kind
		wantNm  string
	}{
		{"N:age", true, Numerical, "age"},
		{"C:color", true, Categorical, "color"},
		{"B:flag", true, Categorical, "flag"},
		{"X:bogus", false, 0, ""},
	}
	for _, c := range cases {
		kind, name, err := ParseFeatureHeader(c.header, ':')
		if c.wantOk && err != nil {
			t.Fatalf("ParseFeatureHeader(%q): unexpected error %v", c.header, err)
		}
		if !c.wantOk && err == nil {
			t.Fatalf("ParseFeatureHeader(%q): expected error", c.header)
		}
		if c.wantOk {
			if kind != c.wantKnd || name != c.wantNm {
				t.Fatalf("ParseFeatureHeader(%q) = (%v,%q), want (%v,%q)", c.header, kind, name, c.wantKnd, c.wantNm)
			}
		}
	}
}

func TestPearsonCorrelationAgainstAnalyticLine(t *testing.T) {
	names := []string{"x", "y"}
	kinds := []Kind{Numerical, Numerical}
	raw := [][]string{
		{"1", "2", "3", "4", "5"},
		{"2", "4", "6", "8", "10"},
	}
	samples := []string{"a", "b", "c", "d", "e"}
	ds, err := NewFromColumns(names, kinds, raw, samples, 1, 0)
	if err != nil {
		t.Fatalf("NewFromColumns: %v", err)
	}
	corr, err := ds.PearsonCorrelation(0, 1)
	if err != nil {
		t.Fatalf("PearsonCorrelation: %v", err)
	}
	if math.Abs(corr-1) > 1e-9 {
		t.Fatalf("PearsonCorrelation = %v, want 1", corr)
	}
}
