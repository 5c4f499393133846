// Package dataset holds the in-memory feature matrix the split finder
// operates on: typed columns (numerical or categorical, with missing
// values), their permuted "contrast" shadows used as a null baseline, and
// the bootstrap/out-of-bag sampling over a column's non-missing rows.
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/uccs-tdoan/rf-ace/numeric"
	"github.com/uccs-tdoan/rf-ace/randgen"
)

// Kind distinguishes a numerical column from a categorical one.
type Kind int

const (
	Numerical Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "Categorical"
	}
	return "Numerical"
}

// contrastSuffix names a contrast shadow column relative to its source.
const contrastSuffix = "_CONTRAST"

// missingSpellings are the case-folded raw-value spellings that decode to
// numeric.Missing at load time.
var missingSpellings = map[string]bool{
	"":      true,
	"na":    true,
	"nan":   true,
	"n/a":   true,
	"null":  true,
	"?":     true,
	"#n/a":  true,
}

// FeatureColumn is one column of the feature matrix: either a run of
// numerical measurements or a run of categorical codes, with a
// bidirectional code<->label map for the latter. Missing observations are
// the numeric.Missing sentinel in Values regardless of Kind.
type FeatureColumn struct {
	Name    string
	Kind    Kind
	Values  []float64
	Forward map[string]float64 // categorical only
	Reverse map[float64]string // categorical only
}

// Dataset is the ordered collection of FeatureColumns (user columns
// followed by their contrast shadows), the sample identifiers they share,
// a name->position index, and the one RNG the Dataset owns for contrast
// permutation and bootstrap draws.
type Dataset struct {
	columns   []FeatureColumn
	sampleIDs []string
	nameIndex map[string]int
	rng       *randgen.Rng
}

// NewFromColumns builds a Dataset from a raw, already-column-oriented
// string matrix: rawColumns[i] holds nSamples string values for the i'th
// feature, names[i] is its header, kinds[i] its declared kind. Categorical
// values are encoded in first-seen order. Contrast shadows are
// materialised (one value-permuted copy per user column) and permuted
// once using a freshly seeded RNG; a negative seed draws from fallbackSeed
// instead of asking for reproducibility.
func NewFromColumns(names []string, kinds []Kind, rawColumns [][]string, sampleIDs []string, seed int64, fallbackSeed uint32) (*Dataset, error) {
	if len(names) != len(kinds) || len(names) != len(rawColumns) {
		return nil, precondition("NewFromColumns", "names (%d), kinds (%d) and rawColumns (%d) must have equal length", len(names), len(kinds), len(rawColumns))
	}

	nFeatures := len(names)
	nSamples := len(sampleIDs)

	columns := make([]FeatureColumn, 2*nFeatures)
	nameIndex := make(map[string]int, 2*nFeatures)

	for i := 0; i < nFeatures; i++ {
		if len(rawColumns[i]) != nSamples {
			return nil, precondition("NewFromColumns", "column %q has %d values, want %d (one per sample)", names[i], len(rawColumns[i]), nSamples)
		}
		if _, exists := nameIndex[names[i]]; exists {
			return nil, precondition("NewFromColumns", "duplicate feature header %q", names[i])
		}

		col, err := buildColumn(names[i], kinds[i], rawColumns[i])
		if err != nil {
			return nil, err
		}
		columns[i] = col
		nameIndex[names[i]] = i
	}

	for i := 0; i < nFeatures; i++ {
		contrast := columns[i]
		contrast.Name = columns[i].Name + contrastSuffix
		contrast.Values = append([]float64(nil), columns[i].Values...)
		columns[nFeatures+i] = contrast
		nameIndex[contrast.Name] = nFeatures + i
	}

	ds := &Dataset{
		columns:   columns,
		sampleIDs: append([]string(nil), sampleIDs...),
		nameIndex: nameIndex,
		rng:       randgen.New(seed, fallbackSeed),
	}

	if err := ds.PermuteContrasts(); err != nil {
		return nil, err
	}

	return ds, nil
}

func buildColumn(name string, kind Kind, raw []string) (FeatureColumn, error) {
	col := FeatureColumn{Name: name, Kind: kind, Values: make([]float64, len(raw))}

	if kind == Numerical {
		for i, s := range raw {
			if isMissingSpelling(s) {
				col.Values[i] = numeric.Missing
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return FeatureColumn{}, precondition("NewFromColumns", "column %q row %d: %q is not a valid number", name, i, s)
			}
			col.Values[i] = v
		}
		return col, nil
	}

	col.Forward = map[string]float64{}
	col.Reverse = map[float64]string{}
	nextCode := float64(0)
	for i, s := range raw {
		if isMissingSpelling(s) {
			col.Values[i] = numeric.Missing
			continue
		}
		code, seen := col.Forward[s]
		if !seen {
			code = nextCode
			col.Forward[s] = code
			col.Reverse[code] = s
			nextCode++
		}
		col.Values[i] = code
	}
	return col, nil
}

func isMissingSpelling(s string) bool {
	return missingSpellings[strings.ToLower(strings.TrimSpace(s))]
}

// ParseFeatureHeader decodes the loader's feature-header naming
// convention: a header is "<K><delimiter><name>" where K is "N"
// (numerical) or "C"/"B" (categorical). It returns an error for any other
// leading token. This is a pure helper restored for an external loader to
// reuse; NewFromColumns itself takes already-decided Kind values.
func ParseFeatureHeader(header string, delimiter byte) (Kind, string, error) {
	idx := strings.IndexByte(header, delimiter)
	if idx < 0 {
		return 0, "", precondition("ParseFeatureHeader", "header %q has no %q delimiter", header, string(delimiter))
	}
	typeToken, name := header[:idx], header[idx+1:]
	switch strings.ToUpper(typeToken) {
	case "N":
		return Numerical, name, nil
	case "C", "B":
		return Categorical, name, nil
	default:
		return 0, "", precondition("ParseFeatureHeader", "header %q has unrecognised type token %q", header, typeToken)
	}
}

// NFeatures returns the number of user columns (contrast shadows excluded).
func (d *Dataset) NFeatures() int { return len(d.columns) / 2 }

// NSamples returns the number of rows (shared across all columns).
func (d *Dataset) NSamples() int { return len(d.sampleIDs) }

// ColumnIndex returns the position of the named column, or an error if it
// does not exist.
func (d *Dataset) ColumnIndex(name string) (int, error) {
	idx, ok := d.nameIndex[name]
	if !ok {
		return 0, precondition("ColumnIndex", "feature %q does not exist", name)
	}
	return idx, nil
}

// IsNumerical reports whether column i holds numerical values.
func (d *Dataset) IsNumerical(i int) bool {
	return d.columns[i].Kind == Numerical
}

// FeatureName returns the name of column i.
func (d *Dataset) FeatureName(i int) string {
	return d.columns[i].Name
}

// SampleName returns the identifier of row i.
func (d *Dataset) SampleName(i int) string {
	return d.sampleIDs[i]
}

// NRealSamples counts the non-missing entries of column i.
func (d *Dataset) NRealSamples(i int) int {
	n := 0
	for _, v := range d.columns[i].Values {
		if !numeric.IsMissing(v) {
			n++
		}
	}
	return n
}

// NRealSamplesPair counts rows where both i and j are non-missing.
func (d *Dataset) NRealSamplesPair(i, j int) int {
	vi, vj := d.columns[i].Values, d.columns[j].Values
	n := 0
	for k := range vi {
		if !numeric.IsMissing(vi[k]) && !numeric.IsMissing(vj[k]) {
			n++
		}
	}
	return n
}

// NCategories returns the number of distinct categories observed in
// column i (zero for a numerical column).
func (d *Dataset) NCategories(i int) int {
	return len(d.columns[i].Forward)
}

// Categories returns the ordered list of category labels indexed by code,
// empty for a numerical column.
func (d *Dataset) Categories(i int) []string {
	col := d.columns[i]
	if col.Kind == Numerical {
		return nil
	}
	out := make([]string, len(col.Reverse))
	for code, label := range col.Reverse {
		out[int(code)] = label
	}
	return out
}

// RawValue renders the value of column i, row s, as a string: the number
// itself for Numerical columns, the category label for Categorical
// columns, or the canonical missing spelling.
func (d *Dataset) RawValue(i, s int) (string, error) {
	col := d.columns[i]
	v := col.Values[s]
	if numeric.IsMissing(v) {
		return "NA", nil
	}
	if col.Kind == Numerical {
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}
	label, ok := col.Reverse[v]
	if !ok {
		return "", precondition("RawValue", "column %q has no category registered for code %v", col.Name, v)
	}
	return label, nil
}

// PearsonCorrelation returns the Pearson correlation between columns i and
// j, restricted to rows where both are non-missing. Restored from the
// original implementation's equivalent accessor as a thin wrapper over
// numeric.PearsonCorrelation and the dataset's own filtered-pair view.
func (d *Dataset) PearsonCorrelation(i, j int) (float64, error) {
	sampleIcs := make([]int, d.NSamples())
	for k := range sampleIcs {
		sampleIcs[k] = k
	}
	_, tv, fv := d.FilteredPair(i, j, sampleIcs)
	return numeric.PearsonCorrelation(tv, fv)
}

// FilteredSingle returns the values of column i at the positions in
// sampleIcs that are non-missing, together with the surviving subset of
// sampleIcs in the same relative order.
func (d *Dataset) FilteredSingle(i int, sampleIcs []int) (keptIcs []int, values []float64) {
	col := d.columns[i].Values
	keptIcs = make([]int, 0, len(sampleIcs))
	values = make([]float64, 0, len(sampleIcs))
	for _, idx := range sampleIcs {
		v := col[idx]
		if numeric.IsMissing(v) {
			continue
		}
		keptIcs = append(keptIcs, idx)
		values = append(values, v)
	}
	return keptIcs, values
}

// FilteredPair returns the values of columns i and j at the positions in
// sampleIcs where both are non-missing, together with the surviving
// subset of sampleIcs.
func (d *Dataset) FilteredPair(i, j int, sampleIcs []int) (keptIcs []int, vi, vj []float64) {
	ci, cj := d.columns[i].Values, d.columns[j].Values
	keptIcs = make([]int, 0, len(sampleIcs))
	vi = make([]float64, 0, len(sampleIcs))
	vj = make([]float64, 0, len(sampleIcs))
	for _, idx := range sampleIcs {
		a, b := ci[idx], cj[idx]
		if numeric.IsMissing(a) || numeric.IsMissing(b) {
			continue
		}
		keptIcs = append(keptIcs, idx)
		vi = append(vi, a)
		vj = append(vj, b)
	}
	return keptIcs, vi, vj
}

// FilteredAndSortedPair is FilteredPair for (targetIdx, featureIdx)
// followed by a stable ascending sort on the feature values: it is the
// preparation step shared by the numerical-feature split search.
func (d *Dataset) FilteredAndSortedPair(targetIdx, featureIdx int, sampleIcs []int) (keptIcs []int, targetValues, featureValues []float64) {
	keptIcs, tv, fv := d.FilteredPair(targetIdx, featureIdx, sampleIcs)

	order := make([]int, len(fv))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return fv[order[a]] < fv[order[b]] })

	sortedIcs := make([]int, len(order))
	sortedTV := make([]float64, len(order))
	sortedFV := make([]float64, len(order))
	for i, o := range order {
		sortedIcs[i] = keptIcs[o]
		sortedTV[i] = tv[o]
		sortedFV[i] = fv[o]
	}
	return sortedIcs, sortedTV, sortedFV
}

// ReplaceColumnNumeric wholesale-replaces column i's values, turning it
// (or keeping it) Numerical. The new slice must have length NSamples().
func (d *Dataset) ReplaceColumnNumeric(i int, values []float64) error {
	if len(values) != d.NSamples() {
		return precondition("ReplaceColumnNumeric", "column %q: got %d values, want %d", d.columns[i].Name, len(values), d.NSamples())
	}
	d.columns[i].Kind = Numerical
	d.columns[i].Values = append([]float64(nil), values...)
	d.columns[i].Forward = nil
	d.columns[i].Reverse = nil
	return nil
}

// ReplaceColumnRaw wholesale-replaces column i's values from raw string
// labels, turning it (or keeping it) Categorical with a freshly assigned
// first-seen-order code map.
func (d *Dataset) ReplaceColumnRaw(i int, raw []string) error {
	if len(raw) != d.NSamples() {
		return precondition("ReplaceColumnRaw", "column %q: got %d values, want %d", d.columns[i].Name, len(raw), d.NSamples())
	}
	col, err := buildColumn(d.columns[i].Name, Categorical, raw)
	if err != nil {
		return err
	}
	d.columns[i] = col
	return nil
}

// Whitelist keeps only the named user columns (plus each one's paired
// contrast), rebuilding columns and nameIndex.
func (d *Dataset) Whitelist(names []string) error {
	keep := make([]bool, d.NFeatures())
	for _, name := range names {
		idx, err := d.ColumnIndex(name)
		if err != nil {
			return err
		}
		if idx >= d.NFeatures() {
			return precondition("Whitelist", "%q is a contrast column, not a user column", name)
		}
		keep[idx] = true
	}
	return d.rebuildColumns(keep)
}

// Blacklist keeps every user column except the named ones (plus each
// surviving column's paired contrast).
func (d *Dataset) Blacklist(names []string) error {
	keep := make([]bool, d.NFeatures())
	for i := range keep {
		keep[i] = true
	}
	for _, name := range names {
		idx, err := d.ColumnIndex(name)
		if err != nil {
			return err
		}
		if idx >= d.NFeatures() {
			return precondition("Blacklist", "%q is a contrast column, not a user column", name)
		}
		keep[idx] = false
	}
	return d.rebuildColumns(keep)
}

func (d *Dataset) rebuildColumns(keep []bool) error {
	nFeatures := d.NFeatures()

	nKept := 0
	for _, k := range keep {
		if k {
			nKept++
		}
	}

	newColumns := make([]FeatureColumn, 2*nKept)
	newNameIndex := make(map[string]int, 2*nKept)

	iter := 0
	for i := 0; i < nFeatures; i++ {
		if !keep[i] {
			continue
		}
		newColumns[iter] = d.columns[i]
		newNameIndex[d.columns[i].Name] = iter

		newColumns[nKept+iter] = d.columns[nFeatures+i]
		newNameIndex[d.columns[nFeatures+i].Name] = nKept + iter

		iter++
	}

	d.columns = newColumns
	d.nameIndex = newNameIndex
	return nil
}

// PermuteContrasts reshuffles every contrast column's values in place
// using a Fisher-Yates shuffle driven by the Dataset's RNG.
func (d *Dataset) PermuteContrasts() error {
	nFeatures := d.NFeatures()
	for i := nFeatures; i < 2*nFeatures; i++ {
		d.rng.ShuffleFloat64(d.columns[i].Values)
	}
	return nil
}

// Bootstrap draws an in-bag sample and its out-of-bag complement from the
// non-missing rows of column refColumn. withReplacement selects
// sampling-with-replacement; sampleFraction must be > 0, and, when
// sampling without replacement, <= 1. The in-bag list is returned sorted
// ascending; the out-of-bag list is the set difference realIndices \
// inBag.
func (d *Dataset) Bootstrap(withReplacement bool, sampleFraction float64, refColumn int) (inBag, outOfBag []int, err error) {
	if sampleFraction <= 0 {
		return nil, nil, precondition("Bootstrap", "sampleFraction must be > 0, got %v", sampleFraction)
	}
	if !withReplacement && sampleFraction > 1.0 {
		return nil, nil, precondition("Bootstrap", "sampling without replacement requires sampleFraction <= 1, got %v", sampleFraction)
	}

	var allIcs []int
	for i, v := range d.columns[refColumn].Values {
		if !numeric.IsMissing(v) {
			allIcs = append(allIcs, i)
		}
	}
	nReal := len(allIcs)
	nSamples := int(math.Floor(sampleFraction * float64(nReal)))

	inBag = make([]int, nSamples)
	if withReplacement {
		for i := 0; i < nSamples; i++ {
			inBag[i] = allIcs[d.rng.Intn(nReal)]
		}
	} else {
		perm := d.rng.PermuteInts(nReal)
		for i := 0; i < nSamples; i++ {
			inBag[i] = allIcs[perm[i]]
		}
	}
	sort.Ints(inBag)

	outOfBag = setDifferenceSorted(allIcs, inBag)
	return inBag, outOfBag, nil
}

// setDifferenceSorted returns the elements of sorted slice a that do not
// appear in sorted slice b.
func setDifferenceSorted(a, b []int) []int {
	out := make([]int, 0, len(a))
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			j++
			continue
		}
		out = append(out, v)
	}
	return out
}
