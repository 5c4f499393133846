package dataset

import (
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/uccs-tdoan/rf-ace/numeric"
)

// NumericMatrixView materialises the named numerical columns as a
// samples x len(colIdx) *mat.Dense, row-major over samples, for callers
// (model fitting, diagnostics) that want a conventional matrix rather than
// per-column slices. Missing values pass through as NaN entries, which
// mat.Dense tolerates.
func (d *Dataset) NumericMatrixView(colIdx []int) (*mat.Dense, error) {
	for _, i := range colIdx {
		if !d.IsNumerical(i) {
			return nil, precondition("NumericMatrixView", "column %q is not numerical", d.columns[i].Name)
		}
	}

	nSamples := d.NSamples()
	raw := make([]float64, nSamples*len(colIdx))
	for col, i := range colIdx {
		values := d.columns[i].Values
		for row := 0; row < nSamples; row++ {
			raw[row*len(colIdx)+col] = values[row]
		}
	}
	return mat.NewDense(nSamples, len(colIdx), raw), nil
}

// OneHotView returns an NSamples() x NCategories(colIdx) *tensor.Dense
// one-hot encoding of a categorical column: row s has a 1 at the column
// corresponding to the category of sample s, and is all zero when sample
// s is Missing.
func (d *Dataset) OneHotView(colIdx int) (*tensor.Dense, error) {
	col := d.columns[colIdx]
	if col.Kind != Categorical {
		return nil, precondition("OneHotView", "column %q is not categorical", col.Name)
	}

	nSamples := d.NSamples()
	nCategories := len(col.Forward)

	oneHot := tensor.New(tensor.WithShape(nSamples, nCategories), tensor.Of(tensor.Float64))
	for row, v := range col.Values {
		if numeric.IsMissing(v) {
			continue
		}
		if err := oneHot.SetAt(1.0, row, int(v)); err != nil {
			return nil, precondition("OneHotView", "setting row %d category %v: %v", row, v, err)
		}
	}
	return oneHot, nil
}

// DumpColumnNPY snapshots a single numerical column to a .npy file. It
// exists for tests that want to pin a golden fixture on disk without
// committing a large literal slice; it is not a general tabular-file
// writer.
func (d *Dataset) DumpColumnNPY(colIdx int, path string) error {
	col := d.columns[colIdx]
	m := mat.NewDense(len(col.Values), 1, append([]float64(nil), col.Values...))

	f, err := os.Create(path)
	if err != nil {
		return precondition("DumpColumnNPY", "creating %q: %v", path, err)
	}
	defer f.Close()

	if err := npyio.Write(f, m); err != nil {
		return precondition("DumpColumnNPY", "writing %q: %v", path, err)
	}
	return nil
}

// LoadColumnNPY reads back a column dumped by DumpColumnNPY as a plain
// []float64, for test fixtures.
func LoadColumnNPY(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, precondition("LoadColumnNPY", "opening %q: %v", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, precondition("LoadColumnNPY", "reading header of %q: %v", path, err)
	}

	m := &mat.Dense{}
	if err := r.Read(m); err != nil {
		return nil, precondition("LoadColumnNPY", "reading %q: %v", path, err)
	}

	rows, _ := m.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.At(i, 0)
	}
	return out, nil
}
