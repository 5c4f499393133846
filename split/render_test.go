package split

import (
	"path/filepath"
	"testing"

	"github.com/goccy/go-graphviz"

	"github.com/uccs-tdoan/rf-ace/dataset"
)

func TestRenderSplitNumericalFeature(t *testing.T) {
	ds := buildSplitDataset(t, dataset.Numerical, dataset.Numerical,
		[]string{"1", "2", "3", "4", "5", "6"},
		[]string{"1", "1", "2", "2", "3", "3"})

	result, err := NumericalFeatureSplit(ds, 0, 1, 1, allRows(6))
	if err != nil {
		t.Fatalf("NumericalFeatureSplit: %v", err)
	}

	gv, graph, err := RenderSplit(ds, 1, result)
	if err != nil {
		t.Fatalf("RenderSplit: %v", err)
	}

	path := filepath.Join(t.TempDir(), "split.svg")
	if err := gv.RenderFilename(graph, graphviz.SVG, path); err != nil {
		t.Fatalf("RenderFilename: %v", err)
	}
}

func TestRenderSplitRejectsNoSplit(t *testing.T) {
	if _, _, err := RenderSplit(nil, 0, noSplit()); err == nil {
		t.Fatalf("expected an error rendering a NoAdmissibleSplit result")
	}
}
