package split

import (
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/pkg/errors"

	"github.com/uccs-tdoan/rf-ace/dataset"
)

// RenderSplit draws a single before/after split as a two-level graph: a
// root node holding the pre-split sample count, with a left and right
// child holding the partition sizes and the splitting rule. It exists for
// interactive inspection of one candidate split, not for rendering a
// whole tree.
func RenderSplit(ds *dataset.Dataset, featureIdx int, result Result) (*graphviz.Graphviz, *cgraph.Graph, error) {
	if result.NoSplit() {
		return nil, nil, errors.Errorf("split: RenderSplit requires an admissible split")
	}

	gv := graphviz.New()
	graph, err := gv.Graph()
	if err != nil {
		return nil, nil, errors.Errorf("split: RenderSplit creating graph: %v", err)
	}

	nTotal := len(result.Left) + len(result.Right)
	root, err := graph.CreateNode("split")
	if err != nil {
		return nil, nil, errors.Errorf("split: RenderSplit creating root node: %v", err)
	}
	root.Set("label", fmt.Sprintf("n=%d\n%s", nTotal, ruleDescription(ds, featureIdx, result)))

	left, err := graph.CreateNode("left")
	if err != nil {
		return nil, nil, errors.Errorf("split: RenderSplit creating left node: %v", err)
	}
	left.Set("label", fmt.Sprintf("left\nn=%d", len(result.Left)))
	left.Set("shape", "box")
	if _, err := graph.CreateEdge("", root, left); err != nil {
		return nil, nil, errors.Errorf("split: RenderSplit creating left edge: %v", err)
	}

	right, err := graph.CreateNode("right")
	if err != nil {
		return nil, nil, errors.Errorf("split: RenderSplit creating right node: %v", err)
	}
	right.Set("label", fmt.Sprintf("right\nn=%d", len(result.Right)))
	right.Set("shape", "box")
	if _, err := graph.CreateEdge("", root, right); err != nil {
		return nil, nil, errors.Errorf("split: RenderSplit creating right edge: %v", err)
	}

	return gv, graph, nil
}

func ruleDescription(ds *dataset.Dataset, featureIdx int, result Result) string {
	name := ds.FeatureName(featureIdx)
	if ds.IsNumerical(featureIdx) {
		return fmt.Sprintf("%s <= %6.5f", name, result.Threshold)
	}
	return fmt.Sprintf("%s in %v", name, result.LeftCategories)
}
