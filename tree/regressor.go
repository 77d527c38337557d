// Package tree implements a CART regression tree with squared-error splitting.
package tree

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/core/parallel"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// featureThreshold is the minimum gap between consecutive sorted values for a split candidate
	featureThreshold = 1e-7
	// parallelThreshold is the row count above which Predict fans out
	parallelThreshold = 1000
)

// Node represents a single node in a flattened tree.
// Left and Right are indices into Tree.Nodes, -1 for leaves.
type Node struct {
	Feature   int     // Feature index used for splitting (-1 for leaves)
	Threshold float64 // Samples with x[Feature] <= Threshold go left
	Left      int
	Right     int
	Value     float64 // Mean target of the samples reaching this node
	Samples   int
	Impurity  float64 // Mean squared deviation from Value
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.Left < 0
}

// DecisionTreeRegressor is a binary regression tree grown greedily by
// maximising the reduction in squared error. Features are scanned in index
// order and a candidate only replaces the current best when strictly better,
// so fitting is deterministic.
type DecisionTreeRegressor struct {
	model.BaseEstimator
	Params
	Nodes       []Node
	Importances []float64
	Depth       int
}

// NewDecisionTreeRegressor creates a regressor with unlimited depth,
// MinSamplesSplit=2 and MinSamplesLeaf=1 unless overridden.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	p := defaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return &DecisionTreeRegressor{Params: p}
}

// Fit grows the tree on X, y.
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	rows, cols, err := model.CheckFitInput("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if t.MinSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", t.MinSamplesSplit)
	}
	if t.MinSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", t.MinSamplesLeaf)
	}
	if t.MaxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative", t.MaxDepth)
	}
	t.Reset()

	target := model.Column(y)
	if err := errors.CheckNumericalStability("DecisionTreeRegressor.Fit", target); err != nil {
		return err
	}
	b := &builder{
		params:     t.Params,
		columns:    make([][]float64, cols),
		y:          target,
		importance: make([]float64, cols),
	}
	for j := 0; j < cols; j++ {
		b.columns[j] = mat.Col(nil, j, X)
	}

	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}
	b.build(idx, 0)

	total := 0.0
	for _, v := range b.importance {
		total += v
	}
	if total > 0 {
		for j := range b.importance {
			b.importance[j] /= total
		}
	}

	t.Nodes = b.nodes
	t.Importances = b.importance
	t.Depth = b.maxDepth
	t.SetFitted(cols)
	return nil
}

// Predict returns the leaf value reached by each row of X.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := t.CheckPredict("DecisionTreeRegressor", c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out.Set(i, 0, t.PredictRow(row))
		}
	})
	return out, nil
}

// PredictRow walks the tree for a single feature vector.
func (t *DecisionTreeRegressor) PredictRow(x []float64) float64 {
	id := 0
	for {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			id = n.Left
		} else {
			id = n.Right
		}
	}
}

// FeatureImportances returns the normalised total impurity decrease per feature.
func (t *DecisionTreeRegressor) FeatureImportances() []float64 {
	return append([]float64(nil), t.Importances...)
}

// NumLeaves returns the number of leaf nodes.
func (t *DecisionTreeRegressor) NumLeaves() int {
	n := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

type builder struct {
	params     Params
	columns    [][]float64
	y          []float64
	nodes      []Node
	importance []float64
	maxDepth   int
}

type split struct {
	feature   int
	threshold float64
	proxy     float64
}

func (b *builder) stats(idx []int) (mean, impurity float64) {
	for _, i := range idx {
		mean += b.y[i]
	}
	mean /= float64(len(idx))
	for _, i := range idx {
		d := b.y[i] - mean
		impurity += d * d
	}
	return mean, impurity / float64(len(idx))
}

// build appends the subtree for idx and returns its node index.
func (b *builder) build(idx []int, depth int) int {
	n := len(idx)
	mean, impurity := b.stats(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Left: -1, Right: -1, Value: mean, Samples: n, Impurity: impurity})
	if depth > b.maxDepth {
		b.maxDepth = depth
	}

	if n < b.params.MinSamplesSplit || n < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) ||
		impurity <= 1e-12*math.Max(1, mean*mean) {
		return id
	}

	best, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	col := b.columns[best.feature]
	left := make([]int, 0, n)
	right := make([]int, 0, n)
	for _, i := range idx {
		if col[i] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	node := &b.nodes[id]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = l
	node.Right = r

	decrease := float64(n)*impurity -
		float64(len(left))*b.nodes[l].Impurity -
		float64(len(right))*b.nodes[r].Impurity
	b.importance[best.feature] += decrease
	return id
}

// bestSplit scans every feature in order and returns the split with the
// largest proxy improvement sumL²/nL + sumR²/nR.
func (b *builder) bestSplit(idx []int) (split, bool) {
	n := len(idx)
	minLeaf := b.params.MinSamplesLeaf
	total := 0.0
	for _, i := range idx {
		total += b.y[i]
	}

	best := split{proxy: math.Inf(-1)}
	found := false
	sorted := make([]int, n)
	for f, col := range b.columns {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return col[sorted[a]] < col[sorted[c]] })

		sumLeft := 0.0
		for k := 0; k < n-1; k++ {
			sumLeft += b.y[sorted[k]]
			nLeft := k + 1
			nRight := n - nLeft
			if nLeft < minLeaf {
				continue
			}
			if nRight < minLeaf {
				break
			}
			cur, next := col[sorted[k]], col[sorted[k+1]]
			if next <= cur+featureThreshold {
				continue
			}
			sumRight := total - sumLeft
			proxy := sumLeft*sumLeft/float64(nLeft) + sumRight*sumRight/float64(nRight)
			if proxy > best.proxy {
				threshold := cur/2 + next/2
				if threshold == next || math.IsInf(threshold, 0) || math.IsNaN(threshold) {
					threshold = cur
				}
				best = split{feature: f, threshold: threshold, proxy: proxy}
				found = true
			}
		}
	}
	return best, found
}
