package ml

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// TreeNode is one node of a flattened regression tree.
// Samples with x[Feature] <= Threshold go Left.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

type TreeParams struct {
	NFeatures int        `json:"n_features"`
	Nodes     []TreeNode `json:"nodes"`
}

// Tree is a regression tree rooted at node 0.
type Tree struct {
	nFeatures int
	nodes     []TreeNode
}

// NewTree validates the node table. Children must point forward so traversal always terminates.
func NewTree(p TreeParams) (*Tree, error) {
	if p.NFeatures <= 0 {
		return nil, fmt.Errorf("%w: tree n_features must be positive", ErrShape)
	}
	if len(p.Nodes) == 0 {
		return nil, fmt.Errorf("%w: tree has no nodes", ErrShape)
	}
	for i, n := range p.Nodes {
		if n.Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= p.NFeatures {
			return nil, fmt.Errorf("%w: node %d splits on feature %d of %d", ErrShape, i, n.Feature, p.NFeatures)
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(p.Nodes) {
				return nil, fmt.Errorf("%w: node %d has invalid child %d", ErrShape, i, child)
			}
		}
	}
	nodes := make([]TreeNode, len(p.Nodes))
	copy(nodes, p.Nodes)
	return &Tree{nFeatures: p.NFeatures, nodes: nodes}, nil
}

func (t *Tree) NumFeatures() int { return t.nFeatures }

func (t *Tree) Predict(features []float64) ([]float64, error) {
	if err := checkWidth(len(features), t.nFeatures); err != nil {
		return nil, err
	}
	return []float64{t.eval(features)}, nil
}

func (t *Tree) eval(x []float64) float64 {
	i := 0
	for !t.nodes[i].Leaf {
		n := t.nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.nodes[i].Value
}

type ForestParams struct {
	NFeatures int          `json:"n_features"`
	Trees     []TreeParams `json:"trees"`
}

// Forest averages the outputs of its trees.
type Forest struct {
	nFeatures int
	trees     []*Tree
}

func NewForest(p ForestParams) (*Forest, error) {
	if len(p.Trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrShape)
	}
	f := &Forest{nFeatures: p.NFeatures, trees: make([]*Tree, 0, len(p.Trees))}
	for i, tp := range p.Trees {
		if tp.NFeatures == 0 {
			tp.NFeatures = p.NFeatures
		}
		if tp.NFeatures != p.NFeatures {
			return nil, fmt.Errorf("%w: tree %d expects %d features, forest %d", ErrShape, i, tp.NFeatures, p.NFeatures)
		}
		tree, err := NewTree(tp)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		f.trees = append(f.trees, tree)
	}
	return f, nil
}

func (f *Forest) NumFeatures() int { return f.nFeatures }

func (f *Forest) Predict(features []float64) ([]float64, error) {
	if err := checkWidth(len(features), f.nFeatures); err != nil {
		return nil, err
	}
	outs := make([]float64, len(f.trees))
	for i, t := range f.trees {
		outs[i] = t.eval(features)
	}
	return []float64{floats.Sum(outs) / float64(len(outs))}, nil
}
