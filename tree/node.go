package tree

import (
	"math"

	"github.com/madwave-project/madwave/tensor"
)

// unsetNorm is the sentinel "unset" value for Node.NormTree, per §3 ("cached
// L2 norm of the subtree (computed on demand; sentinel 'unset' ≈ +∞)").
const unsetNorm = math.MaxFloat64

// Node is the per-key record of §3: {coeff, has_children, norm_tree}. Coeff
// is empty (Rank() == 0), scaling-only (first dim k), or scaling+wavelet
// (first dim 2k), depending on the owning tree's mode.
type Node[T tensor.Numeric] struct {
	Coeff       *tensor.Tensor[T]
	HasChildren bool
	NormTree    float64
}

func emptyNode[T tensor.Numeric]() Node[T] {
	return Node[T]{Coeff: tensor.EmptyTensor[T](), NormTree: unsetNorm}
}

// HasCoeff reports whether the node carries a non-empty coefficient tensor.
func (n Node[T]) HasCoeff() bool { return n.Coeff != nil && n.Coeff.Rank() > 0 }

// Invalid reports §3's transient invalid state: neither coefficients nor
// children, used only during remote construction.
func (n Node[T]) Invalid() bool { return !n.HasCoeff() && !n.HasChildren }

// newNode constructs a populated node with unset cached norm.
func newNode[T tensor.Numeric](coeff *tensor.Tensor[T], hasChildren bool) Node[T] {
	return Node[T]{Coeff: coeff, HasChildren: hasChildren, NormTree: unsetNorm}
}
