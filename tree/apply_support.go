package tree

import "github.com/madwave-project/madwave/tensor"

// Leaves returns every locally-owned leaf key, for package apply's source
// enumeration in §4.4.6.
func (t *Tree[T]) Leaves() []Key {
	var out []Key
	t.walkLeaves(RootKey(t.d), &out)
	return out
}

// FindPublic exposes the local node lookup to other packages (apply,
// persist) without giving them access to the container directly.
func (t *Tree[T]) FindPublic(key Key) (Node[T], bool) {
	n := t.get(key)
	if n.Invalid() {
		return n, false
	}
	return n, true
}

// Accumulate implements §4.4.6's "accumulate into the destination node
// (creating it if absent, registering with parent)": patch is gaxpy-added
// into the existing coefficients, or installed directly if the node did
// not exist, and every ancestor up to the root is marked as having
// children so §3's connectivity invariant holds.
func (t *Tree[T]) Accumulate(key Key, patch *tensor.Tensor[T]) {
	n := t.get(key)
	if n.HasCoeff() {
		c := n.Coeff.Clone()
		c.Gaxpy(fromComplexParts[T](1, 0), patch, fromComplexParts[T](1, 0))
		n.Coeff = c
	} else {
		n.Coeff = patch.Clone()
	}
	n.NormTree = unsetNorm
	t.set(key, n)
	t.registerWithParent(key)
}

func (t *Tree[T]) registerWithParent(key Key) {
	for k := key; k.N > 0; {
		parent := k.Parent()
		pn := t.get(parent)
		if pn.HasChildren {
			return
		}
		pn.HasChildren = true
		if pn.Coeff == nil {
			pn.Coeff = tensor.EmptyTensor[T]()
		}
		t.set(parent, pn)
		k = parent
	}
}
