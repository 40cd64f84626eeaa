package tree

import "github.com/madwave-project/madwave/procmap"

// Copy implements §3's "Lifecycle of a tree": a shallow copy shares the
// underlying container handle (same lifetime, same backing shard); a deep
// copy produces a new, initially empty container and replays every
// locally-owned node into it.
func (t *Tree[T]) Copy(deep bool) *Tree[T] {
	if !deep {
		shallow := *t
		return &shallow
	}

	out := t.emptyLike()
	t.cnt.ForEachLocal(func(pk procmap.Key, n Node[T]) {
		k := fromProcmap(pk)
		var cp Node[T]
		cp.HasChildren = n.HasChildren
		cp.NormTree = n.NormTree
		if n.HasCoeff() {
			cp.Coeff = n.Coeff.Clone()
		} else {
			cp.Coeff = n.Coeff
		}
		out.set(k, cp)
	})
	out.mode = t.mode
	return out
}
