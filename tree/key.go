// Package tree implements the Function Tree & Algorithms of §3/§4.4: the
// sharded 2^d-ary coefficient tree and every recursive algorithm defined
// over it. It is the centerpiece package of the module.
package tree

import (
	"fmt"

	"github.com/madwave-project/madwave/procmap"
)

// Key identifies a node: level n and a d-dimensional translation vector l in
// [0, 2^n)^d. The root is Key{N: 0, L: [0,...,0]}.
type Key struct {
	N int
	L []int
}

// RootKey returns the level-0 key for a d-dimensional tree.
func RootKey(d int) Key {
	return Key{N: 0, L: make([]int, d)}
}

// Dim returns the spatial dimension encoded by the key's translation vector.
func (k Key) Dim() int { return len(k.L) }

// Parent returns the key one level up, dropping the low bit of each
// coordinate, per §3 ("its parent drops the low bit of each coordinate and
// decrements n").
func (k Key) Parent() Key {
	p := Key{N: k.N - 1, L: make([]int, len(k.L))}
	for i, l := range k.L {
		p.L[i] = l >> 1
	}
	return p
}

// Child returns the key of the childIndex-th child (childIndex in
// [0, 2^d)), where bit i of childIndex selects the low or high half along
// axis i.
func (k Key) Child(childIndex int) Key {
	c := Key{N: k.N + 1, L: make([]int, len(k.L))}
	for i, l := range k.L {
		bit := (childIndex >> uint(i)) & 1
		c.L[i] = l<<1 | bit
	}
	return c
}

// ChildIndex reports which of its parent's 2^d children k is, the inverse of
// Child.
func (k Key) ChildIndex() int {
	idx := 0
	for i, l := range k.L {
		idx |= (l & 1) << uint(i)
	}
	return idx
}

// NumChildren returns 2^d for this key's dimension.
func (k Key) NumChildren() int { return 1 << uint(len(k.L)) }

// Equal reports structural equality.
func (k Key) Equal(o Key) bool {
	if k.N != o.N || len(k.L) != len(o.L) {
		return false
	}
	for i := range k.L {
		if k.L[i] != o.L[i] {
			return false
		}
	}
	return true
}

// Less implements §3's total order: first by level, then by a Morton-style
// interleave of the translation vector's bits.
func (k Key) Less(o Key) bool {
	if k.N != o.N {
		return k.N < o.N
	}
	return k.morton() < o.morton()
}

// morton interleaves the bits of L into a single comparable integer,
// matching the Morton-curve ordering named in §3.
func (k Key) morton() uint64 {
	var m uint64
	for bit := 0; bit < 21; bit++ {
		for i, l := range k.L {
			if l&(1<<uint(bit)) != 0 {
				m |= 1 << uint(bit*len(k.L)+i)
			}
		}
	}
	return m
}

func (k Key) String() string {
	return fmt.Sprintf("(%d;%v)", k.N, k.L)
}

// invalidKey is the sentinel returned by Neighbor when a zero boundary
// condition is crossed, per §4.4.8.
var invalidKey = Key{N: -1}

// Invalid reports whether k is the boundary-crossing sentinel.
func (k Key) Invalid() bool { return k.N < 0 }

func (k Key) toProcmap() procmap.Key { return procmap.Key{N: k.N, L: k.L} }

func fromProcmap(pk procmap.Key) Key { return Key{N: pk.N, L: pk.L} }
