// Package procmap implements the process map π: Key → ProcessId of §3: a
// pure function deciding which rank owns a given tree node.
package procmap

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
)

// Key is the minimal shape procmap needs from a tree key — duplicated here
// (rather than importing package tree) to keep the dependency direction
// tree -> procmap, not the reverse.
type Key struct {
	N int
	L []int
}

// ProcessMap maps a Key to the rank that owns it.
type ProcessMap interface {
	Owner(k Key) int
	NumRanks() int
}

// DefaultMap hashes the key itself above level N0 and hashes an ancestor
// (truncated to N0) below it, preserving parent-child locality on the deep
// parts of the tree — the policy named in §3.
type DefaultMap struct {
	nranks int
	n0     int
}

// New constructs the default process map for a cluster of the given size.
// n0 is the level above which full-key hashing applies; levels at or below
// n0 hash the level-n0 ancestor instead, which is aistore's HRW-style trick
// of keeping a subtree's shallow levels co-located with the rest of that
// subtree.
func New(nranks, n0 int) *DefaultMap {
	if nranks < 1 {
		nranks = 1
	}
	if n0 < 0 {
		n0 = 0
	}
	return &DefaultMap{nranks: nranks, n0: n0}
}

func (m *DefaultMap) NumRanks() int { return m.nranks }

func (m *DefaultMap) Owner(k Key) int {
	if m.nranks == 1 {
		return 0
	}
	if k.N <= m.n0 {
		return m.hash(k) % m.nranks
	}
	anc := ancestorAt(k, m.n0)
	return m.hash(anc) % m.nranks
}

func (m *DefaultMap) hash(k Key) int {
	h := xxhash.New64()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k.N))
	h.Write(buf[:])
	for _, l := range k.L {
		binary.LittleEndian.PutUint64(buf[:], uint64(l))
		h.Write(buf[:])
	}
	return int(h.Sum64() % uint64(m.nranks))
}

func ancestorAt(k Key, n int) Key {
	out := Key{N: n, L: append([]int(nil), k.L...)}
	shift := k.N - n
	for i := range out.L {
		out.L[i] >>= uint(shift)
	}
	return out
}

// Single is the trivial single-process map, used by unit tests and the
// single-rank demo in cmd/madwavectl.
type Single struct{}

func (Single) Owner(Key) int  { return 0 }
func (Single) NumRanks() int { return 1 }
