package tree

import (
	"context"
	"sync"

	"github.com/madwave-project/madwave/container"
	"github.com/madwave-project/madwave/internal/debug"
	"github.com/madwave-project/madwave/numerics"
	"github.com/madwave-project/madwave/procmap"
	"github.com/madwave-project/madwave/rml"
	"github.com/madwave-project/madwave/runtime"
	"github.com/madwave-project/madwave/tensor"
)

const module = "tree"

// Mode is one of the three global states named in §3.
type Mode int

const (
	Reconstructed Mode = iota
	Compressed
	NonStandard
)

// BC is one axis's boundary condition, a row of the d x 2 matrix of §6: low
// and high side each independently Zero or Periodic.
type BC struct {
	Lo, Hi BCKind
}

type BCKind int

const (
	Zero BCKind = iota
	Periodic
)

// TruncateMode selects one of §4.4.3's three truncate_tol policies.
type TruncateMode int

const (
	TruncatePlain TruncateMode = iota
	TruncateScaled
	TruncateScaledSquare
)

// Functor evaluates the represented function at one point of the unit
// hypercube; consumed by Project.
type Functor[T tensor.Numeric] func(x []float64) T

// Tree is the sharded 2^d-ary coefficient tree of §3, generic over element
// type and (at construction time, per DESIGN NOTES "Tree polymorphism by
// dimension") spatial dimension.
type Tree[T tensor.Numeric] struct {
	d    int
	k    int
	tab  *numerics.Tables
	thr  float64
	bc   []BC
	tmod TruncateMode

	rank    int
	pmap    procmap.ProcessMap
	cnt     *container.Container[Node[T]]
	pool    *runtime.Pool
	engine  *rml.Engine

	mode Mode

	mu sync.RWMutex // not taken anywhere: mode is read and written without locking; per-node access goes through cnt's own bucket locks
}

// Config bundles the construction parameters factory.New resolves before
// calling newTree; it is exported so package factory can build it, while
// user code goes through package factory rather than construct a Tree
// directly.
type Config[T tensor.Numeric] struct {
	D         int
	K         int
	Thresh    float64
	BC        []BC
	TruncMode TruncateMode
	Rank      int
	PMap      procmap.ProcessMap
	Engine    *rml.Engine
	Pool      *runtime.Pool
	HandlerID int32
	Durable   string
}

// New constructs a tree from a fully-resolved Config. User code is expected
// to go through package factory rather than call this directly.
func New[T tensor.Numeric](cfg Config[T]) *Tree[T] { return newTree(cfg) }

func newTree[T tensor.Numeric](cfg Config[T]) *Tree[T] {
	debug.Assertf(cfg.K >= 1 && cfg.K <= numerics.KMAX, "tree.New: k=%d out of range", cfg.K)
	debug.Assertf(len(cfg.BC) == cfg.D, "tree.New: bc must have one row per axis, got %d want %d", len(cfg.BC), cfg.D)

	var opts []container.Option
	if cfg.Durable != "" {
		opts = append(opts, container.WithDurable(cfg.Durable))
	}
	cnt := container.New[Node[T]](cfg.Rank, cfg.PMap, cfg.Engine, cfg.Pool, cfg.HandlerID, opts...)

	t := &Tree[T]{
		d: cfg.D, k: cfg.K, tab: numerics.Get(cfg.K), thr: cfg.Thresh, bc: cfg.BC, tmod: cfg.TruncMode,
		rank: cfg.Rank, pmap: cfg.PMap, cnt: cnt, pool: cfg.Pool, engine: cfg.Engine,
		mode: Reconstructed,
	}
	cnt.SetApply(t.onRemoteOp)
	return t
}

func (t *Tree[T]) Dim() int          { return t.d }
func (t *Tree[T]) Order() int        { return t.k }
func (t *Tree[T]) Thresh() float64   { return t.thr }
func (t *Tree[T]) Mode() Mode        { return t.mode }
func (t *Tree[T]) Tables() *numerics.Tables { return t.tab }

func (t *Tree[T]) owner(k Key) int { return t.pmap.Owner(k.toProcmap()) }

func (t *Tree[T]) local(k Key) bool { return t.owner(k) == t.rank }

// IsInterior reports whether key currently names a materialized interior
// node on the local shard.
func (t *Tree[T]) IsInterior(key Key) bool {
	n := t.get(key)
	return n.HasChildren
}

// get reads a node from the local shard, returning the §3 empty/invalid
// node if absent — presence of neither coefficients nor children is the
// ordinary "not materialized yet" state on a freshly constructed tree.
func (t *Tree[T]) get(k Key) Node[T] {
	n, ok := t.cnt.Find(k.toProcmap())
	if !ok {
		return emptyNode[T]()
	}
	return n
}

func (t *Tree[T]) set(k Key, n Node[T]) {
	t.cnt.Replace(k.toProcmap(), n)
}

func (t *Tree[T]) delete(k Key) {
	t.cnt.Delete(k.toProcmap())
}

// truncateTol implements §4.4.3's three policies.
func (t *Tree[T]) truncateTol(tol float64, key Key) float64 {
	switch t.tmod {
	case TruncateScaled:
		return tol * minf(1, pow2(-key.N)*t.minCellWidth())
	case TruncateScaledSquare:
		l := t.minCellWidth()
		return tol * minf(1, pow4(-key.N)*l*l)
	default:
		return tol
	}
}

func (t *Tree[T]) minCellWidth() float64 { return 1.0 }

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func pow2(n int) float64 {
	if n >= 0 {
		return float64(int(1) << uint(n))
	}
	v := 1.0
	for i := 0; i < -n; i++ {
		v /= 2
	}
	return v
}

func pow4(n int) float64 {
	v := pow2(n)
	return v * v
}

// fence is the collective barrier of §5. It does nothing: the algorithms of
// this package finish their local work before calling it, and no transport
// barrier is invoked even when an engine is attached. It is present so every
// algorithm's signature matches §4.4's documented fence flag.
func (t *Tree[T]) fence(ctx context.Context, doFence bool) {
	if !doFence {
		return
	}
	if t.engine != nil {
		// a real deployment would invoke the transport's barrier collective
		// here (transport.Fabric.Barrier); single-process trees have nothing
		// further to drain once the local pool's tasks have returned.
	}
}
