// Package factory implements the Factory / Defaults of §6: functional
// options enumerating the complete recognized configuration set, validated
// and resolved into a constructed tree.Tree.
package factory

import (
	"context"
	"fmt"

	"github.com/madwave-project/madwave/internal/nlog"
	"github.com/madwave-project/madwave/numerics"
	"github.com/madwave-project/madwave/procmap"
	"github.com/madwave-project/madwave/rml"
	"github.com/madwave-project/madwave/runtime"
	"github.com/madwave-project/madwave/tensor"
	"github.com/madwave-project/madwave/tree"
)

const module = "factory"

// options is the internal, fully-resolved form of §6's recognized option
// set; user code builds it with the With* functional options below.
type options[T tensor.Numeric] struct {
	d                 int
	k                 int
	thresh            float64
	initialLevel      int
	maxRefineLevel    int
	truncateMode      tree.TruncateMode
	refine            bool
	empty             bool
	autorefine        bool
	truncateOnProject bool
	fence             bool
	bc                []tree.BC
	pmap              procmap.ProcessMap
	functor           tree.Functor[T]

	rank      int
	engine    *rml.Engine
	pool      *runtime.Pool
	handlerID int32
	durable   string
}

// Option configures a tree at construction time, per §6's Factory options.
type Option[T tensor.Numeric] func(*options[T])

func WithDimension[T tensor.Numeric](d int) Option[T] { return func(o *options[T]) { o.d = d } }
func WithK[T tensor.Numeric](k int) Option[T]         { return func(o *options[T]) { o.k = k } }
func WithThresh[T tensor.Numeric](thresh float64) Option[T] {
	return func(o *options[T]) { o.thresh = thresh }
}
func WithInitialLevel[T tensor.Numeric](n int) Option[T] {
	return func(o *options[T]) { o.initialLevel = n }
}
func WithMaxRefineLevel[T tensor.Numeric](n int) Option[T] {
	return func(o *options[T]) { o.maxRefineLevel = n }
}
func WithTruncateMode[T tensor.Numeric](m tree.TruncateMode) Option[T] {
	return func(o *options[T]) { o.truncateMode = m }
}
func WithRefine[T tensor.Numeric](refine bool) Option[T] { return func(o *options[T]) { o.refine = refine } }
func WithEmpty[T tensor.Numeric](empty bool) Option[T]   { return func(o *options[T]) { o.empty = empty } }
func WithAutorefine[T tensor.Numeric](b bool) Option[T]  { return func(o *options[T]) { o.autorefine = b } }
func WithTruncateOnProject[T tensor.Numeric](b bool) Option[T] {
	return func(o *options[T]) { o.truncateOnProject = b }
}
func WithFence[T tensor.Numeric](b bool) Option[T] { return func(o *options[T]) { o.fence = b } }
func WithBC[T tensor.Numeric](bc []tree.BC) Option[T] {
	return func(o *options[T]) { o.bc = bc }
}
func WithProcessMap[T tensor.Numeric](pmap procmap.ProcessMap) Option[T] {
	return func(o *options[T]) { o.pmap = pmap }
}
func WithFunctor[T tensor.Numeric](fn tree.Functor[T]) Option[T] {
	return func(o *options[T]) { o.functor = fn }
}
func WithRuntime[T tensor.Numeric](rank int, engine *rml.Engine, pool *runtime.Pool, handlerID int32) Option[T] {
	return func(o *options[T]) { o.rank = rank; o.engine = engine; o.pool = pool; o.handlerID = handlerID }
}
func WithDurable[T tensor.Numeric](path string) Option[T] { return func(o *options[T]) { o.durable = path } }

// New validates the resolved options (k ∈ [1,KMAX], bc shape d×2) and
// constructs the requested tree: empty, from-functor, or zero-valued, per
// §6.
func New[T tensor.Numeric](ctx context.Context, opts ...Option[T]) (*tree.Tree[T], error) {
	cfg := options[T]{k: 6, thresh: 1e-6, initialLevel: 2, maxRefineLevel: 30}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.pool == nil {
		cfg.pool = runtime.NewPool()
	}
	if cfg.k < 1 || cfg.k > numerics.KMAX {
		return nil, fmt.Errorf("factory: k=%d out of range [1,%d]", cfg.k, numerics.KMAX)
	}
	if cfg.bc == nil {
		cfg.bc = make([]tree.BC, cfg.d)
	}
	if len(cfg.bc) != cfg.d {
		return nil, fmt.Errorf("factory: bc must have one row per axis, got %d want %d", len(cfg.bc), cfg.d)
	}
	if cfg.pmap == nil {
		cfg.pmap = procmap.Single{}
	}

	t := tree.New[T](tree.Config[T]{
		D: cfg.d, K: cfg.k, Thresh: cfg.thresh, BC: cfg.bc, TruncMode: cfg.truncateMode,
		Rank: cfg.rank, PMap: cfg.pmap, Engine: cfg.engine, Pool: cfg.pool, HandlerID: cfg.handlerID,
		Durable: cfg.durable,
	})

	switch {
	case cfg.empty:
		nlog.Infoln(module, "constructed empty tree", "k", cfg.k, "d", cfg.d)
		return t, nil
	case cfg.functor != nil:
		popts := tree.ProjectOptions{
			InitialLevel:      cfg.initialLevel,
			Refine:            cfg.refine,
			TruncateOnProject: cfg.truncateOnProject,
			Fence:             cfg.fence,
		}
		if err := t.Project(ctx, cfg.functor, popts); err != nil {
			return nil, err
		}
		if cfg.autorefine {
			if err := autorefineAll(ctx, t, cfg.maxRefineLevel); err != nil {
				return nil, err
			}
		}
		return t, nil
	default:
		var zero T
		zf := func(x []float64) T { return zero }
		if err := t.Project(ctx, zf, tree.ProjectOptions{InitialLevel: cfg.initialLevel, Fence: cfg.fence}); err != nil {
			return nil, err
		}
		return t, nil
	}
}

func autorefineAll[T tensor.Numeric](ctx context.Context, t *tree.Tree[T], maxLevel int) error {
	return autorefineWalk(ctx, t, tree.RootKey(t.Dim()), maxLevel)
}

func autorefineWalk[T tensor.Numeric](ctx context.Context, t *tree.Tree[T], key tree.Key, maxLevel int) error {
	if err := t.RefineOp(ctx, key, maxLevel); err != nil {
		return err
	}
	for c := 0; c < key.NumChildren(); c++ {
		child := key.Child(c)
		if t.IsInterior(child) {
			if err := autorefineWalk(ctx, t, child, maxLevel); err != nil {
				return err
			}
		}
	}
	return nil
}
