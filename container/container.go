// Package container implements the Distributed Container of §4.3: a sharded
// map from tree keys to arbitrary node payloads, split into fixed buckets
// each guarded by its own mutex, with tasks addressed to a key routed to
// whichever rank owns it by a pluggable ProcessMap.
package container

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/madwave-project/madwave/internal/debug"
	"github.com/madwave-project/madwave/internal/nlog"
	"github.com/madwave-project/madwave/procmap"
	"github.com/madwave-project/madwave/rml"
	"github.com/madwave-project/madwave/runtime"
)

const module = "container"

const numBuckets = 256

// Key is an alias of procmap.Key rather than package tree's key type, so
// container never imports tree; tree.Key converts to and from it
// trivially.
type Key = procmap.Key

type bucket struct {
	mu   sync.RWMutex
	data map[Key]any
}

// Container is one rank's local shard of a logically global keyed store,
// plus the messaging plumbing to address operations at keys owned by other
// ranks.
type Container[T any] struct {
	rank    int
	pmap    procmap.ProcessMap
	engine  *rml.Engine
	pool    *runtime.Pool
	buckets [numBuckets]*bucket

	handlerID int32

	applyMu sync.RWMutex
	applyFn func(Key, []byte)

	durable *durableBackend
}

// Option configures a Container at construction.
type Option func(*config)

type config struct {
	durablePath string
}

// WithDurable backs the local shard with an on-disk tidwall/buntdb database
// at path, so the shard survives process restarts; without this option the
// shard is purely in-memory.
func WithDurable(path string) Option {
	return func(c *config) { c.durablePath = path }
}

// New constructs a container owned by the given rank, using pmap to route
// operations and engine/handlerID to carry them to remote ranks. handlerID
// must be unique across all containers sharing one rml.Engine.
func New[T any](rank int, pmap procmap.ProcessMap, engine *rml.Engine, pool *runtime.Pool, handlerID int32, opts ...Option) *Container[T] {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	c := &Container[T]{rank: rank, pmap: pmap, engine: engine, pool: pool, handlerID: handlerID}
	for i := range c.buckets {
		c.buckets[i] = &bucket{data: map[Key]any{}}
	}
	if cfg.durablePath != "" {
		db, err := openDurable(cfg.durablePath)
		debug.AssertNoErr(err)
		c.durable = db
		c.loadFromDurable()
	}
	if engine != nil {
		engine.RegisterHandler(handlerID, c.onRemoteOp)
	}
	return c
}

// loadFromDurable replays every record persisted under the container's
// durable backend into the in-memory buckets, called once from New.
func (c *Container[T]) loadFromDurable() {
	loaded, err := c.durable.loadAll(func(raw []byte) (any, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	})
	debug.AssertNoErr(err)
	for ks, v := range loaded {
		k, err := parseKeyString(ks)
		if err != nil {
			nlog.Errorln(module, err)
			continue
		}
		b := c.bucketFor(k)
		b.mu.Lock()
		b.data[k] = v
		b.mu.Unlock()
	}
}

func (c *Container[T]) bucketFor(k Key) *bucket {
	h := fnv.New32a()
	h.Write([]byte{byte(k.N)})
	for _, l := range k.L {
		h.Write([]byte{byte(l), byte(l >> 8), byte(l >> 16), byte(l >> 24)})
	}
	return c.buckets[h.Sum32()%numBuckets]
}

// Owns reports whether the local rank is the owner of k per the process map.
func (c *Container[T]) Owns(k Key) bool {
	return c.pmap.Owner(k) == c.rank
}

// Find returns the value stored locally at k, if any. Find never crosses the
// network; callers on a non-owning rank must use Task/Send instead.
func (c *Container[T]) Find(k Key) (T, bool) {
	b := c.bucketFor(k)
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[k]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Replace unconditionally overwrites the local entry at k.
func (c *Container[T]) Replace(k Key, v T) {
	b := c.bucketFor(k)
	b.mu.Lock()
	b.data[k] = v
	b.mu.Unlock()
	if c.durable != nil {
		c.durable.put(k, v)
	}
}

// Delete removes the local entry at k, if present.
func (c *Container[T]) Delete(k Key) {
	b := c.bucketFor(k)
	b.mu.Lock()
	delete(b.data, k)
	b.mu.Unlock()
	if c.durable != nil {
		c.durable.del(k)
	}
}

// ForEachLocal iterates every locally-owned entry. fn must not call back
// into Replace/Delete on the same container (bucket locks are not
// reentrant); collect mutations and apply them after iteration completes.
func (c *Container[T]) ForEachLocal(fn func(Key, T)) {
	for _, b := range c.buckets {
		b.mu.RLock()
		for k, v := range b.data {
			fn(k, v.(T))
		}
		b.mu.RUnlock()
	}
}

// Size returns the number of entries held locally.
func (c *Container[T]) Size() int {
	n := 0
	for _, b := range c.buckets {
		b.mu.RLock()
		n += len(b.data)
		b.mu.RUnlock()
	}
	return n
}

// Send pushes an operation (an arbitrary payload meaningful to the remote
// end's registered handler) to whichever rank owns k, per §4.3's "messages
// addressed to a key are routed to that key's owning rank." If the local
// rank owns k, apply is invoked in-process on the pool instead of going
// through the network.
func (c *Container[T]) Send(ctx context.Context, k Key, op []byte, apply func(Key, []byte)) error {
	owner := c.pmap.Owner(k)
	if owner == c.rank {
		runtime.Submit[struct{}](c.pool, runtime.Normal, func() (struct{}, error) {
			apply(k, op)
			return struct{}{}, nil
		})
		return nil
	}
	debug.Assert(c.engine != nil, "container.Send: remote routing requires a non-nil rml.Engine")
	return c.engine.Send(ctx, owner, c.handlerID, 0, true, encodeOp(k, op))
}

// onRemoteOp is registered as the rml.Handler for this container's handlerID;
// it decodes an incoming op and re-dispatches through applyFn, which must be
// wired by the owning package (tree) via SetApply before any remote traffic
// arrives.
func (c *Container[T]) onRemoteOp(src int, attr uint32, payload []byte) {
	k, op, err := decodeOp(payload)
	if err != nil {
		nlog.Errorln(module, "malformed remote op from", src, ":", err)
		return
	}
	c.applyMu.RLock()
	fn := c.applyFn
	c.applyMu.RUnlock()
	if fn == nil {
		nlog.Warningln(module, "remote op for", k, "arrived before SetApply was called, dropping")
		return
	}
	runtime.Submit[struct{}](c.pool, runtime.Normal, func() (struct{}, error) {
		fn(k, op)
		return struct{}{}, nil
	})
}

// SetApply wires the callback invoked for remote operations delivered to
// this container. It must be called once, before any peer can reach this
// rank, typically right after New.
func (c *Container[T]) SetApply(fn func(Key, []byte)) {
	c.applyMu.Lock()
	c.applyFn = fn
	c.applyMu.Unlock()
}

// EmptySibling returns a fresh, empty, purely in-memory container sharing
// this container's rank, process map, and worker pool but with its own
// buckets and no remote routing — used by algorithms (e.g. tree.Mul) that
// materialize a brand-new result tree rather than mutate an existing one.
func (c *Container[T]) EmptySibling() *Container[T] {
	s := &Container[T]{rank: c.rank, pmap: c.pmap, pool: c.pool}
	for i := range s.buckets {
		s.buckets[i] = &bucket{data: map[Key]any{}}
	}
	return s
}

// Close releases the durable backend, if any.
func (c *Container[T]) Close() error {
	if c.durable != nil {
		return c.durable.close()
	}
	return nil
}
