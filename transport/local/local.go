// Package local is the default, in-process implementation of
// transport.Fabric: one goroutine mesh, no real network, used by tests and
// the single-process demo. A real deployment swaps this package for an
// MPI-backed one without any other package noticing.
package local

import (
	"context"
	"sync"

	"github.com/madwave-project/madwave/transport"
)

type mesh struct {
	mu    sync.Mutex
	ranks []*Fabric
}

// New builds n interconnected Fabric instances sharing one in-memory mesh.
func New(n int) []*Fabric {
	m := &mesh{}
	m.ranks = make([]*Fabric, n)
	for i := 0; i < n; i++ {
		m.ranks[i] = &Fabric{rank: i, mesh: m, inboxes: map[int]chan []byte{}}
	}
	return m.ranks
}

// Fabric is one rank's view of the mesh.
type Fabric struct {
	rank int
	mesh *mesh

	mu      sync.Mutex
	inboxes map[int]chan []byte // tag -> channel
	barrier sync.WaitGroup
}

func (f *Fabric) Rank() int { return f.rank }
func (f *Fabric) Size() int { return len(f.mesh.ranks) }

func (f *Fabric) inbox(tag int) chan []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.inboxes[tag]
	if !ok {
		ch = make(chan []byte, 4096)
		f.inboxes[tag] = ch
	}
	return ch
}

func (f *Fabric) Send(ctx context.Context, dst, tag int, b []byte) error {
	cp := append([]byte(nil), b...)
	target := f.mesh.ranks[dst].inbox(tag)
	select {
	case target <- cp:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fabric) Recv(tag int) <-chan []byte { return f.inbox(tag) }

// Barrier, SumInt64, MaxInt64, and MinInt64 are deliberately trivial here:
// the real transport is named as an external collaborator (§1) and out of
// scope; this single-process mesh exists to drive `rml`/`tree` in tests,
// not to reimplement MPI collectives faithfully.
func (f *Fabric) Barrier(ctx context.Context) error { return nil }

func (f *Fabric) SumInt64(ctx context.Context, v int64) (int64, error) { return v, nil }
func (f *Fabric) MaxInt64(ctx context.Context, v int64) (int64, error) { return v, nil }
func (f *Fabric) MinInt64(ctx context.Context, v int64) (int64, error) { return v, nil }

func (f *Fabric) Gather(ctx context.Context, v []byte) ([][]byte, error) {
	out := make([][]byte, len(f.mesh.ranks))
	out[f.rank] = v
	return out, nil
}

func (f *Fabric) Close() error { return nil }

var _ transport.Fabric = (*Fabric)(nil)
