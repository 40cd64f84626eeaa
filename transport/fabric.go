// Package transport defines the minimal external transport collaborator
// named in §1/§6: point-to-point non-blocking send/recv over untyped byte
// payloads plus the handful of collectives the engine needs. It is
// deliberately an interface — a production deployment plugs in a real
// MPI-backed implementation; `transport/local` supplies an in-process
// default sufficient to drive `rml` and `tree` in tests and demos.
package transport

import "context"

// Reserved tags, per §6.
const (
	RMITag        = 1
	RMIHugeDatTag = 2
	RMIHugeAckTag = 3
)

// Fabric is the external transport collaborator.
type Fabric interface {
	Rank() int
	Size() int

	// Send is non-blocking: the payload must not be mutated by the caller
	// until the returned error (if any) or a subsequent call using the same
	// buffer is observed to have completed. The local implementation copies
	// the slice, which is sufficient for the simulated single-process case.
	Send(ctx context.Context, dst, tag int, b []byte) error

	// Recv returns a channel delivering byte payloads sent to this rank on
	// tag, in the order the fabric chooses to deliver them (ordering on top
	// of this primitive is `rml`'s job, not the fabric's).
	Recv(tag int) <-chan []byte

	Barrier(ctx context.Context) error
	SumInt64(ctx context.Context, v int64) (int64, error)
	MaxInt64(ctx context.Context, v int64) (int64, error)
	MinInt64(ctx context.Context, v int64) (int64, error)
	// Gather collects v from every rank onto rank 0; other ranks get nil.
	Gather(ctx context.Context, v []byte) ([][]byte, error)

	Close() error
}
