package tree

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"github.com/madwave-project/madwave/container"
	"github.com/madwave-project/madwave/internal/debug"
	"github.com/madwave-project/madwave/internal/nlog"
	"github.com/madwave-project/madwave/tensor"
)

var remoteJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// remoteOpcode distinguishes the handful of cross-rank operations the tree
// issues through its container, per §4.2's "active message carries the
// call" contract.
type remoteOpcode int

const (
	opGaxpyInplace remoteOpcode = iota
	opSetHasChildren
)

// remoteOp is the wire envelope for a cross-rank tree operation. Coefficient
// data travels as parallel real/imaginary float64 slices rather than the
// hand-rolled msgp framing rml/container use for their own control
// records: a generic Node[T]'s payload would need per-T codegen that the
// corpus never demonstrates, so json-iterator (already package persist's
// choice for the Persisted Form) carries this side channel too.
type remoteOp struct {
	Op                   remoteOpcode
	Shape                []int
	CoeffRe, CoeffIm     []float64
	HasChildren          bool
	AlphaRe, AlphaIm     float64
	BetaRe, BetaIm       float64
}

func complexParts[T tensor.Numeric](v T) (float64, float64) {
	switch x := any(v).(type) {
	case float64:
		return x, 0
	case complex128:
		return real(x), imag(x)
	default:
		return 0, 0
	}
}

func fromComplexParts[T tensor.Numeric](re, im float64) T {
	var zero T
	switch any(zero).(type) {
	case complex128:
		return any(complex(re, im)).(T)
	default:
		return any(re).(T)
	}
}

func encodeCoeff[T tensor.Numeric](c *tensor.Tensor[T]) (shape []int, re, im []float64) {
	if c == nil || c.Empty() {
		return nil, nil, nil
	}
	data := c.Data()
	re, im = make([]float64, len(data)), make([]float64, len(data))
	for i, v := range data {
		re[i], im[i] = complexParts(v)
	}
	return c.Shape(), re, im
}

func decodeCoeff[T tensor.Numeric](shape []int, re, im []float64) *tensor.Tensor[T] {
	if len(re) == 0 {
		return tensor.EmptyTensor[T]()
	}
	out := tensor.New[T](shape)
	data := out.Data()
	for i := range data {
		data[i] = fromComplexParts[T](re[i], im[i])
	}
	return out
}

// sendGaxpyInplace issues §4.4.7's gaxpy op for key:
// `this <- alpha*this + beta*other` merged under
// has_children = this.has_children || other.has_children. A key this rank
// owns is merged in place before it returns; any other key goes through
// the container's Send to its owning rank.
func (t *Tree[T]) sendGaxpyInplace(ctx context.Context, key Key, alpha T, other Node[T], beta T) error {
	if t.local(key) {
		t.applyGaxpyInplace(key, alpha, other, beta)
		return nil
	}
	op := remoteOp{Op: opGaxpyInplace, HasChildren: other.HasChildren}
	op.Shape, op.CoeffRe, op.CoeffIm = encodeCoeff(other.Coeff)
	op.AlphaRe, op.AlphaIm = complexParts(alpha)
	op.BetaRe, op.BetaIm = complexParts(beta)
	buf, err := remoteJSON.Marshal(op)
	if err != nil {
		return err
	}
	return t.cnt.Send(ctx, key.toProcmap(), buf, func(pk container.Key, raw []byte) {
		t.onRemoteOp(pk, raw)
	})
}

// onRemoteOp is registered with the container as the apply callback invoked
// for operations arriving from a remote rank.
func (t *Tree[T]) onRemoteOp(pk container.Key, raw []byte) {
	key := fromProcmap(pk)
	var op remoteOp
	if err := remoteJSON.Unmarshal(raw, &op); err != nil {
		nlog.Errorln(module, "malformed remote tree op for", key, ":", err)
		return
	}
	switch op.Op {
	case opGaxpyInplace:
		other := Node[T]{HasChildren: op.HasChildren, Coeff: decodeCoeff[T](op.Shape, op.CoeffRe, op.CoeffIm)}
		alpha := fromComplexParts[T](op.AlphaRe, op.AlphaIm)
		beta := fromComplexParts[T](op.BetaRe, op.BetaIm)
		t.applyGaxpyInplace(key, alpha, other, beta)
	case opSetHasChildren:
		n := t.get(key)
		n.HasChildren = op.HasChildren
		t.set(key, n)
	default:
		debug.Assertf(false, "tree: unknown remote opcode %d", op.Op)
	}
}
