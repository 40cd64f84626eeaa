// Package persist implements the Persisted Form of §6: serialization of a
// tree's configuration and container contents via json-iterator. The
// functor is deliberately omitted since it cannot be recovered from the
// wire form.
package persist

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/madwave-project/madwave/internal/debug"
	"github.com/madwave-project/madwave/tensor"
	"github.com/madwave-project/madwave/tree"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// nodeRecord is one entry of the persisted container, identified by the
// node's level and translation as separate n and l fields.
type nodeRecord struct {
	N           int       `json:"n"`
	L           []int     `json:"l"`
	Shape       []int     `json:"shape,omitempty"`
	CoeffRe     []float64 `json:"coeff_re,omitempty"`
	CoeffIm     []float64 `json:"coeff_im,omitempty"`
	HasChildren bool      `json:"has_children"`
}

// Document is the serialized shape named in §6: {k, thresh, initial_level,
// max_refine_level, truncate_mode, autorefine, truncate_on_project,
// nonstandard, compressed, bc, container}. The functor is deliberately
// omitted.
type Document struct {
	K                 int           `json:"k"`
	Thresh            float64       `json:"thresh"`
	InitialLevel      int           `json:"initial_level"`
	MaxRefineLevel    int           `json:"max_refine_level"`
	TruncateMode      int           `json:"truncate_mode"`
	Autorefine        bool          `json:"autorefine"`
	TruncateOnProject bool          `json:"truncate_on_project"`
	NonStandard       bool          `json:"nonstandard"`
	Compressed        bool          `json:"compressed"`
	BC                [][2]int      `json:"bc"`
	Container         []nodeRecord  `json:"container"`
}

// Save writes t's persisted form to w. truncate_mode is always written as
// 0 and bc as one all-zero row per axis: Save does not read the tree's
// truncate mode or boundary conditions. Only leaves carrying coefficients
// are written; interior nodes and their coefficients are not.
func Save[T tensor.Numeric](w io.Writer, t *tree.Tree[T], initialLevel, maxRefineLevel int, autorefine, truncateOnProject bool) error {
	doc := Document{
		K: t.Order(), Thresh: t.Thresh(), InitialLevel: initialLevel, MaxRefineLevel: maxRefineLevel,
		Autorefine: autorefine, TruncateOnProject: truncateOnProject,
		NonStandard: t.Mode() == tree.NonStandard, Compressed: t.Mode() != tree.Reconstructed,
	}
	doc.BC = make([][2]int, t.Dim())

	for _, key := range t.Leaves() {
		n, ok := t.FindPublic(key)
		if !ok {
			continue
		}
		rec := nodeRecord{N: key.N, L: key.L, HasChildren: n.HasChildren}
		if n.HasCoeff() {
			rec.Shape = n.Coeff.Shape()
			rec.CoeffRe, rec.CoeffIm = splitReal(n.Coeff.Data())
		}
		doc.Container = append(doc.Container, rec)
	}

	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// Load reads a persisted document from r. The caller supplies a
// newEmpty func (typically factory.New with WithEmpty(true)) since the
// functor/runtime wiring cannot be recovered from the wire form.
func Load[T tensor.Numeric](r io.Reader, newEmpty func() *tree.Tree[T]) (*tree.Tree[T], *Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, err
	}

	t := newEmpty()
	for _, rec := range doc.Container {
		key := tree.Key{N: rec.N, L: rec.L}
		var coeff *tensor.Tensor[T]
		if len(rec.CoeffRe) > 0 {
			coeff = tensor.New[T](rec.Shape)
			fillReal[T](coeff.Data(), rec.CoeffRe, rec.CoeffIm)
		} else {
			coeff = tensor.EmptyTensor[T]()
		}
		t.Accumulate(key, coeff)
	}
	return t, &doc, nil
}

func splitReal[T tensor.Numeric](data []T) (re, im []float64) {
	re, im = make([]float64, len(data)), make([]float64, len(data))
	for i, v := range data {
		switch x := any(v).(type) {
		case float64:
			re[i] = x
		case complex128:
			re[i], im[i] = real(x), imag(x)
		}
	}
	return re, im
}

func fillReal[T tensor.Numeric](data []T, re, im []float64) {
	var zero T
	_, isComplex := any(zero).(complex128)
	for i := range data {
		if isComplex {
			data[i] = any(complex(re[i], im[i])).(T)
		} else {
			data[i] = any(re[i]).(T)
		}
	}
	debug.Assert(len(data) == len(re), "persist: coefficient length mismatch")
}
