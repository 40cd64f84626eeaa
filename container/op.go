package container

import "github.com/tinylib/msgp/msgp"

// encodeOp/decodeOp frame a key alongside an opaque operation payload for
// transport over rml, hand-written against the msgp runtime like rml's own
// header, since no codegen is run in this environment. The []int level
// vector is written element-by-element behind an array header, the same
// shape msgp-generated code produces for a slice field.
func encodeOp(k Key, op []byte) []byte {
	b := msgp.AppendInt(nil, k.N)
	b = msgp.AppendArrayHeader(b, uint32(len(k.L)))
	for _, l := range k.L {
		b = msgp.AppendInt(b, l)
	}
	b = msgp.AppendBytes(b, op)
	return b
}

func decodeOp(buf []byte) (Key, []byte, error) {
	var k Key
	var err error
	k.N, buf, err = msgp.ReadIntBytes(buf)
	if err != nil {
		return k, nil, err
	}
	var n uint32
	n, buf, err = msgp.ReadArrayHeaderBytes(buf)
	if err != nil {
		return k, nil, err
	}
	k.L = make([]int, n)
	for i := range k.L {
		k.L[i], buf, err = msgp.ReadIntBytes(buf)
		if err != nil {
			return k, nil, err
		}
	}
	op, _, err := msgp.ReadBytesBytes(buf, nil)
	return k, op, err
}
